package content

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/validation"
)

const time1h = time.Hour

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

type fixture struct {
	svc        *Service
	blueprints *blueprint.Service
	clock      *stubClock
	stat       *blueprint.Blueprint
	hero       *blueprint.Blueprint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := NewMemoryRepository()
	bpSvc := blueprint.NewService(blueprint.NewMemoryRepository(), repo)
	clock := &stubClock{now: mustTime(t, "2026-05-01T09:00:00Z")}

	stat, err := bpSvc.Create(ctx, &blueprint.CreateBlueprintRequest{
		Name:        "Stat",
		DisplayName: "Statistic",
		Fields: []blueprint.FieldDefinition{
			{Name: "number", Type: fieldtype.Text},
			{Name: "label", Type: fieldtype.Text, Bilingual: true},
		},
	})
	require.NoError(t, err)

	single := false
	hero, err := bpSvc.Create(ctx, &blueprint.CreateBlueprintRequest{
		Name:          "Hero",
		DisplayName:   "Hero",
		AllowMultiple: &single,
		Fields: []blueprint.FieldDefinition{
			{Name: "headline", Type: fieldtype.Text, Bilingual: true, Required: true, DefaultValue: "Welcome"},
			{Name: "count", Type: fieldtype.Number},
		},
	})
	require.NoError(t, err)

	return &fixture{
		svc:        NewService(repo, bpSvc, WithClock(clock)),
		blueprints: bpSvc,
		clock:      clock,
		stat:       stat,
		hero:       hero,
	}
}

// saveRequest mirrors what an editor sends back for c.
func saveRequest(c *Content) *UpdateContentRequest {
	req := &UpdateContentRequest{
		TitleEn:       c.TitleEn,
		TitleAr:       c.TitleAr,
		SlugEn:        c.SlugEn,
		SlugAr:        c.SlugAr,
		DescriptionEn: c.DescriptionEn,
		DescriptionAr: c.DescriptionAr,
		Status:        c.Status,
		Featured:      c.Featured,
		Sections:      []SectionInput{},
	}
	for _, s := range c.Sections {
		visible := s.Visible
		req.Sections = append(req.Sections, SectionInput{
			ID: s.ID, Order: s.Order, Visible: &visible, DataEn: s.DataEn, DataAr: s.DataAr,
		})
	}
	return req
}

func TestCreate_DerivesSlugAndSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, &CreateContentRequest{
		TitleEn:      "About Us",
		BlueprintIDs: []uuid.UUID{f.hero.ID, f.stat.ID, f.stat.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "about-us", c.SlugEn)
	assert.Equal(t, TypePage, c.Type)
	assert.Equal(t, StatusDraft, c.Status)
	assert.Nil(t, c.PublishedAt)
	require.Len(t, c.Sections, 3)
	for i, s := range c.Sections {
		assert.Equal(t, i, s.Order)
		assert.True(t, s.Visible)
		require.NotNil(t, s.Blueprint)
	}
	assert.Equal(t, "Welcome", c.Sections[0].DataEn["headline"])
	assert.Equal(t, "Hero", c.Sections[0].Blueprint.Name)
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &CreateContentRequest{})
	assert.True(t, validation.IsValidationError(err))

	_, err = f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", Type: "BROCHURE"})
	assert.True(t, validation.IsValidationError(err))

	_, err = f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", BlueprintIDs: []uuid.UUID{f.hero.ID, f.hero.ID}})
	assert.ErrorIs(t, err, ErrSingleSectionBlueprint)

	_, err = f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", BlueprintIDs: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, ErrBlueprintNotFound)

	_, err = f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home"})
	assert.ErrorIs(t, err, ErrSlugExists)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatScenario_ReorderKeepsPayloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Numbers"})
	require.NoError(t, err)
	s1, err := f.svc.AddSection(ctx, c.ID, f.stat.ID)
	require.NoError(t, err)
	s2, err := f.svc.AddSection(ctx, c.ID, f.stat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, s1.Order)
	assert.Equal(t, 1, s2.Order)

	c, err = f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	c.Sections[0].SetValue("en", "number", "150+")
	c.Sections[0].SetValue("en", "label", "Projects")
	c.Sections[1].SetValue("en", "number", "20+")
	c.Sections[1].SetValue("en", "label", "Team")
	require.True(t, MoveUp(c.Sections, 1))

	saved, err := f.svc.Update(ctx, c.ID, saveRequest(c))
	require.NoError(t, err)

	require.Len(t, saved.Sections, 2)
	assert.Equal(t, s2.ID, saved.Sections[0].ID)
	assert.Equal(t, s1.ID, saved.Sections[1].ID)
	assert.Equal(t, "20+", saved.Sections[0].DataEn["number"])
	assert.Equal(t, "Team", saved.Sections[0].DataEn["label"])
	assert.Equal(t, "150+", saved.Sections[1].DataEn["number"])
	assert.Equal(t, "Projects", saved.Sections[1].DataEn["label"])
}

func TestUpdate_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", BlueprintIDs: []uuid.UUID{f.hero.ID, f.stat.ID}})
	require.NoError(t, err)
	c.Sections[1].Visible = false
	c.Sections[1].SetValue("ar", "label", "مشاريع")

	saved, err := f.svc.Update(ctx, c.ID, saveRequest(c))
	require.NoError(t, err)
	reloaded, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)

	require.Len(t, reloaded.Sections, 2)
	for i := range saved.Sections {
		assert.Equal(t, saved.Sections[i].ID, reloaded.Sections[i].ID)
		assert.Equal(t, saved.Sections[i].Order, reloaded.Sections[i].Order)
		assert.Equal(t, saved.Sections[i].Visible, reloaded.Sections[i].Visible)
		assert.Equal(t, saved.Sections[i].DataEn, reloaded.Sections[i].DataEn)
		assert.Equal(t, saved.Sections[i].DataAr, reloaded.Sections[i].DataAr)
	}
	assert.False(t, reloaded.Sections[1].Visible, "hidden sections stay in place")
	assert.Equal(t, 1, reloaded.Sections[1].Order)
}

func TestUpdate_DeletesOmittedSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, &CreateContentRequest{
		TitleEn:      "List",
		BlueprintIDs: []uuid.UUID{f.stat.ID, f.stat.ID, f.stat.ID},
	})
	require.NoError(t, err)
	first, last := c.Sections[0].ID, c.Sections[2].ID

	c.Sections = RemoveAt(c.Sections, 1)
	saved, err := f.svc.Update(ctx, c.ID, saveRequest(c))
	require.NoError(t, err)

	require.Len(t, saved.Sections, 2)
	assert.Equal(t, first, saved.Sections[0].ID)
	assert.Equal(t, last, saved.Sections[1].ID)
	assert.Equal(t, 1, saved.Sections[1].Order)

	n, err := f.svc.CountSectionsByBlueprint(ctx, f.stat.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpdate_RejectsBadOrderAndUnknownSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", BlueprintIDs: []uuid.UUID{f.stat.ID, f.stat.ID}})
	require.NoError(t, err)

	req := saveRequest(c)
	req.Sections[1].Order = 5
	_, err = f.svc.Update(ctx, c.ID, req)
	assert.ErrorIs(t, err, ErrOrderInvalid)

	req = saveRequest(c)
	req.Sections[1].ID = uuid.New()
	_, err = f.svc.Update(ctx, c.ID, req)
	assert.True(t, validation.IsValidationError(err))

	reloaded, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Sections, 2, "failed saves change nothing")
}

func TestUpdate_ValidatesPayloadTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", BlueprintIDs: []uuid.UUID{f.hero.ID}})
	require.NoError(t, err)

	c.Sections[0].SetValue("en", "count", "many")
	_, err = f.svc.Update(ctx, c.ID, saveRequest(c))
	ve := validation.GetValidationErrors(err)
	require.NotNil(t, ve)
	assert.Equal(t, "sections.0.dataEn.count", ve.Errors[0].Field)
}

func TestUpdate_RequiredOnlyEnforcedWhenPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", BlueprintIDs: []uuid.UUID{f.hero.ID}})
	require.NoError(t, err)

	c.Sections[0].DataEn = map[string]interface{}{}
	_, err = f.svc.Update(ctx, c.ID, saveRequest(c))
	require.NoError(t, err, "drafts may be incomplete")

	c.Status = StatusPublished
	_, err = f.svc.Update(ctx, c.ID, saveRequest(c))
	assert.True(t, validation.IsValidationError(err))

	c.Sections[0].Visible = false
	published, err := f.svc.Update(ctx, c.ID, saveRequest(c))
	require.NoError(t, err, "hidden sections are not enforced")
	require.NotNil(t, published.PublishedAt)
	assert.True(t, f.clock.now.Equal(*published.PublishedAt))
}

func TestUpdate_PublishStampsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home"})
	require.NoError(t, err)

	c.Status = StatusPublished
	published, err := f.svc.Update(ctx, c.ID, saveRequest(c))
	require.NoError(t, err)
	stamp := *published.PublishedAt

	f.clock.now = f.clock.now.Add(24 * time.Hour)
	published.Status = StatusDraft
	draft, err := f.svc.Update(ctx, c.ID, saveRequest(published))
	require.NoError(t, err)
	require.NotNil(t, draft.PublishedAt)
	assert.True(t, stamp.Equal(*draft.PublishedAt))
}

func TestUpdate_SlugConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home"})
	require.NoError(t, err)
	other, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "About"})
	require.NoError(t, err)

	other.SlugEn = "home"
	_, err = f.svc.Update(ctx, other.ID, saveRequest(other))
	assert.ErrorIs(t, err, ErrSlugExists)
}

func TestAddSection_SingleBlueprint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", BlueprintIDs: []uuid.UUID{f.hero.ID}})
	require.NoError(t, err)

	_, err = f.svc.AddSection(ctx, c.ID, f.hero.ID)
	assert.ErrorIs(t, err, ErrSingleSectionBlueprint)

	_, err = f.svc.AddSection(ctx, uuid.New(), f.stat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateSection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, &CreateContentRequest{
		TitleEn:      "Home",
		BlueprintIDs: []uuid.UUID{f.hero.ID, f.stat.ID, f.stat.ID},
	})
	require.NoError(t, err)
	c.Sections[1].SetValue("en", "number", "7")
	_, err = f.svc.Update(ctx, c.ID, saveRequest(c))
	require.NoError(t, err)

	dup, err := f.svc.DuplicateSection(ctx, c.ID, c.Sections[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, dup.Order)
	assert.Equal(t, "7", dup.DataEn["number"])

	reloaded, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Sections, 4)
	assert.Equal(t, dup.ID, reloaded.Sections[2].ID)
	assert.Equal(t, c.Sections[2].ID, reloaded.Sections[3].ID)
	for i, s := range reloaded.Sections {
		assert.Equal(t, i, s.Order)
	}

	_, err = f.svc.DuplicateSection(ctx, c.ID, c.Sections[0].ID)
	assert.ErrorIs(t, err, ErrSingleSectionBlueprint)

	_, err = f.svc.DuplicateSection(ctx, c.ID, uuid.New())
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestDelete_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home", BlueprintIDs: []uuid.UUID{f.stat.ID}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.blueprints.Delete(ctx, f.stat.ID), blueprint.ErrInUse)

	require.NoError(t, f.svc.Delete(ctx, c.ID))
	_, err = f.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, c.ID), ErrNotFound)

	n, err := f.svc.CountSectionsByBlueprint(ctx, f.stat.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, f.blueprints.Delete(ctx, f.stat.ID))
}

func TestGetPublishedBySlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home"})
	require.NoError(t, err)

	_, err = f.svc.GetPublishedBySlug(ctx, "home")
	assert.ErrorIs(t, err, ErrNotFound)

	c.Status = StatusPublished
	_, err = f.svc.Update(ctx, c.ID, saveRequest(c))
	require.NoError(t, err)

	got, err := f.svc.GetPublishedBySlug(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, &CreateContentRequest{TitleEn: "Home"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &CreateContentRequest{TitleEn: "First Post", Type: TypeBlog})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	blogs, err := f.svc.List(ctx, ListFilter{Type: TypeBlog})
	require.NoError(t, err)
	require.Equal(t, 1, blogs.Total)
	assert.Equal(t, "first-post", blogs.Content[0].SlugEn)
	assert.Nil(t, blogs.Content[0].Sections)
}
