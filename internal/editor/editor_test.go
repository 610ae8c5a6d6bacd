package editor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrashed98/blueprint-cms/config"
	"github.com/mrashed98/blueprint-cms/internal/app"
	"github.com/mrashed98/blueprint-cms/internal/client"
	"github.com/mrashed98/blueprint-cms/internal/core/auth"
	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/content"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
	"github.com/mrashed98/blueprint-cms/internal/core/validation"
	"github.com/mrashed98/blueprint-cms/internal/editor"
)

func newClient(t *testing.T) (*client.Client, *app.App) {
	t.Helper()
	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "test"},
		JWT:     config.JWTConfig{Secret: "test-secret", ExpirationHours: 1},
		Cache:   config.CacheConfig{MaxCost: 1000, BlueprintTTL: time.Minute},
		Storage: config.StorageConfig{Driver: app.DriverMemory},
	}
	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.Handler)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	_, err = a.Auth.Register(ctx, &auth.RegisterRequest{
		Email: "admin@example.com", Password: "password1", Name: "Admin", Role: auth.RoleAdmin,
	})
	require.NoError(t, err)

	c := client.New(srv.URL)
	_, err = c.Login(ctx, "admin@example.com", "password1")
	require.NoError(t, err)
	return c, a
}

func ptr[T any](v T) *T { return &v }

// buildStat creates {Stat: number (shared text), label (bilingual text)}
// through the editor.
func buildStat(t *testing.T, api editor.BlueprintAPI) *blueprint.Blueprint {
	t.Helper()
	e := editor.NewBlueprintEditor(api)
	require.NoError(t, e.SetDisplayName("Statistic"))
	require.NoError(t, e.SetName("Stat"))

	i, err := e.AddField(fieldtype.Text)
	require.NoError(t, err)
	require.NoError(t, e.UpdateField(i, editor.FieldPatch{Name: ptr("num ber")}))
	i, err = e.AddField(fieldtype.Text)
	require.NoError(t, err)
	require.NoError(t, e.UpdateField(i, editor.FieldPatch{Name: ptr("label"), Bilingual: ptr(true)}))

	bp, err := e.Save(context.Background())
	require.NoError(t, err)
	return bp
}

func TestBlueprintEditor_SaveCreatesThenUpdates(t *testing.T) {
	api, _ := newClient(t)
	ctx := context.Background()

	stat := buildStat(t, api)
	assert.NotEqual(t, uuid.Nil, stat.ID)
	assert.Equal(t, "Stat", stat.Name)
	require.Len(t, stat.Fields, 2)
	assert.Equal(t, "number", stat.Fields[0].Name)
	assert.False(t, stat.Fields[0].Bilingual)
	assert.True(t, stat.Fields[1].Bilingual)

	e, err := editor.LoadBlueprintEditor(ctx, api, stat.ID)
	require.NoError(t, err)
	i, err := e.AddField(fieldtype.Number)
	require.NoError(t, err)
	assert.Equal(t, "field3", e.Fields()[i].Name)
	require.NoError(t, e.SetDisplayName("Statistic Counter"))

	saved, err := e.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Stat", saved.Name, "name stays once stored")
	assert.Equal(t, "Statistic Counter", saved.DisplayName)
	require.Len(t, saved.Fields, 3)

	fetched, err := api.GetBlueprint(ctx, stat.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Fields, 3)
}

func TestBlueprintEditor_StatScenario(t *testing.T) {
	api, _ := newClient(t)
	ctx := context.Background()
	stat := buildStat(t, api)

	created, err := api.CreateContent(ctx, &content.CreateContentRequest{
		TitleEn:      "Numbers",
		BlueprintIDs: []uuid.UUID{stat.ID, stat.ID},
	})
	require.NoError(t, err)

	e := editor.NewContentEditor(api)
	require.NoError(t, e.Load(ctx, created.ID))
	doc := e.Content()
	s1, s2 := doc.Sections[0].ID, doc.Sections[1].ID

	require.NoError(t, e.SetFieldValue(s1, "number", "150+", locale.EN))
	require.NoError(t, e.SetFieldValue(s1, "label", "Projects", locale.EN))
	require.NoError(t, e.SetFieldValue(s2, "number", "20+", locale.EN))
	require.NoError(t, e.SetFieldValue(s2, "label", "Team", locale.EN))
	require.True(t, e.MoveSectionUp(1))
	require.NoError(t, e.Save(ctx))

	doc = e.Content()
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, s2, doc.Sections[0].ID)
	assert.Equal(t, s1, doc.Sections[1].ID)
	assert.Equal(t, 0, doc.Sections[0].Order)
	assert.Equal(t, 1, doc.Sections[1].Order)
	assert.Equal(t, "20+", doc.Sections[0].DataEn["number"])
	assert.Equal(t, "Team", doc.Sections[0].DataEn["label"])
	assert.Equal(t, "150+", doc.Sections[1].DataEn["number"])
	assert.Equal(t, "Projects", doc.Sections[1].DataEn["label"])
	assert.Equal(t, "150+", doc.Sections[1].DataAr["number"], "shared values land in both slots")
	assert.NotContains(t, doc.Sections[1].DataAr, "label")
}

func TestBlueprintEditor_EmptyFieldsNeverReachNetwork(t *testing.T) {
	api := &fakeAPI{}
	e := editor.NewBlueprintEditor(api)
	require.NoError(t, e.SetDisplayName("Empty"))

	_, err := e.Save(context.Background())
	require.True(t, validation.IsValidationError(err))
	assert.Zero(t, api.calls)
	assert.Equal(t, uuid.Nil, e.ID())
	assert.Empty(t, e.Fields())
}

func TestBlueprintEditor_DisplayNameDerivesName(t *testing.T) {
	e := editor.NewBlueprintEditor(&fakeAPI{})
	require.NoError(t, e.SetDisplayName("Hero Banner"))
	assert.Equal(t, "HeroBanner", e.Metadata().Name)

	require.NoError(t, e.SetName("Hero"))
	require.NoError(t, e.SetDisplayName("Big Hero"))
	assert.Equal(t, "Hero", e.Metadata().Name)
}

func TestBlueprintEditor_MoveFieldIsSelfInverse(t *testing.T) {
	e := editor.NewBlueprintEditor(&fakeAPI{})
	for i := 0; i < 3; i++ {
		_, err := e.AddField(fieldtype.Text)
		require.NoError(t, err)
	}
	names := func() []string {
		var out []string
		for _, f := range e.Fields() {
			out = append(out, f.Name)
		}
		return out
	}
	before := names()

	moved, err := e.MoveField(0, editor.Up)
	require.NoError(t, err)
	assert.False(t, moved)
	moved, err = e.MoveField(2, editor.Down)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, before, names())

	require.NoError(t, e.Focus(1))
	moved, err = e.MoveField(1, editor.Up)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"field2", "field1", "field3"}, names())
	assert.Equal(t, 0, e.Editing(), "focus follows the moved field")

	_, err = e.MoveField(0, editor.Down)
	require.NoError(t, err)
	assert.Equal(t, before, names())

	_, err = e.MoveField(7, editor.Up)
	assert.ErrorIs(t, err, editor.ErrOutOfRange)
}

func TestBlueprintEditor_AddAndRemoveFocus(t *testing.T) {
	e := editor.NewBlueprintEditor(&fakeAPI{})
	i, err := e.AddField(fieldtype.Image)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Equal(t, 0, e.Editing())

	f := e.Fields()[0]
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "field1", f.Name)
	assert.Equal(t, "New Field", f.Label.EN)
	assert.Equal(t, "حقل جديد", f.Label.AR)

	_, err = e.AddField(fieldtype.Text)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Editing())

	require.NoError(t, e.RemoveField(0))
	assert.Equal(t, 0, e.Editing(), "focus shifts with the list")
	require.NoError(t, e.RemoveField(0))
	assert.Equal(t, -1, e.Editing())
	assert.ErrorIs(t, e.RemoveField(0), editor.ErrOutOfRange)
}

func TestBlueprintEditor_GeneratedNamesStayUnique(t *testing.T) {
	e := editor.NewBlueprintEditor(&fakeAPI{})
	_, err := e.AddField(fieldtype.Text)
	require.NoError(t, err)
	require.NoError(t, e.UpdateField(0, editor.FieldPatch{Name: ptr("field2")}))

	i, err := e.AddField(fieldtype.Text)
	require.NoError(t, err)
	assert.Equal(t, "field3", e.Fields()[i].Name)
}

func TestBlueprintEditor_ValidateCatchesDuplicateNames(t *testing.T) {
	api := &fakeAPI{}
	e := editor.NewBlueprintEditor(api)
	require.NoError(t, e.SetDisplayName("Dup"))
	for i := 0; i < 2; i++ {
		_, err := e.AddField(fieldtype.Text)
		require.NoError(t, err)
	}
	require.NoError(t, e.Validate())

	require.NoError(t, e.UpdateField(1, editor.FieldPatch{Name: ptr(" field 1 ")}))
	assert.Equal(t, "field1", e.Fields()[1].Name)

	_, err := e.Save(context.Background())
	assert.True(t, validation.IsValidationError(err))
	assert.Zero(t, api.calls)
}

func TestBlueprintEditor_SystemBlueprintIsReadOnly(t *testing.T) {
	api, a := newClient(t)
	ctx := context.Background()
	_, err := a.Seed(ctx)
	require.NoError(t, err)

	list, err := api.ListBlueprints(ctx)
	require.NoError(t, err)
	var asset *blueprint.Blueprint
	for _, bp := range list.Blueprints {
		if bp.Name == "Asset" {
			asset = bp
		}
	}
	require.NotNil(t, asset)

	e, err := editor.LoadBlueprintEditor(ctx, api, asset.ID)
	require.NoError(t, err)
	assert.True(t, e.IsSystem())
	assert.NotEmpty(t, e.Fields(), "system blueprints stay readable")

	_, err = e.AddField(fieldtype.Text)
	assert.ErrorIs(t, err, editor.ErrForbidden)
	assert.ErrorIs(t, e.RemoveField(0), editor.ErrForbidden)
	assert.ErrorIs(t, e.SetDisplayName("Other"), editor.ErrForbidden)
	_, err = e.Save(ctx)
	assert.ErrorIs(t, err, editor.ErrForbidden)
}

func TestBlueprintEditor_PersistenceErrorIsVerbatim(t *testing.T) {
	api, _ := newClient(t)
	buildStat(t, api)

	e := editor.NewBlueprintEditor(api)
	require.NoError(t, e.SetDisplayName("Stat"))
	_, err := e.AddField(fieldtype.Text)
	require.NoError(t, err)

	_, err = e.Save(context.Background())
	require.ErrorIs(t, err, editor.ErrPersistence)
	var pe *editor.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusConflict, pe.Status)
	assert.Equal(t, pe.Message, err.Error())
	assert.Equal(t, uuid.Nil, e.ID(), "unsaved session keeps its state")
	assert.Len(t, e.Fields(), 1)
}

func TestLoad_NotFound(t *testing.T) {
	api, _ := newClient(t)
	ctx := context.Background()

	_, err := editor.LoadBlueprintEditor(ctx, api, uuid.New())
	assert.ErrorIs(t, err, editor.ErrNotFound)

	e := editor.NewContentEditor(api)
	assert.ErrorIs(t, e.Load(ctx, uuid.New()), editor.ErrNotFound)
	assert.Nil(t, e.Content())
	assert.ErrorIs(t, e.Save(ctx), editor.ErrNotLoaded)
}

func TestContentEditor_HiddenSectionPersists(t *testing.T) {
	api, _ := newClient(t)
	ctx := context.Background()
	stat := buildStat(t, api)
	created, err := api.CreateContent(ctx, &content.CreateContentRequest{
		TitleEn:      "Home",
		BlueprintIDs: []uuid.UUID{stat.ID, stat.ID, stat.ID},
	})
	require.NoError(t, err)

	e := editor.NewContentEditor(api)
	require.NoError(t, e.Load(ctx, created.ID))
	target := e.Content().Sections[1]
	require.NoError(t, e.SetFieldValue(target.ID, "label", "مشاريع", locale.AR))
	require.NoError(t, e.ToggleSectionVisibility(target.ID))
	require.NoError(t, e.Save(ctx))

	reloaded := editor.NewContentEditor(api)
	require.NoError(t, reloaded.Load(ctx, created.ID))
	doc := reloaded.Content()
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, target.ID, doc.Sections[1].ID)
	assert.Equal(t, 1, doc.Sections[1].Order)
	assert.False(t, doc.Sections[1].Visible)
	assert.Equal(t, "مشاريع", doc.Sections[1].DataAr["label"])
}

func TestContentEditor_RoundTrip(t *testing.T) {
	api, _ := newClient(t)
	ctx := context.Background()
	stat := buildStat(t, api)
	created, err := api.CreateContent(ctx, &content.CreateContentRequest{
		TitleEn:      "Home",
		BlueprintIDs: []uuid.UUID{stat.ID, stat.ID},
	})
	require.NoError(t, err)

	e := editor.NewContentEditor(api)
	require.NoError(t, e.Load(ctx, created.ID))
	sections := e.Content().Sections
	require.NoError(t, e.SetFieldValue(sections[0].ID, "number", "3", locale.EN))
	require.NoError(t, e.SetFieldValue(sections[1].ID, "label", "Clients", locale.EN))
	require.NoError(t, e.ToggleSectionVisibility(sections[0].ID))
	require.NoError(t, e.Save(ctx))
	saved := e.Content()

	require.NoError(t, e.Load(ctx, created.ID))
	reloaded := e.Content()
	require.Len(t, reloaded.Sections, len(saved.Sections))
	for i := range saved.Sections {
		assert.Equal(t, saved.Sections[i].ID, reloaded.Sections[i].ID)
		assert.Equal(t, saved.Sections[i].Order, reloaded.Sections[i].Order)
		assert.Equal(t, saved.Sections[i].Visible, reloaded.Sections[i].Visible)
		assert.Equal(t, saved.Sections[i].DataEn, reloaded.Sections[i].DataEn)
		assert.Equal(t, saved.Sections[i].DataAr, reloaded.Sections[i].DataAr)
	}
}

func TestContentEditor_DeleteSection(t *testing.T) {
	api, _ := newClient(t)
	ctx := context.Background()
	stat := buildStat(t, api)
	created, err := api.CreateContent(ctx, &content.CreateContentRequest{
		TitleEn:      "Home",
		BlueprintIDs: []uuid.UUID{stat.ID, stat.ID, stat.ID},
	})
	require.NoError(t, err)

	e := editor.NewContentEditor(api)
	require.NoError(t, e.Load(ctx, created.ID))
	before := e.Content().Sections
	middle := before[1].ID

	assert.ErrorIs(t, e.DeleteSection(middle, false), editor.ErrNotConfirmed)
	assert.Len(t, e.Content().Sections, 3)
	assert.ErrorIs(t, e.DeleteSection(uuid.New(), true), content.ErrSectionNotFound)

	require.NoError(t, e.DeleteSection(middle, true))
	require.NoError(t, e.Save(ctx))

	after := e.Content().Sections
	require.Len(t, after, 2)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, 0, after[0].Order)
	assert.Equal(t, before[2].ID, after[1].ID)
	assert.Equal(t, 1, after[1].Order)
}

func TestContentEditor_TogglePublish(t *testing.T) {
	api, _ := newClient(t)
	ctx := context.Background()
	created, err := api.CreateContent(ctx, &content.CreateContentRequest{TitleEn: "Launch"})
	require.NoError(t, err)

	e := editor.NewContentEditor(api)
	require.NoError(t, e.Load(ctx, created.ID))

	require.NoError(t, e.TogglePublish(ctx))
	doc := e.Content()
	assert.Equal(t, content.StatusPublished, doc.Status)
	require.NotNil(t, doc.PublishedAt)
	stamp := *doc.PublishedAt

	stored, err := api.GetContent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, content.StatusPublished, stored.Status, "publishing saves immediately")

	require.NoError(t, e.TogglePublish(ctx))
	doc = e.Content()
	assert.Equal(t, content.StatusDraft, doc.Status)
	require.NotNil(t, doc.PublishedAt)
	assert.True(t, stamp.Equal(*doc.PublishedAt))
}

func TestBlueprintEditor_RepeaterNeedsSubFields(t *testing.T) {
	e := editor.NewBlueprintEditor(&fakeAPI{})
	require.NoError(t, e.SetDisplayName("Gallery"))
	i, err := e.AddField(fieldtype.Repeater)
	require.NoError(t, err)
	assert.True(t, validation.IsValidationError(e.Validate()))

	require.NoError(t, e.UpdateField(i, editor.FieldPatch{
		Bilingual: ptr(true),
		SubFields: []blueprint.FieldDefinition{
			{Name: "caption", Type: fieldtype.Text},
			{Name: "items", Type: fieldtype.Group, SubFields: []blueprint.FieldDefinition{
				{Name: "src", Type: fieldtype.Image},
			}},
		},
	}))
	require.NoError(t, e.Validate())

	f := e.Fields()[i]
	assert.True(t, f.Bilingual)
	require.Len(t, f.SubFields, 2)
	assert.NotEmpty(t, f.SubFields[0].ID)
	assert.NotEmpty(t, f.SubFields[1].SubFields[0].ID)

	kind := fieldtype.Number
	require.NoError(t, e.UpdateField(i, editor.FieldPatch{Type: &kind}))
	assert.False(t, e.Fields()[i].Bilingual, "number fields cannot be bilingual")
}
