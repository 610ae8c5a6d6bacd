package render

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/content"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
)

func featureSummary() *blueprint.Summary {
	return &blueprint.Summary{
		ID:   uuid.New(),
		Name: "Feature",
		Fields: []blueprint.FieldDefinition{
			{Name: "title", Type: fieldtype.Text, Bilingual: true},
			{Name: "count", Type: fieldtype.Number},
			{Name: "body", Type: fieldtype.RichText, Bilingual: true},
			{Name: "items", Type: fieldtype.Repeater, Bilingual: true, SubFields: []blueprint.FieldDefinition{
				{Name: "text", Type: fieldtype.RichText},
			}},
		},
	}
}

func sampleContent() *content.Content {
	summary := featureSummary()
	return &content.Content{
		ID:      uuid.New(),
		TitleEn: "Services",
		TitleAr: "خدمات",
		SlugEn:  "services",
		Sections: []*content.Section{
			{
				ID: uuid.New(), Order: 0, Visible: true, Blueprint: summary,
				DataEn: map[string]interface{}{
					"title":  "Design",
					"count":  float64(12),
					"body":   "**bold**",
					"items":  []interface{}{map[string]interface{}{"text": "_one_"}},
					"orphan": "not rendered",
				},
				DataAr: map[string]interface{}{
					"title": "تصميم",
					"body":  "",
				},
			},
			{
				ID: uuid.New(), Order: 1, Visible: false, Blueprint: summary,
				DataEn: map[string]interface{}{"title": "Hidden"},
			},
		},
	}
}

func TestRender_English(t *testing.T) {
	page, err := New().Render(sampleContent(), locale.EN)
	require.NoError(t, err)

	assert.Equal(t, "Services", page.Title)
	require.Len(t, page.Sections, 1, "hidden sections are skipped")

	fields := page.Sections[0].Fields
	assert.Equal(t, "Feature", page.Sections[0].Blueprint)
	assert.Equal(t, "Design", fields["title"])
	assert.Equal(t, float64(12), fields["count"])
	assert.Equal(t, "<p><strong>bold</strong></p>\n", fields["body"])
	assert.NotContains(t, fields, "orphan")

	items := fields["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "<p><em>one</em></p>\n", items[0].(map[string]interface{})["text"])
}

func TestRender_ArabicFallsBack(t *testing.T) {
	page, err := New().Render(sampleContent(), locale.AR)
	require.NoError(t, err)

	assert.Equal(t, "خدمات", page.Title)
	assert.Equal(t, "services", page.Slug, "missing arabic slug falls back")

	fields := page.Sections[0].Fields
	assert.Equal(t, "تصميم", fields["title"])
	assert.Equal(t, float64(12), fields["count"], "shared fields come from the english slot")
	assert.Equal(t, "<p><strong>bold</strong></p>\n", fields["body"], "empty arabic value falls back")
}

func TestRender_SectionWithoutBlueprint(t *testing.T) {
	c := &content.Content{
		TitleEn: "Raw",
		Sections: []*content.Section{
			{ID: uuid.New(), Visible: true, DataEn: map[string]interface{}{"a": 1}},
		},
	}
	page, err := New().Render(c, locale.EN)
	require.NoError(t, err)
	require.Len(t, page.Sections, 1)
	assert.Equal(t, map[string]interface{}{"a": 1}, page.Sections[0].Fields)
}

func TestRender_RawHTMLIsOptIn(t *testing.T) {
	c := sampleContent()
	c.Sections[0].DataEn["body"] = "<script>alert(1)</script>\n\n**kept**"

	page, err := New().Render(c, locale.EN)
	require.NoError(t, err)
	body, _ := page.Sections[0].Fields["body"].(string)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "<strong>kept</strong>")

	page, err = New(WithRawHTML()).Render(c, locale.EN)
	require.NoError(t, err)
	body, _ = page.Sections[0].Fields["body"].(string)
	assert.Contains(t, body, "<script>alert(1)</script>")
}
