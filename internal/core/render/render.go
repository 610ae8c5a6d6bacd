// Package render turns a stored content document into what a site needs for
// one locale: visible sections in order, each with resolved field values.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/content"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
)

type Page struct {
	ID          uuid.UUID      `json:"id"`
	Type        content.Type   `json:"type"`
	Template    string         `json:"template,omitempty"`
	Locale      locale.Locale  `json:"locale"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Description string         `json:"description,omitempty"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
	Sections    []SectionBlock `json:"sections"`
}

type SectionBlock struct {
	ID        uuid.UUID              `json:"id"`
	Blueprint string                 `json:"blueprint"`
	Order     int                    `json:"order"`
	Fields    map[string]interface{} `json:"fields"`
}

type Renderer struct {
	md goldmark.Markdown
}

type options struct {
	rawHTML bool
}

type Option func(*options)

// WithRawHTML passes HTML embedded in rich text through unchanged. Only use
// it where every author is trusted, such as the authenticated preview.
func WithRawHTML() Option {
	return func(o *options) { o.rawHTML = true }
}

// New builds a renderer. Rich text is Markdown (GFM); embedded HTML is
// dropped unless WithRawHTML is given.
func New(opts ...Option) *Renderer {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	var rendererOpts []renderer.Option
	if o.rawHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(rendererOpts...),
		),
	}
}

// Render resolves c for loc. Sections must carry their blueprint summary;
// hidden sections are skipped. Bilingual fields read the locale's slot and
// fall back to English when empty; shared fields always read English.
func (r *Renderer) Render(c *content.Content, loc locale.Locale) (*Page, error) {
	page := &Page{
		ID:          c.ID,
		Type:        c.Type,
		Template:    c.Template,
		Locale:      loc,
		Title:       c.Title(loc),
		Slug:        c.Slug(loc),
		Description: c.Description(loc),
		PublishedAt: c.PublishedAt,
		Sections:    []SectionBlock{},
	}

	for _, s := range c.Sections {
		if !s.Visible {
			continue
		}
		block := SectionBlock{ID: s.ID, Order: s.Order, Fields: map[string]interface{}{}}
		if s.Blueprint == nil {
			block.Fields = copyMap(localSlot(s, loc))
			page.Sections = append(page.Sections, block)
			continue
		}
		block.Blueprint = s.Blueprint.Name

		for _, f := range s.Blueprint.Fields {
			value, ok := fieldValue(s, f, loc)
			if !ok {
				continue
			}
			out, err := r.value(f, value)
			if err != nil {
				return nil, fmt.Errorf("section %d field %s: %w", s.Order, f.Name, err)
			}
			block.Fields[f.Name] = out
		}
		page.Sections = append(page.Sections, block)
	}
	return page, nil
}

func fieldValue(s *content.Section, f blueprint.FieldDefinition, loc locale.Locale) (interface{}, bool) {
	if f.Bilingual && loc != locale.EN {
		if v, ok := s.DataAr[f.Name]; ok && !empty(v) {
			return v, true
		}
	}
	if v, ok := s.DataEn[f.Name]; ok {
		return v, true
	}
	if !f.Bilingual {
		v, ok := s.DataAr[f.Name]
		return v, ok
	}
	return nil, false
}

func localSlot(s *content.Section, loc locale.Locale) map[string]interface{} {
	if loc == locale.AR && len(s.DataAr) > 0 {
		return s.DataAr
	}
	return s.DataEn
}

func (r *Renderer) value(f blueprint.FieldDefinition, v interface{}) (interface{}, error) {
	switch f.Type {
	case fieldtype.RichText:
		text, ok := v.(string)
		if !ok {
			return v, nil
		}
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(text), &buf); err != nil {
			return nil, fmt.Errorf("markdown: %w", err)
		}
		return buf.String(), nil
	case fieldtype.Group:
		m, ok := v.(map[string]interface{})
		if !ok {
			return v, nil
		}
		return r.object(f.SubFields, m)
	case fieldtype.Repeater:
		items, ok := v.([]interface{})
		if !ok {
			return v, nil
		}
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				out = append(out, item)
				continue
			}
			rendered, err := r.object(f.SubFields, m)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *Renderer) object(fields []blueprint.FieldDefinition, m map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		v, ok := m[f.Name]
		if !ok {
			continue
		}
		rendered, err := r.value(f, v)
		if err != nil {
			return nil, err
		}
		out[f.Name] = rendered
	}
	return out, nil
}

func empty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
