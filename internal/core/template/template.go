// Package template holds the built-in content templates: named starting
// layouts that prefill a new document with sections and bilingual copy.
package template

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/validation"
)

//go:embed templates.toml
var builtin []byte

// Section is one prefilled section. Blueprint is matched by name; the data
// maps override the blueprint's own defaults key by key.
type Section struct {
	Blueprint string                 `toml:"blueprint" json:"blueprint"`
	DataEn    map[string]interface{} `toml:"data_en" json:"dataEn"`
	DataAr    map[string]interface{} `toml:"data_ar" json:"dataAr"`
}

// Template sections are listed in display order.
type Template struct {
	ID          string    `toml:"id" json:"id"`
	Name        string    `toml:"name" json:"name"`
	Description string    `toml:"description" json:"description"`
	Type        string    `toml:"type" json:"type"`
	Icon        string    `toml:"icon" json:"icon"`
	Sections    []Section `toml:"section" json:"sections"`
}

type Catalogue struct {
	templates []Template
	byID      map[string]int
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(builtin)
}

// Parse reads a catalogue document. Ids must be unique and every section
// must name a blueprint.
func Parse(data []byte) (*Catalogue, error) {
	var f struct {
		Templates []Template `toml:"template"`
	}
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	c := &Catalogue{templates: f.Templates, byID: make(map[string]int, len(f.Templates))}
	for i := range c.templates {
		t := &c.templates[i]
		if err := validate(t); err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("template %q defined twice", t.ID)
		}
		c.byID[t.ID] = i
		for j := range t.Sections {
			t.Sections[j].DataEn = normalizeMap(t.Sections[j].DataEn)
			t.Sections[j].DataAr = normalizeMap(t.Sections[j].DataAr)
		}
	}
	return c, nil
}

func validate(t *Template) error {
	out := &validation.ValidationErrors{}
	out.Merge("", validation.FromOzzo(ozzo.ValidateStruct(t,
		ozzo.Field(&t.ID, ozzo.Required),
		ozzo.Field(&t.Name, ozzo.Required),
		ozzo.Field(&t.Type, ozzo.Required),
	)))
	for i := range t.Sections {
		if strings.TrimSpace(t.Sections[i].Blueprint) == "" {
			out.Add(fmt.Sprintf("sections.%d.blueprint", i), "cannot be blank")
		}
	}
	return out.OrNil()
}

// All returns every template in catalogue order.
func (c *Catalogue) All() []Template {
	if c == nil {
		return []Template{}
	}
	out := make([]Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t.clone())
	}
	return out
}

// ByType returns the templates for one content type, matched without regard
// to case.
func (c *Catalogue) ByType(contentType string) []Template {
	out := []Template{}
	if c == nil {
		return out
	}
	for _, t := range c.templates {
		if strings.EqualFold(t.Type, contentType) {
			out = append(out, t.clone())
		}
	}
	return out
}

// Get returns a copy the caller may modify.
func (c *Catalogue) Get(id string) (Template, bool) {
	if c == nil {
		return Template{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.templates[i].clone(), true
}

func (t Template) clone() Template {
	out := t
	out.Sections = make([]Section, len(t.Sections))
	for i, s := range t.Sections {
		out.Sections[i] = Section{
			Blueprint: s.Blueprint,
			DataEn:    cloneMap(s.DataEn),
			DataAr:    cloneMap(s.DataAr),
		}
	}
	return out
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = blueprint.CloneValue(v)
	}
	return out
}

// normalizeMap rewrites decoded TOML into the shapes a JSON decode yields:
// float64 numbers and []interface{} arrays.
func normalizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case map[string]interface{}:
		return normalizeMap(t)
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = normalizeMap(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
