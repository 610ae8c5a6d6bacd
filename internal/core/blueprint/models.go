package blueprint

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
)

type Type string

const (
	TypeDocument  Type = "DOCUMENT"
	TypeComponent Type = "COMPONENT"
)

type Blueprint struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	DisplayName   string            `json:"displayName"`
	Description   string            `json:"description,omitempty"`
	BlueprintType Type              `json:"blueprintType"`
	Category      string            `json:"category,omitempty"`
	Icon          string            `json:"icon,omitempty"`
	AllowMultiple bool              `json:"allowMultiple"`
	IsSystem      bool              `json:"isSystem"`
	Fields        []FieldDefinition `json:"fields"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// FieldDefinition is one input slot. SubFields is only meaningful for
// composite kinds (repeater, group).
type FieldDefinition struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Label        locale.Localized  `json:"label"`
	Type         fieldtype.Kind    `json:"type"`
	Bilingual    bool              `json:"bilingual"`
	Required     bool              `json:"required"`
	Validation   *Rules            `json:"validation,omitempty"`
	HelpText     *locale.Localized `json:"helpText,omitempty"`
	DefaultValue interface{}       `json:"defaultValue,omitempty"`
	Options      []Option          `json:"options,omitempty"`
	SubFields    []FieldDefinition `json:"subFields,omitempty"`
}

// Rules are optional value constraints projected into the payload schema.
type Rules struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

type Option struct {
	Value string           `json:"value"`
	Label locale.Localized `json:"label"`
}

// UnmarshalJSON also accepts a bare string, used as both value and label.
func (o *Option) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = Option{Value: s, Label: locale.Localized{EN: s, AR: s}}
		return nil
	}
	type plain Option
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Option(p)
	return nil
}

// FieldByName returns the top level field called name.
func (b *Blueprint) FieldByName(name string) (*FieldDefinition, bool) {
	for i := range b.Fields {
		if b.Fields[i].Name == name {
			return &b.Fields[i], true
		}
	}
	return nil, false
}

// Defaults builds the initial payload for one locale slot from the fields'
// default values. A bilingual default may be given as {"en": ..., "ar": ...}.
func (b *Blueprint) Defaults(loc locale.Locale) map[string]interface{} {
	out := map[string]interface{}{}
	for _, f := range b.Fields {
		if f.DefaultValue == nil {
			continue
		}
		v := f.DefaultValue
		if m, ok := v.(map[string]interface{}); ok && f.Bilingual {
			if localized, ok := m[string(loc)]; ok {
				v = localized
			}
		}
		out[f.Name] = CloneValue(v)
	}
	return out
}

// Clone returns a deep copy; cached and stored values are never shared.
func (b *Blueprint) Clone() *Blueprint {
	if b == nil {
		return nil
	}
	out := *b
	out.Fields = cloneFields(b.Fields)
	return &out
}

func cloneFields(fields []FieldDefinition) []FieldDefinition {
	if fields == nil {
		return nil
	}
	out := make([]FieldDefinition, len(fields))
	for i, f := range fields {
		c := f
		if f.Validation != nil {
			r := *f.Validation
			c.Validation = &r
		}
		if f.HelpText != nil {
			h := *f.HelpText
			c.HelpText = &h
		}
		if f.Options != nil {
			c.Options = append([]Option(nil), f.Options...)
		}
		c.DefaultValue = CloneValue(f.DefaultValue)
		c.SubFields = cloneFields(f.SubFields)
		out[i] = c
	}
	return out
}

// CloneValue deep copies a decoded JSON value. Maps and slices are copied;
// scalars are returned as they are.
func CloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = CloneValue(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, val := range t {
			s[i] = CloneValue(val)
		}
		return s
	default:
		return v
	}
}

// Summary is the resolved blueprint embedded in a section read.
type Summary struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	DisplayName   string            `json:"displayName"`
	Icon          string            `json:"icon,omitempty"`
	AllowMultiple bool              `json:"allowMultiple"`
	Fields        []FieldDefinition `json:"fields"`
}

func (b *Blueprint) Summary() *Summary {
	return &Summary{
		ID:            b.ID,
		Name:          b.Name,
		DisplayName:   b.DisplayName,
		Icon:          b.Icon,
		AllowMultiple: b.AllowMultiple,
		Fields:        cloneFields(b.Fields),
	}
}

type CreateBlueprintRequest struct {
	Name          string            `json:"name"`
	DisplayName   string            `json:"displayName"`
	Description   string            `json:"description"`
	BlueprintType Type              `json:"blueprintType"`
	Category      string            `json:"category"`
	Icon          string            `json:"icon"`
	AllowMultiple *bool             `json:"allowMultiple"`
	Fields        []FieldDefinition `json:"fields"`
}

// UpdateBlueprintRequest replaces metadata and the whole field list. Name may
// be omitted; when present it must match the stored name.
type UpdateBlueprintRequest struct {
	Name          string            `json:"name"`
	DisplayName   string            `json:"displayName"`
	Description   string            `json:"description"`
	BlueprintType Type              `json:"blueprintType"`
	Category      string            `json:"category"`
	Icon          string            `json:"icon"`
	AllowMultiple *bool             `json:"allowMultiple"`
	Fields        []FieldDefinition `json:"fields"`
}

type ListFilter struct {
	Type     Type
	Category string
}

type ListBlueprintsResponse struct {
	Blueprints []*Blueprint `json:"blueprints"`
	Total      int          `json:"total"`
}
