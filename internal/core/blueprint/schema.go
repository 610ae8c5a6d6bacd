package blueprint

import (
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
)

// Schema projects the field list into a JSON Schema for one locale slot of a
// section payload (dataEn or dataAr). Undeclared keys are allowed so values
// of removed fields survive. With strict set, required fields must be present
// and non-empty; otherwise every field may be missing or null.
func Schema(b *Blueprint, strict bool) map[string]interface{} {
	if b == nil {
		return nil
	}
	return objectSchema(b.Fields, strict)
}

func objectSchema(fields []FieldDefinition, strict bool) map[string]interface{} {
	props := make(map[string]interface{}, len(fields))
	var required []interface{}
	for _, f := range fields {
		props[f.Name] = fieldSchema(f, strict)
		if strict && f.Required {
			required = append(required, f.Name)
		}
	}
	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func fieldSchema(f FieldDefinition, strict bool) map[string]interface{} {
	mustFill := strict && f.Required

	switch f.Type {
	case fieldtype.Text, fieldtype.Textarea, fieldtype.RichText, fieldtype.Color, fieldtype.URL:
		return nullable(stringSchema(f, mustFill), !mustFill)
	case fieldtype.Select:
		s := stringSchema(f, mustFill)
		if len(f.Options) > 0 {
			enum := make([]interface{}, 0, len(f.Options)+2)
			for _, opt := range f.Options {
				enum = append(enum, opt.Value)
			}
			if !mustFill {
				enum = append(enum, "", nil)
			}
			s["enum"] = enum
		}
		return nullable(s, !mustFill)
	case fieldtype.Email:
		return formatted("email", mustFill)
	case fieldtype.Date:
		return formatted("date", mustFill)
	case fieldtype.DateTime:
		return formatted("date-time", mustFill)
	case fieldtype.Number:
		s := map[string]interface{}{"type": "number"}
		if r := f.Validation; r != nil {
			if r.Min != nil {
				s["minimum"] = *r.Min
			}
			if r.Max != nil {
				s["maximum"] = *r.Max
			}
		}
		return nullable(s, !mustFill)
	case fieldtype.Boolean:
		return nullable(map[string]interface{}{"type": "boolean"}, !mustFill)
	case fieldtype.Image, fieldtype.File, fieldtype.Video, fieldtype.Asset:
		return mediaSchema(mustFill)
	case fieldtype.Gallery:
		s := map[string]interface{}{"type": "array", "items": mediaSchema(false)}
		if mustFill {
			s["minItems"] = 1
		}
		return nullable(s, !mustFill)
	case fieldtype.Relationship:
		ref := map[string]interface{}{"type": "string"}
		list := map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}
		if mustFill {
			ref["minLength"] = 1
			list["minItems"] = 1
		}
		anyOf := []interface{}{ref, list}
		if !mustFill {
			anyOf = append(anyOf, map[string]interface{}{"type": "null"})
		}
		return map[string]interface{}{"anyOf": anyOf}
	case fieldtype.Repeater:
		s := map[string]interface{}{"type": "array", "items": objectSchema(f.SubFields, strict)}
		if mustFill {
			s["minItems"] = 1
		}
		return nullable(s, !mustFill)
	case fieldtype.Group:
		return nullable(objectSchema(f.SubFields, strict), !mustFill)
	default:
		// json and unrecognised kinds accept any value.
		return map[string]interface{}{}
	}
}

func stringSchema(f FieldDefinition, mustFill bool) map[string]interface{} {
	s := map[string]interface{}{"type": "string"}
	if r := f.Validation; r != nil {
		if r.MinLength != nil {
			s["minLength"] = *r.MinLength
		}
		if r.MaxLength != nil {
			s["maxLength"] = *r.MaxLength
		}
		if r.Pattern != "" {
			s["pattern"] = r.Pattern
		}
	}
	if _, ok := s["minLength"]; !ok && mustFill {
		s["minLength"] = 1
	}
	return s
}

// formatted accepts a string in the given format. Unless the field must be
// filled, an empty string or null is accepted too.
func formatted(format string, mustFill bool) map[string]interface{} {
	s := map[string]interface{}{"type": "string", "format": format}
	if mustFill {
		return s
	}
	return map[string]interface{}{"anyOf": []interface{}{
		s,
		map[string]interface{}{"type": "string", "maxLength": 0},
		map[string]interface{}{"type": "null"},
	}}
}

// mediaSchema accepts either a URL string or an asset object.
func mediaSchema(mustFill bool) map[string]interface{} {
	str := map[string]interface{}{"type": "string"}
	if mustFill {
		str["minLength"] = 1
	}
	anyOf := []interface{}{str, map[string]interface{}{"type": "object"}}
	if !mustFill {
		anyOf = append(anyOf, map[string]interface{}{"type": "null"})
	}
	return map[string]interface{}{"anyOf": anyOf}
}

func nullable(s map[string]interface{}, allow bool) map[string]interface{} {
	if !allow {
		return s
	}
	if t, ok := s["type"].(string); ok {
		s["type"] = []interface{}{t, "null"}
	}
	return s
}
