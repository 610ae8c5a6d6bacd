package blueprint

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/validation"
)

// MaxFieldDepth bounds repeater/group nesting. Top level fields are depth 1.
const MaxFieldDepth = 4

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const identifierMessage = "must start with a letter or underscore and contain only letters, digits and underscores"

// ValidateBlueprint checks metadata and the full field tree. All issues are
// reported together as *validation.ValidationErrors.
func ValidateBlueprint(b *Blueprint) error {
	if b == nil {
		return validation.New("", "blueprint is required")
	}

	out := &validation.ValidationErrors{}
	err := validation.FromOzzo(ozzo.ValidateStruct(b,
		ozzo.Field(&b.Name, ozzo.Required, ozzo.Match(identifier).Error(identifierMessage)),
		ozzo.Field(&b.DisplayName, ozzo.Required, ozzo.By(notBlank)),
		ozzo.Field(&b.BlueprintType, ozzo.Required, ozzo.In(TypeDocument, TypeComponent).Error("must be DOCUMENT or COMPONENT")),
		ozzo.Field(&b.Fields, ozzo.Required.Error("add at least one field to the blueprint")),
	))
	if err != nil && !validation.IsValidationError(err) {
		return err
	}
	out.Merge("", err)

	ids := make(map[string]bool)
	if err := validateFields(out, "fields", b.Fields, 1, ids); err != nil {
		return err
	}
	return out.OrNil()
}

func validateFields(out *validation.ValidationErrors, path string, fields []FieldDefinition, depth int, ids map[string]bool) error {
	names := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		p := fmt.Sprintf("%s.%d", path, i)

		err := validation.FromOzzo(ozzo.ValidateStruct(f,
			ozzo.Field(&f.ID, ozzo.Required),
			ozzo.Field(&f.Name, ozzo.Required, ozzo.Match(identifier).Error(identifierMessage)),
			ozzo.Field(&f.Type, ozzo.Required, ozzo.By(knownKind)),
		))
		if err != nil && !validation.IsValidationError(err) {
			return err
		}
		out.Merge(p, err)

		if f.Name != "" {
			if names[f.Name] {
				out.Add(p+".name", fmt.Sprintf("duplicate field name %q", f.Name))
			}
			names[f.Name] = true
		}
		if f.ID != "" {
			if ids[f.ID] {
				out.Add(p+".id", fmt.Sprintf("duplicate field id %q", f.ID))
			}
			ids[f.ID] = true
		}

		composite := fieldtype.IsComposite(f.Type)
		switch {
		case composite && len(f.SubFields) == 0:
			out.Add(p+".subFields", "repeater and group fields need at least one sub-field")
		case !composite && len(f.SubFields) > 0:
			out.Add(p+".subFields", "only repeater and group fields can have sub-fields")
		}

		if f.Validation != nil && f.Validation.Pattern != "" {
			if _, err := regexp.Compile(f.Validation.Pattern); err != nil {
				out.Add(p+".validation.pattern", "invalid regular expression")
			}
		}

		for j, opt := range f.Options {
			if strings.TrimSpace(opt.Value) == "" {
				out.Add(fmt.Sprintf("%s.options.%d.value", p, j), "cannot be blank")
			}
		}

		if len(f.SubFields) == 0 {
			continue
		}
		if depth >= MaxFieldDepth {
			out.Add(p+".subFields", fmt.Sprintf("fields cannot be nested deeper than %d levels", MaxFieldDepth))
			continue
		}
		if err := validateFields(out, p+".subFields", f.SubFields, depth+1, ids); err != nil {
			return err
		}
	}
	return nil
}

func notBlank(value interface{}) error {
	if s, _ := value.(string); s != "" && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func knownKind(value interface{}) error {
	kind, _ := value.(fieldtype.Kind)
	if !fieldtype.IsKnown(kind) {
		return fmt.Errorf("unknown field type %q", kind)
	}
	return nil
}

// UnknownFieldTypes lists the dotted names of fields whose type is not in
// the registry. Their stored values are kept and edited as plain text.
func UnknownFieldTypes(b *Blueprint) []string {
	var out []string
	var walk func(prefix string, fields []FieldDefinition)
	walk = func(prefix string, fields []FieldDefinition) {
		for _, f := range fields {
			name := f.Name
			if prefix != "" {
				name = prefix + "." + f.Name
			}
			if !fieldtype.IsKnown(f.Type) {
				out = append(out, name)
			}
			walk(name, f.SubFields)
		}
	}
	walk("", b.Fields)
	return out
}

// SanitizeFieldName strips whitespace from a machine name.
func SanitizeFieldName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

// NameFromDisplayName derives a technical name, e.g. "Hero Banner" becomes
// "HeroBanner".
func NameFromDisplayName(displayName string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, displayName)
}
