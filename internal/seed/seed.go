// Package seed installs the built-in blueprint catalogue.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
)

//go:embed system_blueprints.toml
var catalogue []byte

type file struct {
	Blueprints []blueprintDef `toml:"blueprint"`
}

type blueprintDef struct {
	Name          string     `toml:"name"`
	DisplayName   string     `toml:"display_name"`
	Description   string     `toml:"description"`
	Type          string     `toml:"type"`
	AllowMultiple bool       `toml:"allow_multiple"`
	System        bool       `toml:"system"`
	Icon          string     `toml:"icon"`
	Category      string     `toml:"category"`
	Fields        []fieldDef `toml:"field"`
}

type fieldDef struct {
	Name      string      `toml:"name"`
	Label     localized   `toml:"label"`
	Type      string      `toml:"type"`
	Bilingual bool        `toml:"bilingual"`
	Required  bool        `toml:"required"`
	Help      *localized  `toml:"help"`
	Default   interface{} `toml:"default"`
	MinLength *int        `toml:"min_length"`
	MaxLength *int        `toml:"max_length"`
	Min       *float64    `toml:"min"`
	Max       *float64    `toml:"max"`
	Pattern   string      `toml:"pattern"`
	Options   []optionDef `toml:"options"`
	Fields    []fieldDef  `toml:"field"`
}

type localized struct {
	EN string `toml:"en"`
	AR string `toml:"ar"`
}

type optionDef struct {
	Value string    `toml:"value"`
	Label localized `toml:"label"`
}

// Store is the part of the blueprint service seeding needs.
type Store interface {
	SeedSystem(ctx context.Context, def *blueprint.Blueprint) (bool, error)
	GetByName(ctx context.Context, name string) (*blueprint.Blueprint, error)
	Create(ctx context.Context, req *blueprint.CreateBlueprintRequest) (*blueprint.Blueprint, error)
}

// Result lists blueprint names by what Run did with them.
type Result struct {
	Created   []string
	Refreshed []string
	Skipped   []string
}

// Catalogue parses the embedded definitions.
func Catalogue() ([]*blueprint.Blueprint, error) {
	var f file
	if _, err := toml.Decode(string(catalogue), &f); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	out := make([]*blueprint.Blueprint, 0, len(f.Blueprints))
	for _, def := range f.Blueprints {
		out = append(out, def.toBlueprint())
	}
	return out, nil
}

// Run installs the catalogue. System blueprints are created or refreshed by
// name; starter components are only created when missing, so operator edits
// survive. Running it twice is harmless.
func Run(ctx context.Context, store Store, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defs, err := Catalogue()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, def := range defs {
		if def.IsSystem {
			created, err := store.SeedSystem(ctx, def)
			if err != nil {
				return res, err
			}
			if created {
				res.Created = append(res.Created, def.Name)
			} else {
				res.Refreshed = append(res.Refreshed, def.Name)
			}
			continue
		}

		_, err := store.GetByName(ctx, def.Name)
		if err == nil {
			res.Skipped = append(res.Skipped, def.Name)
			continue
		}
		if !errors.Is(err, blueprint.ErrNotFound) {
			return res, err
		}
		allowMultiple := def.AllowMultiple
		if _, err := store.Create(ctx, &blueprint.CreateBlueprintRequest{
			Name:          def.Name,
			DisplayName:   def.DisplayName,
			Description:   def.Description,
			BlueprintType: def.BlueprintType,
			Category:      def.Category,
			Icon:          def.Icon,
			AllowMultiple: &allowMultiple,
			Fields:        def.Fields,
		}); err != nil {
			return res, fmt.Errorf("starter blueprint %s: %w", def.Name, err)
		}
		res.Created = append(res.Created, def.Name)
	}

	logger.Info("blueprint catalogue seeded",
		zap.Strings("created", res.Created),
		zap.Int("refreshed", len(res.Refreshed)),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

func (d blueprintDef) toBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Name:          d.Name,
		DisplayName:   d.DisplayName,
		Description:   d.Description,
		BlueprintType: blueprint.Type(d.Type),
		Category:      d.Category,
		Icon:          d.Icon,
		AllowMultiple: d.AllowMultiple,
		IsSystem:      d.System,
		Fields:        toFields("", d.Fields),
	}
}

// toFields derives ids from the dotted field path so seeded ids are stable
// across runs and unique within a blueprint.
func toFields(prefix string, defs []fieldDef) []blueprint.FieldDefinition {
	if len(defs) == 0 {
		return nil
	}
	out := make([]blueprint.FieldDefinition, 0, len(defs))
	for _, d := range defs {
		id := prefix + d.Name
		f := blueprint.FieldDefinition{
			ID:           id,
			Name:         d.Name,
			Label:        locale.Localized{EN: d.Label.EN, AR: d.Label.AR},
			Type:         fieldtype.Kind(d.Type),
			Bilingual:    d.Bilingual,
			Required:     d.Required,
			DefaultValue: normalizeDefault(d.Default),
			SubFields:    toFields(id+".", d.Fields),
		}
		if d.Help != nil {
			f.HelpText = &locale.Localized{EN: d.Help.EN, AR: d.Help.AR}
		}
		if d.MinLength != nil || d.MaxLength != nil || d.Min != nil || d.Max != nil || d.Pattern != "" {
			f.Validation = &blueprint.Rules{
				MinLength: d.MinLength,
				MaxLength: d.MaxLength,
				Min:       d.Min,
				Max:       d.Max,
				Pattern:   d.Pattern,
			}
		}
		for _, o := range d.Options {
			f.Options = append(f.Options, blueprint.Option{
				Value: o.Value,
				Label: locale.Localized{EN: o.Label.EN, AR: o.Label.AR},
			})
		}
		out = append(out, f)
	}
	return out
}

// normalizeDefault matches what a JSON round trip would produce.
func normalizeDefault(v interface{}) interface{} {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return v
}
