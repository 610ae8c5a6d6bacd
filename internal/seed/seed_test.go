package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
)

func TestCatalogue_IsValid(t *testing.T) {
	defs, err := Catalogue()
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	names := map[string]bool{}
	for _, def := range defs {
		assert.False(t, names[def.Name], "duplicate %s", def.Name)
		names[def.Name] = true
		assert.Empty(t, blueprint.UnknownFieldTypes(def), def.Name)
		assert.NoError(t, blueprint.ValidateBlueprint(def), def.Name)
	}
	for _, want := range []string{"Asset", "Navigation", "Footer", "HeroBanner"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestCatalogue_DecodesNestedFields(t *testing.T) {
	defs, err := Catalogue()
	require.NoError(t, err)

	var footer *blueprint.Blueprint
	for _, def := range defs {
		if def.Name == "Footer" {
			footer = def
		}
	}
	require.NotNil(t, footer)
	assert.True(t, footer.IsSystem)
	assert.False(t, footer.AllowMultiple)

	columns, ok := footer.FieldByName("columns")
	require.True(t, ok)
	assert.Equal(t, fieldtype.Repeater, columns.Type)
	require.Len(t, columns.SubFields, 2)
	assert.Len(t, columns.SubFields[1].SubFields, 2, "links repeater keeps its own fields")
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := blueprint.NewService(blueprint.NewMemoryRepository(), nil)

	first, err := Run(ctx, svc, nil)
	require.NoError(t, err)
	defs, _ := Catalogue()
	assert.Len(t, first.Created, len(defs))

	asset, err := svc.GetByName(ctx, "Asset")
	require.NoError(t, err)
	assert.True(t, asset.IsSystem)

	hero, err := svc.GetByName(ctx, "HeroBanner")
	require.NoError(t, err)
	assert.False(t, hero.IsSystem, "starter components stay editable")

	second, err := Run(ctx, svc, nil)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.ElementsMatch(t, []string{"Asset", "Navigation", "Footer"}, second.Refreshed)

	again, err := svc.GetByName(ctx, "Asset")
	require.NoError(t, err)
	assert.Equal(t, asset.ID, again.ID)

	list, err := svc.List(ctx, blueprint.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, len(defs), list.Total)
}
