package fieldtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_KnownKinds(t *testing.T) {
	cases := map[Kind]Category{
		Text:         CategoryBasic,
		RichText:     CategoryBasic,
		Number:       CategoryBasic,
		Image:        CategoryMedia,
		Gallery:      CategoryMedia,
		Repeater:     CategoryAdvanced,
		Relationship: CategoryAdvanced,
		JSON:         CategoryAdvanced,
	}
	for kind, category := range cases {
		info, ok := Lookup(kind)
		require.True(t, ok, "kind %s should be registered", kind)
		assert.Equal(t, category, info.Category, "kind %s", kind)
	}
}

func TestResolve_UnknownFallsBackToText(t *testing.T) {
	info := Resolve("hologram")

	assert.True(t, info.Unknown)
	assert.Equal(t, Kind("hologram"), info.Kind)
	assert.Equal(t, CategoryBasic, info.Category)
	assert.False(t, IsKnown("hologram"))
}

func TestSupportsBilingual(t *testing.T) {
	assert.True(t, SupportsBilingual(Text))
	assert.True(t, SupportsBilingual(Repeater))
	assert.False(t, SupportsBilingual(Number))
	assert.False(t, SupportsBilingual(Boolean))
	assert.False(t, SupportsBilingual("unknown"))
}

func TestComposite(t *testing.T) {
	assert.True(t, IsComposite(Group))
	assert.True(t, IsComposite(Repeater))
	assert.False(t, IsComposite(Gallery))
}

func TestAll_KeysAreUniqueAndStable(t *testing.T) {
	all := All()
	seen := map[Kind]bool{}
	for _, info := range all {
		assert.False(t, seen[info.Kind], "duplicate kind %s", info.Kind)
		seen[info.Kind] = true
	}
	assert.Len(t, all, 20)
	assert.Equal(t, Text, all[0].Kind)

	all[0].Label = "mutated"
	info, _ := Lookup(Text)
	assert.Equal(t, "Text", info.Label)
}

func TestByCategory(t *testing.T) {
	groups := ByCategory()
	total := 0
	for _, infos := range groups {
		total += len(infos)
	}
	assert.Equal(t, len(All()), total)
	assert.Equal(t, Image, groups[CategoryMedia][0].Kind)
}
