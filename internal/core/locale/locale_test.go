package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]Locale{
		"en":    EN,
		"EN":    EN,
		"en-GB": EN,
		"ar":    AR,
		"ar-SA": AR,
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParse_Unsupported(t *testing.T) {
	for _, in := range []string{"", "fr", "not a tag!"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrUnsupported, in)
	}
}

func TestFromAcceptLanguage(t *testing.T) {
	assert.Equal(t, AR, FromAcceptLanguage("ar-EG,ar;q=0.9,en;q=0.8"))
	assert.Equal(t, EN, FromAcceptLanguage("en-US,en;q=0.9"))
	assert.Equal(t, EN, FromAcceptLanguage(""))
	assert.Equal(t, EN, FromAcceptLanguage("ja"))
}

func TestLocalized(t *testing.T) {
	var l Localized
	assert.True(t, l.IsZero())

	l.Set(EN, "Projects")
	assert.Equal(t, "Projects", l.Get(EN))
	assert.Equal(t, "", l.Get(AR))
	assert.Equal(t, "Projects", l.GetOrDefault(AR))

	l.Set(AR, "مشاريع")
	assert.Equal(t, "مشاريع", l.GetOrDefault(AR))
	assert.False(t, l.IsZero())
}
