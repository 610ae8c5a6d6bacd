package locale

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale selects one half of a bilingual value. Every read or write of
// bilingual data takes one explicitly.
type Locale string

const (
	EN Locale = "en"
	AR Locale = "ar"
)

// Default is the canonical locale; shared (non bilingual) values live there.
const Default = EN

var ErrUnsupported = errors.New("unsupported locale")

var (
	supported = []language.Tag{language.English, language.Arabic}
	matcher   = language.NewMatcher(supported)
)

// All lists the supported locales in canonical order.
func All() []Locale {
	return []Locale{EN, AR}
}

// Parse accepts BCP 47 tags such as "ar", "ar-SA" or "en-GB".
func Parse(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrUnsupported)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return EN, nil
	case "ar":
		return AR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// FromAcceptLanguage picks the best supported locale for an Accept-Language
// header, defaulting to English.
func FromAcceptLanguage(header string) Locale {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	if supported[idx] == language.Arabic {
		return AR
	}
	return EN
}

// Localized is a pair of strings, one per locale.
type Localized struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

func (l Localized) Get(loc Locale) string {
	if loc == AR {
		return l.AR
	}
	return l.EN
}

// GetOrDefault falls back to the English value when the requested one is empty.
func (l Localized) GetOrDefault(loc Locale) string {
	if v := l.Get(loc); v != "" {
		return v
	}
	return l.EN
}

func (l *Localized) Set(loc Locale, value string) {
	if loc == AR {
		l.AR = value
		return
	}
	l.EN = value
}

func (l Localized) IsZero() bool {
	return l.EN == "" && l.AR == ""
}
