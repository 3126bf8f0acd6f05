package templates

import (
	"errors"
	"fmt"
	"strings"
)

// Language identifies a supported language or framework.
type Language string

const (
	Angular  Language = "angular"
	Python   Language = "python"
	Generic  Language = "generic"
	SeeSharp Language = "see-sharp"
)

// ErrUnknownLanguage is returned for language names with no registry entry.
var ErrUnknownLanguage = errors.New("unknown language")

var displayNames = map[Language]string{
	Angular:  "Angular/TypeScript",
	Python:   "Python",
	Generic:  "Generic/Other",
	SeeSharp: "C# (.NET)",
}

var languageOrder = []Language{Angular, Python, Generic, SeeSharp}

// Languages returns every supported language in display order.
func Languages() []Language {
	return append([]Language(nil), languageOrder...)
}

// LanguageNames returns the language codes accepted on the command line.
func LanguageNames() []string {
	out := make([]string, len(languageOrder))
	for i, l := range languageOrder {
		out[i] = string(l)
	}
	return out
}

// ParseLanguage converts a user-supplied code to a Language.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := displayNames[l]; !ok {
		return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownLanguage, s, strings.Join(LanguageNames(), ", "))
	}
	return l, nil
}

// DisplayName returns the human-readable name.
func (l Language) DisplayName() string {
	if name, ok := displayNames[l]; ok {
		return name
	}
	return string(l)
}
