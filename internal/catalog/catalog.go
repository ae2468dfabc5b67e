package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a name or code is not part of the catalog
var ErrNotFound = errors.New("language not in catalog")

// Language is one of the languages known to the catalog. The zero value is
// not a valid language.
type Language struct {
	code string
	name string
}

// Known languages. English is the fixed source language and is not offered
// as a translation target.
var (
	English    = Language{code: "en", name: "English"}
	Vietnamese = Language{code: "vi", name: "Vietnamese"}
	Spanish    = Language{code: "es", name: "Spanish"}
	French     = Language{code: "fr", name: "French"}
	German     = Language{code: "de", name: "German"}
	Japanese   = Language{code: "ja", name: "Japanese"}
)

// Default returns the target language used before any explicit selection
func Default() Language { return Vietnamese }

// Source returns the language speech is recognized in and translated from
func Source() Language { return English }

// targets lists the selectable languages in display order
var targets = []Language{Vietnamese, Spanish, French, German, Japanese}

// Code returns the engine language code, e.g. "vi"
func (l Language) Code() string {
	return l.code
}

// Name returns the display name, e.g. "Vietnamese"
func (l Language) Name() string {
	return l.name
}

// IsZero reports whether l is the zero Language
func (l Language) IsZero() bool {
	return l.code == ""
}

// IsTarget reports whether l can be selected as a translation target
func (l Language) IsTarget() bool {
	for _, t := range targets {
		if t == l {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	if l.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s (%s)", l.name, l.code)
}

// Choice pairs a display name with an engine language code
type Choice struct {
	Name string
	Code string
}

// Choices returns the selectable target languages in display order
func Choices() []Choice {
	choices := make([]Choice, 0, len(targets))
	for _, l := range targets {
		choices = append(choices, Choice{Name: l.name, Code: l.code})
	}
	return choices
}

// Names returns the display names of all target languages in display order
func Names() []string {
	names := make([]string, 0, len(targets))
	for _, l := range targets {
		names = append(names, l.name)
	}
	return names
}

// CodeFor returns the engine code for a display name
func CodeFor(displayName string) (string, error) {
	l, err := ByName(displayName)
	if err != nil {
		return "", err
	}
	return l.code, nil
}

// ByName looks up a target language by its exact display name
func ByName(displayName string) (Language, error) {
	for _, l := range targets {
		if l.name == displayName {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("%q: %w", displayName, ErrNotFound)
}

// Parse resolves a target language from a display name or a code,
// ignoring case and surrounding whitespace
func Parse(s string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, l := range targets {
		if key == l.code || key == strings.ToLower(l.name) {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("%q: %w", s, ErrNotFound)
}
