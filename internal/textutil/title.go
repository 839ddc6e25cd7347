// Package textutil provides text helpers for deck titles.
package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FallbackTitle is used when no usable title can be derived.
const FallbackTitle = "Untitled Deck"

// NormalizeTitle collapses separator runs in a raw title and applies title
// casing. Empty or symbol-only input yields FallbackTitle.
func NormalizeTitle(raw string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return FallbackTitle
	}
	return cases.Title(language.Und).String(title)
}

// TitleFromPath derives a deck title from an audio file path.
func TitleFromPath(sourcePath string) string {
	if sourcePath == "" {
		return FallbackTitle
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return NormalizeTitle(base)
}
