package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FallbackBaseName is used when a document name sanitizes to nothing.
const FallbackBaseName = "icon"

var (
	titleCaser = cases.Title(language.Und)

	// Path separators and drive colons become dashes; shell and Windows
	// reserved characters are dropped.
	unsafeChars = strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "", "\"", "", "<", "", ">", "", "|", "",
	)
)

// FoldDiacritics strips combining marks so "Café" becomes "Cafe".
func FoldDiacritics(value string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		return value
	}
	return folded
}

// SanitizeBaseName turns a document name into the stem shared by every
// export filename. Case survives; diacritics are folded and whitespace runs
// become single dashes.
func SanitizeBaseName(name string) string {
	cleaned := unsafeChars.Replace(FoldDiacritics(name))
	var parts []string
	for _, word := range strings.Fields(cleaned) {
		if word = strings.Trim(word, "-"); word != "" {
			parts = append(parts, word)
		}
	}
	stem := strings.Trim(collapseDashes(strings.Join(parts, "-")), ".-_")
	if stem == "" {
		return FallbackBaseName
	}
	return stem
}

func collapseDashes(s string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range s {
		if r == '-' && prev == '-' {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// Title upper-cases the first letter of each word.
func Title(value string) string {
	return titleCaser.String(strings.TrimSpace(value))
}
