// Package nameutil validates project slugs and cleans server-supplied text
// before it reaches the terminal or the filesystem.
package nameutil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateSlug checks whether slug can name an install directory. It must be
// valid UTF-8 without control characters or path separators, and must not
// start with a dot: dot names inside an install root belong to bhub itself.
func ValidateSlug(slug string) error {
	if strings.TrimSpace(slug) == "" {
		return fmt.Errorf("invalid slug: slug cannot be empty")
	}
	if slug != strings.TrimSpace(slug) {
		return fmt.Errorf("invalid slug %q: surrounding whitespace", slug)
	}
	if !utf8.ValidString(slug) {
		return fmt.Errorf("invalid slug: contains invalid encoding")
	}
	if strings.HasPrefix(slug, ".") {
		return fmt.Errorf("invalid slug %q: leading dot", slug)
	}
	for _, r := range slug {
		if unicode.IsControl(r) {
			return fmt.Errorf("invalid slug: contains control character U+%04X (%q)", r, r)
		}
		if r == '/' || r == '\\' || r == ':' {
			return fmt.Errorf("invalid slug %q: contains %q", slug, r)
		}
	}
	return nil
}

// SanitizeName removes common invisible/control characters and returns the
// sanitized string and a boolean indicating whether any change was made.
// Catalog names and descriptions pass through here before they are printed,
// so a hostile entry cannot emit terminal escape sequences. Newlines become
// spaces.
func SanitizeName(name string) (string, bool) {
	if name == "" {
		return name, false
	}
	runes := []rune(name)
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		if r == '\n' || r == '\t' {
			out = append(out, ' ')
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		// zero-width and other invisible separators
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			continue
		}
		out = append(out, r)
	}
	res := strings.TrimSpace(string(out))
	return res, res != name
}

// Clean is SanitizeName without the change flag.
func Clean(s string) string {
	out, _ := SanitizeName(s)
	return out
}
