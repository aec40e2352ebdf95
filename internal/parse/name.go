package parse

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Glyphs that went through a UTF-8 -> Windows-1252 round trip, e.g. "├─"
	// saved as "â”œâ”€" and "📦" saved as "ðŸ“¦".
	mojibakeRe = regexp.MustCompile(`^(?:â[”•].|ðŸ..)`)
	// "[3 components]" or "(3 components)" at the end of a name.
	componentsRe = regexp.MustCompile(`(?i)\s*[\[(]\s*\d+\s+components?\s*[\])]\s*$`)
	// "Speaker Stand (SN-001)": the last parenthesised segment.
	parentRefRe = regexp.MustCompile(`^(.*)\(([^()]*)\)\s*$`)
)

// CleanName undoes the decoration added by the hierarchical exports: leading
// indentation, tree connectors, icons and a trailing component count.
func CleanName(raw string) string {
	s := raw
	for {
		next := strings.TrimLeftFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || isGlyph(r)
		})
		if loc := mojibakeRe.FindStringIndex(next); loc != nil {
			next = next[loc[1]:]
		}
		if next == s {
			break
		}
		s = next
	}
	s = componentsRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// isGlyph reports runes used as tree connectors or icons.
func isGlyph(r rune) bool {
	switch {
	case r >= 0x2500 && r <= 0x257F: // box drawing
		return true
	case r == 0xFE0F, r == 0x200D: // emoji presentation, zero width joiner
		return true
	case unicode.Is(unicode.So, r):
		return true
	}
	return false
}

// IsRootReference reports whether a parent reference means "no parent".
func IsRootReference(ref string) bool {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case "", "none", "top level":
		return true
	}
	return false
}

// ParentSerial extracts the serial number from a parent reference. For
// "Name (SERIAL)" it returns SERIAL, otherwise the whole trimmed text.
func ParentSerial(ref string) string {
	s := strings.TrimSpace(ref)
	if m := parentRefRe.FindStringSubmatch(s); m != nil {
		if serial := strings.TrimSpace(m[2]); serial != "" {
			return serial
		}
	}
	return s
}

// NormalizeHeader lower-cases a column header and drops everything that is
// not a letter or digit, so "Serial_Number" and "serial number" both become
// "serialnumber".
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
