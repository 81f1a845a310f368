// Package resolve locates imported modules on disk and classifies
// specifiers that name external resources.
package resolve

import (
	"regexp"
	"slices"
	"strings"
)

// DefaultLegacySchemes are the schemes treated as legacy when Schemes.Legacy
// is nil.
var DefaultLegacySchemes = []string{"node"}

// A scheme is at least two characters so that Windows drive letters are
// not mistaken for one.
var schemePattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]+):`)

// HasScheme reports whether specifier starts with a URL-style scheme, which
// marks it as loaded at run time instead of bundled.
func HasScheme(specifier string) bool {
	return schemePattern.MatchString(specifier)
}

// Scheme returns the lower-cased scheme of specifier, or "".
func Scheme(specifier string) string {
	m := schemePattern.FindStringSubmatch(specifier)
	if m == nil {
		return ""
	}

	return strings.ToLower(m[1])
}

// Schemes classifies external specifiers.
type Schemes struct {
	// Legacy lists the schemes whose modules load through the legacy
	// loader. Nil means DefaultLegacySchemes.
	Legacy []string
}

func (s Schemes) legacy() []string {
	if s.Legacy == nil {
		return DefaultLegacySchemes
	}

	return s.Legacy
}

// IsLegacy reports whether specifier uses a legacy scheme.
func (s Schemes) IsLegacy(specifier string) bool {
	scheme := Scheme(specifier)
	if scheme == "" {
		return false
	}

	return slices.ContainsFunc(s.legacy(), func(l string) bool {
		return strings.EqualFold(l, scheme)
	})
}

// Strip removes the scheme prefix of specifier.
func (s Schemes) Strip(specifier string) string {
	if m := schemePattern.FindStringIndex(specifier); m != nil {
		return specifier[m[1]:]
	}

	return specifier
}
