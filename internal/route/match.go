package route

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NotFound is returned by the resolvers when no station matches.
const NotFound = -1

// Resolve maps a free-text station label onto an index of r. A candidate
// matches when either lower-cased string contains the other or both agree on
// the part before the first comma; the first match in route order wins.
func Resolve(label string, r *Route) int {
	raw := normalize(label)
	if raw == "" || r == nil {
		return NotFound
	}
	for i, s := range r.stations {
		if matches(raw, normalize(s.Name)) {
			return i
		}
	}
	return NotFound
}

// ResolveTerminal reports whether label matches the terminal station of r,
// considering only that one candidate.
func ResolveTerminal(label string, r *Route) bool {
	raw := normalize(label)
	if raw == "" || r == nil || r.Len() == 0 {
		return false
	}
	return matches(raw, normalize(r.Terminal().Name))
}

// ResolveCode maps a three-letter station code onto an index of r.
func ResolveCode(code string, r *Route) int {
	code = strings.TrimSpace(code)
	if code == "" || r == nil {
		return NotFound
	}
	for i, s := range r.stations {
		if strings.EqualFold(s.Code, code) {
			return i
		}
	}
	return NotFound
}

func matches(raw, candidate string) bool {
	if candidate == "" {
		return false
	}
	if strings.Contains(candidate, raw) || strings.Contains(raw, candidate) {
		return true
	}
	return beforeComma(raw) == beforeComma(candidate)
}

func beforeComma(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.TrimSpace(folded)
}
