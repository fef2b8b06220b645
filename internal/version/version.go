// Package version orders Titanium SDK and module version strings.
//
// Versions are dot-separated numeric segments optionally followed by a
// release qualifier chain such as ".GA", ".RC" or ".v20180207150313". The
// qualifier is ignored for ordering, so "7.0.0.GA" and "7.0.0" compare equal
// and "7.10.0" sorts after "7.9.0".
package version

import (
	"regexp"
	"strconv"
	"strings"
)

// ReleaseQualifier is the qualifier appended to generally-available releases.
const ReleaseQualifier = "GA"

var leadingDigits = regexp.MustCompile(`^\d+`)

// Compare returns -1, 0 or 1 when a is older than, equal to or newer than b.
// An empty version sorts before any real version.
func Compare(a, b string) int {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)

	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	as := segments(a)
	bs := segments(b)

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// CompareReverse orders newest first.
func CompareReverse(a, b string) int {
	return Compare(b, a)
}

// CompareTimestamp orders compact timestamps (e.g. "20180207150313")
// lexically.
func CompareTimestamp(a, b string) int {
	return strings.Compare(a, b)
}

// StripQualifier removes the trailing qualifier chain, returning only the
// numeric part: "7.1.0.GA" -> "7.1.0", "7.1.0.v20180207" -> "7.1.0".
func StripQualifier(v string) string {
	v = strings.TrimSpace(v)
	parts := strings.Split(v, ".")
	for i, p := range parts {
		if !isNumeric(p) {
			if i == 0 {
				return v
			}
			return strings.Join(parts[:i], ".")
		}
	}
	return v
}

// WithQualifier appends the GA release qualifier to v unless it already
// carries one.
func WithQualifier(v string) string {
	if StripQualifier(v) != v {
		return v
	}
	return v + "." + ReleaseQualifier
}

// Max returns the newest version in vs. Versions comparing equal are broken
// by plain string order so the pick is deterministic.
func Max(vs []string) string {
	var best string
	for i, v := range vs {
		if i == 0 {
			best = v
			continue
		}
		if c := Compare(v, best); c > 0 || (c == 0 && v > best) {
			best = v
		}
	}
	return best
}

// segments parses the numeric segments that precede any qualifier. A
// segment like "0-beta" contributes its leading digits.
func segments(v string) []int {
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
	var out []int
	for _, p := range strings.Split(v, ".") {
		digits := leadingDigits.FindString(p)
		if digits == "" {
			break
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			break
		}
		out = append(out, n)
		if len(digits) != len(p) {
			break
		}
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
