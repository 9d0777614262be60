package update

import (
	"strconv"
	"strings"
)

// Version is a dotted numeric version. Comparison is positional; a
// missing component counts as zero.
type Version []int

// ParseVersion parses a dotted version string, tolerating a leading "v".
// Anything unparseable comes back as the zero version, which never
// compares newer than a real one.
func ParseVersion(s string) Version {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return Version{0, 0, 0}
	}
	parts := strings.Split(s, ".")
	v := make(Version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{0, 0, 0}
		}
		v = append(v, n)
	}
	return v
}

// Compare returns -1, 0, or 1 as v sorts before, equal to, or after o.
func (v Version) Compare(o Version) int {
	n := len(v)
	if len(o) > n {
		n = len(o)
	}
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v) {
			a = v[i]
		}
		if i < len(o) {
			b = o[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

// String returns the dotted form.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// IsNewer reports whether latest is strictly newer than current.
func IsNewer(latest, current string) bool {
	return ParseVersion(latest).Compare(ParseVersion(current)) > 0
}
