package query

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Value is a single query value.
//
// A normalized Value is trimmed and case folded, and equals a target when it
// occurs anywhere inside the case-folded target. An exact Value equals a
// target byte for byte. Neither kind ever equals an empty target, so Equal
// is not symmetric and !Equal does not mean "different".
type Value struct {
	s     string
	exact bool
}

// Normalized returns the normalized Value for s.
func Normalized(s string) Value {
	return Value{s: fold(strings.TrimSpace(s))}
}

// Exact returns a Value compared byte for byte.
func Exact(s string) Value {
	return Value{s: s, exact: true}
}

// Equal reports whether v matches target.
func (v Value) Equal(target string) bool {
	if target == "" {
		return false
	}
	if v.exact {
		return v.s == target
	}
	return strings.Contains(fold(target), v.s)
}

// Any reports whether v matches any of targets.
func (v Value) Any(targets ...string) bool {
	for _, t := range targets {
		if v.Equal(t) {
			return true
		}
	}
	return false
}

// Int returns the value as a number when it consists of ASCII digits only.
func (v Value) Int() (int, bool) {
	if v.s == "" {
		return 0, false
	}
	for _, r := range v.s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(v.s)
	return n, err == nil
}

// IsExact reports whether v is compared byte for byte.
func (v Value) IsExact() bool { return v.exact }

func (v Value) String() string { return v.s }

// fold allocates a Caser per call: Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
