// pkg/version/packed.go - ordered packed encoding of dotted version strings.

package version

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// A version string packs into a single uint64, sixteen bits per component,
// so that numeric component-wise order is preserved: "1.2.10" > "1.2.3" and
// "1.10.0" > "1.9.9". Lexical comparison of the raw strings would get both
// of these wrong.
const (
	maxComponents  = 4
	componentBits  = 16
	componentLimit = 1 << componentBits
)

// Packed is a totally-ordered integer encoding of a dotted version string.
type Packed uint64

// ParseError reports a version string that is not a dot-delimited sequence
// of non-negative integers. Parsing never falls back to a best-effort guess.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version string %q: %s", e.Input, e.Reason)
}

// Parse converts a dotted version string into its Packed form. Components
// beyond the fourth or not representable in sixteen bits are an explicit
// error, never truncated.
func Parse(s string) (Packed, error) {
	if s == "" {
		return 0, &ParseError{Input: s, Reason: "empty string"}
	}
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			return 0, &ParseError{Input: s, Reason: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	v, err := goversion.NewVersion(s)
	if err != nil {
		return 0, &ParseError{Input: s, Reason: err.Error()}
	}

	segments := v.Segments64()
	if len(segments) > maxComponents {
		return 0, &ParseError{Input: s, Reason: fmt.Sprintf("more than %d components", maxComponents)}
	}

	var packed Packed
	for i, seg := range segments {
		if seg < 0 || seg >= componentLimit {
			return 0, &ParseError{Input: s, Reason: fmt.Sprintf("component %d out of range", seg)}
		}
		shift := uint((maxComponents - 1 - i) * componentBits)
		packed |= Packed(seg) << shift
	}
	return packed, nil
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func Compare(a, b Packed) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareStrings parses both version strings and compares them. A parse
// failure on either side is a hard error.
func CompareStrings(a, b string) (int, error) {
	pa, err := Parse(a)
	if err != nil {
		return 0, err
	}
	pb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return Compare(pa, pb), nil
}

// String renders the packed value back as a dotted version string.
func (p Packed) String() string {
	parts := make([]string, maxComponents)
	for i := 0; i < maxComponents; i++ {
		shift := uint((maxComponents - 1 - i) * componentBits)
		parts[i] = fmt.Sprintf("%d", (p>>shift)&(componentLimit-1))
	}
	return strings.Join(parts, ".")
}
