package patterns

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPrefix   = errors.New("no address given")
	ErrPrefixTooLong = errors.New("prefix longer than address")
	ErrPrefixCharset = errors.New("prefix must contain only hex characters")
)

// MatchPrefix reports whether the first len(wanted) characters of the
// hex address equal wanted, ignoring case.
func MatchPrefix(address, wanted string) bool {
	if len(wanted) > len(address) {
		return false
	}
	return strings.ToUpper(address[:len(wanted)]) == strings.ToUpper(wanted)
}

// Prefix is a validated, uppercased prefix for the worker hot path.
type Prefix struct {
	want []byte
}

// NewPrefix validates p against an address encoding of width hex
// characters.
func NewPrefix(p string, width int) (Prefix, error) {
	if p == "" {
		return Prefix{}, ErrEmptyPrefix
	}
	if len(p) > width {
		return Prefix{}, fmt.Errorf("%w: %d > %d characters", ErrPrefixTooLong, len(p), width)
	}
	up := strings.ToUpper(p)
	for i := 0; i < len(up); i++ {
		c := up[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return Prefix{}, fmt.Errorf("%w: %q at position %d", ErrPrefixCharset, c, i)
		}
	}
	return Prefix{want: []byte(up)}, nil
}

func (p Prefix) String() string { return string(p.want) }
func (p Prefix) Len() int       { return len(p.want) }

// Match reports whether the uppercase hex address starts with p.
func (p Prefix) Match(encoded []byte) bool {
	if len(encoded) < len(p.want) {
		return false
	}
	for i, c := range p.want {
		if encoded[i] != c {
			return false
		}
	}
	return true
}
