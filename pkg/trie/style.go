package trie

import (
	"fmt"
	"strings"
)

// Style selects how completions are ordered.
type Style int

const (
	// Lexicographical orders completions ascending by rune order.
	Lexicographical Style = iota
	// Frequency orders completions by descending insert count, ties broken
	// lexicographically.
	Frequency
)

// String returns the config and wire name of the style.
func (s Style) String() string {
	switch s {
	case Lexicographical:
		return "lexicographical"
	case Frequency:
		return "frequency"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle accepts the names returned by String plus the short forms
// "lex" and "freq".
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lexicographical", "lex", "alpha":
		return Lexicographical, nil
	case "frequency", "freq":
		return Frequency, nil
	default:
		return Lexicographical, fmt.Errorf("unknown completion style %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler so styles can be written to
// TOML config files.
func (s Style) MarshalText() ([]byte, error) {
	switch s {
	case Lexicographical, Frequency:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown completion style %d", int(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	style, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = style
	return nil
}
