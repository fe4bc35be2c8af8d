// Package genesis implements the lexical grammar of the Genesis markup
// language: a line tokenizer with explicit carried state, a completion
// provider and the colour theme that maps token categories to styles.
package genesis

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is returned by ParseCategory for names outside the closed set.
var ErrUnknownCategory = errors.New("unknown token category")

// Category classifies a span of text for styling.
type Category uint8

const (
	MarkerActive    Category = iota // ~ opening a line with content
	MarkerInactive                  // ~ on an otherwise empty line, or a stray ~
	AtomContent                     // plain text at top level
	EnvelopeOpen                    // [ or ##
	EnvelopeClose                   // ] or closet
	EnvelopeContent                 // text inside an envelope
	Registration                    // registration line (registration grammar)
	Comment                         // line without symbols (registration grammar)
)

// categoryNames are the theme token names; they must stay stable because
// hosts key their style rules on them.
var categoryNames = [...]string{
	MarkerActive:    "atom.marker.active",
	MarkerInactive:  "atom.marker.inactive",
	AtomContent:     "atom.content",
	EnvelopeOpen:    "envelope.open",
	EnvelopeClose:   "envelope.close",
	EnvelopeContent: "envelope.content",
	Registration:    "registration",
	Comment:         "comment",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryNames))
	for i := range categoryNames {
		out[i] = Category(i)
	}
	return out
}

// String returns the dotted theme name of the category.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// LexerState is the only state carried from one line to the next.
type LexerState uint8

const (
	TopLevel LexerState = iota
	InsideEnvelope
)

func (s LexerState) String() string {
	switch s {
	case TopLevel:
		return "TopLevel"
	case InsideEnvelope:
		return "InsideEnvelope"
	default:
		return "UNKNOWN"
	}
}

// Span is a half-open byte range [Start, End) on a single line.
type Span struct {
	Line  int
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (s Span) Len() int { return s.End - s.Start }

// Token is one classified span of a line.
type Token struct {
	Span     Span
	Category Category
	Value    string
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%d-%d %s %q", t.Span.Line, t.Span.Start, t.Span.End, t.Category, t.Value)
}
