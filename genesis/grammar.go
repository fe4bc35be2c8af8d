package genesis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariant is returned by ParseVariant.
var ErrUnknownVariant = errors.New("unknown grammar variant")

// Variant selects one of the two lexical definitions of the language.
// They are never combined in a single tokenizer.
type Variant uint8

const (
	// VariantBracket is the marker/envelope grammar: ~ lines and [ ] envelopes.
	VariantBracket Variant = iota
	// VariantRegistration is the registration/comment grammar: ## ... closet envelopes.
	VariantRegistration
)

func (v Variant) String() string {
	switch v {
	case VariantBracket:
		return "bracket"
	case VariantRegistration:
		return "registration"
	default:
		return "unknown"
	}
}

// ParseVariant accepts the names produced by Variant.String.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bracket":
		return VariantBracket, nil
	case "registration":
		return VariantRegistration, nil
	default:
		return 0, fmt.Errorf("%w: %q (use bracket or registration)", ErrUnknownVariant, name)
	}
}

// Grammar holds the lexical symbols of one variant. Values are immutable
// once built; share them freely.
type Grammar struct {
	Variant Variant
	Marker  byte
	Open    string
	Close   string
}

const (
	markerChar  = '~'
	commentHash = '#'
)

var (
	// BracketGrammar is the default grammar.
	BracketGrammar = Grammar{Variant: VariantBracket, Marker: markerChar, Open: "[", Close: "]"}

	// RegistrationGrammar uses the keyword delimiters ## and closet.
	RegistrationGrammar = Grammar{Variant: VariantRegistration, Marker: markerChar, Open: "##", Close: "closet"}
)

// NewGrammar returns the grammar for a variant.
func NewGrammar(v Variant) (Grammar, error) {
	switch v {
	case VariantBracket:
		return BracketGrammar, nil
	case VariantRegistration:
		return RegistrationGrammar, nil
	default:
		return Grammar{}, fmt.Errorf("%w: %d", ErrUnknownVariant, v)
	}
}

// MarkerString returns the marker as a string.
func (g Grammar) MarkerString() string { return string(g.Marker) }
