package genesis

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SuggestionKind mirrors the editor-side kind of a completion item.
type SuggestionKind uint8

const (
	KindKeyword SuggestionKind = iota
	KindSnippet
)

func (k SuggestionKind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindSnippet:
		return "snippet"
	default:
		return "unknown"
	}
}

func (k SuggestionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CompletionSuggestion is one entry of the static suggestion table.
type CompletionSuggestion struct {
	Label         string         `json:"label" yaml:"label"`
	Kind          SuggestionKind `json:"kind" yaml:"kind"`
	InsertText    string         `json:"insertText" yaml:"insert_text"`
	Documentation string         `json:"documentation" yaml:"documentation"`
}

// Range is the text a suggestion replaces: byte columns [Start, End) on Line.
type Range = Span

// CompletionProvider answers completion requests from a fixed table built
// from the grammar symbols. It is safe for concurrent use.
type CompletionProvider struct {
	suggestions []CompletionSuggestion
}

// NewCompletionProvider builds the suggestion table for a grammar. The
// envelope and registration-line snippets are always present; the bracket
// grammar adds its inline envelope.
func NewCompletionProvider(g Grammar) *CompletionProvider {
	suggestions := []CompletionSuggestion{
		{
			Label:         RegistrationGrammar.Open,
			Kind:          KindKeyword,
			InsertText:    RegistrationGrammar.Open + " \n" + RegistrationGrammar.Close,
			Documentation: "Create an envelope",
		},
		{
			Label:         g.MarkerString(),
			Kind:          KindKeyword,
			InsertText:    g.MarkerString() + " ",
			Documentation: "Create a registration line",
		},
	}
	if g.Variant == VariantBracket {
		suggestions = append(suggestions, CompletionSuggestion{
			Label:         g.Open,
			Kind:          KindSnippet,
			InsertText:    g.Open + g.Close,
			Documentation: "Create an inline envelope",
		})
	}
	return &CompletionProvider{suggestions: suggestions}
}

// Suggestions returns a copy of the full table.
func (p *CompletionProvider) Suggestions() []CompletionSuggestion {
	out := make([]CompletionSuggestion, len(p.suggestions))
	copy(out, p.suggestions)
	return out
}

// Complete returns the suggestions whose label starts with fragment. An
// empty fragment matches everything; anything else, including a fragment
// that runs past a label, yields an empty, non-nil list.
func (p *CompletionProvider) Complete(fragment string) []CompletionSuggestion {
	out := make([]CompletionSuggestion, 0, len(p.suggestions))
	for _, s := range p.suggestions {
		if strings.HasPrefix(s.Label, fragment) {
			out = append(out, s)
		}
	}
	return out
}

// CompleteAt extracts the fragment before a cursor and completes it. column
// is a rune column, clamped to the line; the returned range covers the
// fragment so the editor knows what to replace.
func (p *CompletionProvider) CompleteAt(lineNo int, line string, column int) ([]CompletionSuggestion, Range) {
	fragment, start, end := FragmentAt(line, column)
	return p.Complete(fragment), Range{Line: lineNo, Start: start, End: end}
}

// FragmentAt returns the run of non-whitespace immediately before the rune
// column, and its byte bounds.
func FragmentAt(line string, column int) (fragment string, start, end int) {
	end = byteOffset(line, column)
	start = end
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if unicode.IsSpace(r) {
			break
		}
		start -= size
	}
	return line[start:end], start, end
}

func byteOffset(line string, column int) int {
	if column <= 0 {
		return 0
	}
	n := 0
	for i := range line {
		if n == column {
			return i
		}
		n++
	}
	return len(line)
}
