package genesis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Tokenizer classifies Genesis source one line at a time. It holds no
// per-document state: the LexerState is passed in and returned, so one
// Tokenizer can serve any number of documents concurrently.
type Tokenizer struct {
	grammar Grammar
	clock   func() time.Time
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithDiagnosticClock stamps each LineResult produced by TokenizeReader with
// the clock's reading. The stamp never affects classification.
func WithDiagnosticClock(clock func() time.Time) Option {
	return func(t *Tokenizer) {
		t.clock = clock
	}
}

// NewTokenizer creates a tokenizer for one grammar variant.
func NewTokenizer(g Grammar, opts ...Option) *Tokenizer {
	t := &Tokenizer{grammar: g}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Grammar returns the grammar the tokenizer was built with.
func (t *Tokenizer) Grammar() Grammar {
	return t.grammar
}

// TokenizeLine classifies one line (without its terminator) starting in the
// given state. The returned tokens cover the line exactly, in order. An empty
// line yields no tokens and leaves the state unchanged. It never fails.
func (t *Tokenizer) TokenizeLine(state LexerState, lineNo int, line string) ([]Token, LexerState) {
	if line == "" {
		return nil, state
	}

	s := &lineScanner{
		g:      t.grammar,
		line:   line,
		lineNo: lineNo,
		state:  state,
	}
	switch t.grammar.Variant {
	case VariantRegistration:
		s.scanRegistration()
	default:
		s.scanBracket()
	}
	return s.tokens, s.state
}

// TokenizeDocument tokenizes every line of text starting from TopLevel and
// returns the tokens per line plus the state after the last line.
func (t *Tokenizer) TokenizeDocument(text string) ([][]Token, LexerState) {
	lines := SplitLines(text)
	out := make([][]Token, len(lines))
	state := TopLevel
	for i, line := range lines {
		out[i], state = t.TokenizeLine(state, i, line)
	}
	return out, state
}

// LineResult is one line of a streamed tokenization.
type LineResult struct {
	Line   int
	Text   string
	Tokens []Token
	// State is the lexer state after this line.
	State LexerState
	// TokenizedAt is only set when the tokenizer has a diagnostic clock.
	TokenizedAt time.Time
}

// TokenizeReader streams r line by line starting from TopLevel and calls fn
// for each line in document order. Lines are split exactly as SplitLines
// splits them. It only fails on read errors, on ctx cancellation or when fn
// returns an error; the content itself can never cause a failure.
func (t *Tokenizer) TokenizeReader(ctx context.Context, r io.Reader, fn func(LineResult) error) (LexerState, error) {
	br := bufio.NewReader(r)
	state := TopLevel
	for lineNo := 0; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		raw, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return state, fmt.Errorf("reading line %d: %w", lineNo, readErr)
		}

		text := trimTerminator(raw)
		var tokens []Token
		tokens, state = t.TokenizeLine(state, lineNo, text)

		res := LineResult{Line: lineNo, Text: text, Tokens: tokens, State: state}
		if t.clock != nil {
			res.TokenizedAt = t.clock()
		}
		if err := fn(res); err != nil {
			return state, err
		}

		if readErr != nil {
			return state, nil
		}
	}
}

// SplitLines splits text on \n and drops a \r preceding each \n. A trailing
// newline produces a final empty line, so "" is one empty line.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines)-1; i++ {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

func trimTerminator(raw string) string {
	if strings.HasSuffix(raw, "\n") {
		return strings.TrimSuffix(raw[:len(raw)-1], "\r")
	}
	return raw
}

// lineScanner walks a single line. pos only moves forward through emit, which
// is what guarantees the tokens tile the line.
type lineScanner struct {
	g      Grammar
	line   string
	lineNo int
	pos    int
	state  LexerState
	tokens []Token
}

func (s *lineScanner) emit(end int, c Category) {
	if end <= s.pos {
		return
	}
	s.tokens = append(s.tokens, Token{
		Span:     Span{Line: s.lineNo, Start: s.pos, End: end},
		Category: c,
		Value:    s.line[s.pos:end],
	})
	s.pos = end
}

// scanEnvelope consumes envelope content up to and including the close
// delimiter, or to the end of the line if there is none.
func (s *lineScanner) scanEnvelope() {
	idx := strings.Index(s.line[s.pos:], s.g.Close)
	if idx < 0 {
		s.emit(len(s.line), EnvelopeContent)
		return
	}
	s.emit(s.pos+idx, EnvelopeContent)
	s.emit(s.pos+len(s.g.Close), EnvelopeClose)
	s.state = TopLevel
}

func (s *lineScanner) scanBracket() {
	if s.state == TopLevel && s.line[0] == s.g.Marker {
		if strings.TrimSpace(s.line[1:]) == "" {
			s.emit(len(s.line), MarkerInactive)
			return
		}
		s.emit(1, MarkerActive)
	}

	for s.pos < len(s.line) {
		if s.state == InsideEnvelope {
			s.scanEnvelope()
			continue
		}

		rest := s.line[s.pos:]
		switch {
		case strings.HasPrefix(rest, s.g.Open):
			s.emit(s.pos+len(s.g.Open), EnvelopeOpen)
			s.state = InsideEnvelope
		case strings.HasPrefix(rest, s.g.Close):
			// unbalanced close; classified but the state is left alone
			s.emit(s.pos+len(s.g.Close), EnvelopeClose)
		case rest[0] == s.g.Marker:
			s.emit(s.pos+1, MarkerInactive)
		default:
			s.emit(s.pos+s.nextSymbol(rest, true), AtomContent)
		}
	}
}

func (s *lineScanner) scanRegistration() {
	class := s.registrationClass()

	for s.pos < len(s.line) {
		if s.state == InsideEnvelope {
			s.scanEnvelope()
			continue
		}

		rest := s.line[s.pos:]
		switch {
		case strings.HasPrefix(rest, s.g.Open):
			s.emit(s.pos+len(s.g.Open), EnvelopeOpen)
			s.state = InsideEnvelope
		case strings.HasPrefix(rest, s.g.Close):
			s.emit(s.pos+len(s.g.Close), EnvelopeClose)
		default:
			s.emit(s.pos+s.nextSymbol(rest, false), class)
		}
	}
}

// registrationClass decides the category of every non-delimiter run on the
// line. Comment wins over Registration for lines free of # and ~.
func (s *lineScanner) registrationClass() Category {
	hasMarker := strings.IndexByte(s.line, s.g.Marker) >= 0
	hasHash := strings.IndexByte(s.line, commentHash) >= 0
	switch {
	case !hasMarker && !hasHash:
		return Comment
	case s.line[0] == s.g.Marker || !hasMarker:
		return Registration
	default:
		return AtomContent
	}
}

// nextSymbol returns the offset in rest of the first delimiter (and marker,
// when withMarker is set) after rest[0], or len(rest). rest[0] itself is
// known not to start a symbol.
func (s *lineScanner) nextSymbol(rest string, withMarker bool) int {
	end := len(rest)
	tail := rest[1:]
	if i := strings.Index(tail, s.g.Open); i >= 0 && i+1 < end {
		end = i + 1
	}
	if i := strings.Index(tail, s.g.Close); i >= 0 && i+1 < end {
		end = i + 1
	}
	if withMarker {
		if i := strings.IndexByte(tail, s.g.Marker); i >= 0 && i+1 < end {
			end = i + 1
		}
	}
	return end
}
