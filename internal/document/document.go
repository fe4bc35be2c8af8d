// Package document keeps the token stream of a whole Genesis buffer in sync
// with edits. Lines are re-tokenized top to bottom; an untouched line reached
// in the same incoming state as before keeps its previous tokens.
package document

import (
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/magnusknutas/genesis/genesis"
	"github.com/magnusknutas/genesis/internal/log"
)

// LineTokenizer is satisfied by *genesis.Tokenizer and *linecache.Cache.
type LineTokenizer interface {
	Grammar() genesis.Grammar
	TokenizeLine(state genesis.LexerState, lineNo int, line string) ([]genesis.Token, genesis.LexerState)
}

// Change describes the work an edit caused.
type Change struct {
	// Lines is the line count after the edit.
	Lines int
	// Retokenized counts lines that went through the tokenizer; the rest
	// were reused.
	Retokenized int
}

// Document is one buffer. Methods are safe for concurrent use; edits are
// serialized.
type Document struct {
	mu        sync.RWMutex
	tokenizer LineTokenizer
	lines     []string
	tokens    [][]genesis.Token
	// states[i] is the lexer state after line i.
	states []genesis.LexerState
}

// New tokenizes text from TopLevel.
func New(t LineTokenizer, text string) *Document {
	d := &Document{tokenizer: t}
	d.Reload(text)
	return d
}

// Reload discards all results and tokenizes text from scratch.
func (d *Document) Reload(text string) Change {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines := genesis.SplitLines(text)
	origin := make([]int, len(lines))
	for i := range origin {
		origin[i] = -1
	}
	d.lines, d.tokens, d.states = nil, nil, nil
	return d.apply(lines, origin)
}

// Replace diffs text against the current buffer and re-tokenizes only what
// the edit can affect.
func (d *Document) Replace(text string) Change {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines := genesis.SplitLines(text)
	return d.apply(lines, diffOrigin(d.lines, lines))
}

// apply installs the new lines. origin[i] is the old index line i was
// carried over from, or -1.
func (d *Document) apply(lines []string, origin []int) Change {
	tokens := make([][]genesis.Token, len(lines))
	states := make([]genesis.LexerState, len(lines))

	change := Change{Lines: len(lines)}
	state := genesis.TopLevel
	for i, line := range lines {
		if j := origin[i]; j >= 0 && d.incomingState(j) == state {
			tokens[i] = relocate(d.tokens[j], i)
			state = d.states[j]
			states[i] = state
			continue
		}
		tokens[i], state = d.tokenizer.TokenizeLine(state, i, line)
		states[i] = state
		change.Retokenized++
	}

	d.lines, d.tokens, d.states = lines, tokens, states
	log.Debug(log.CatDoc, "applied edit", "lines", change.Lines, "retokenized", change.Retokenized)
	return change
}

func (d *Document) incomingState(j int) genesis.LexerState {
	if j == 0 {
		return genesis.TopLevel
	}
	return d.states[j-1]
}

// diffOrigin maps each new line onto the old line it is an unchanged copy of.
func diffOrigin(oldLines, newLines []string) []int {
	origin := make([]int, len(newLines))
	for i := range origin {
		origin[i] = -1
	}
	if len(oldLines) == 0 {
		return origin
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(joinLines(oldLines), joinLines(newLines))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	oldIdx, newIdx := 0, 0
	for _, diff := range diffs {
		n := strings.Count(diff.Text, "\n")
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			for k := 0; k < n && newIdx < len(origin); k++ {
				origin[newIdx] = oldIdx
				oldIdx++
				newIdx++
			}
		case diffmatchpatch.DiffInsert:
			newIdx += n
		case diffmatchpatch.DiffDelete:
			oldIdx += n
		}
	}
	return origin
}

// joinLines terminates every line so the last one diffs like the others.
func joinLines(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

func relocate(tokens []genesis.Token, lineNo int) []genesis.Token {
	if tokens == nil {
		return nil
	}
	out := make([]genesis.Token, len(tokens))
	copy(out, tokens)
	for i := range out {
		out[i].Span.Line = lineNo
	}
	return out
}

// Text returns the buffer with \n line endings.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.Join(d.lines, "\n")
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// Line returns the text of line i.
func (d *Document) Line(i int) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.lines) {
		return "", false
	}
	return d.lines[i], true
}

// Tokens returns a copy of the tokens of line i.
func (d *Document) Tokens(i int) ([]genesis.Token, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.tokens) {
		return nil, false
	}
	return relocate(d.tokens[i], i), true
}

// AllTokens returns a copy of every line's tokens.
func (d *Document) AllTokens() [][]genesis.Token {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([][]genesis.Token, len(d.tokens))
	for i, t := range d.tokens {
		out[i] = relocate(t, i)
	}
	return out
}

// EndState returns the lexer state after line i.
func (d *Document) EndState(i int) (genesis.LexerState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.states) {
		return genesis.TopLevel, false
	}
	return d.states[i], true
}

// FinalState is the state after the last line; InsideEnvelope means the
// buffer ends in an unterminated envelope.
func (d *Document) FinalState() genesis.LexerState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.states) == 0 {
		return genesis.TopLevel
	}
	return d.states[len(d.states)-1]
}

// Unterminated returns the line of the envelope left open at the end of the
// buffer, if any.
func (d *Document) Unterminated() (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.states) == 0 || d.states[len(d.states)-1] != genesis.InsideEnvelope {
		return 0, false
	}
	for i := len(d.states) - 1; i >= 0; i-- {
		if i == 0 || d.states[i-1] == genesis.TopLevel {
			return i, true
		}
	}
	return 0, true
}
