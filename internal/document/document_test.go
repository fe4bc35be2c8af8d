package document

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/magnusknutas/genesis/genesis"
	"github.com/magnusknutas/genesis/internal/linecache"
)

func fresh(t genesis.Grammar, text string) [][]genesis.Token {
	tokens, _ := genesis.NewTokenizer(t).TokenizeDocument(text)
	return tokens
}

func TestDocument_New(t *testing.T) {
	doc := New(genesis.NewTokenizer(genesis.BracketGrammar), "~ a [b\nc] d\n~")

	assert.Equal(t, 3, doc.LineCount())
	assert.Equal(t, fresh(genesis.BracketGrammar, "~ a [b\nc] d\n~"), doc.AllTokens())

	state, ok := doc.EndState(0)
	require.True(t, ok)
	assert.Equal(t, genesis.InsideEnvelope, state)
	assert.Equal(t, genesis.TopLevel, doc.FinalState())

	_, ok = doc.Tokens(3)
	assert.False(t, ok)
}

func TestDocument_Replace_ReusesLinesAfterResync(t *testing.T) {
	doc := New(genesis.NewTokenizer(genesis.BracketGrammar), "one\ntwo\nthree\nfour\nfive")

	change := doc.Replace("one\nTWO\nthree\nfour\nfive")
	assert.Equal(t, 1, change.Retokenized)
	assert.Equal(t, "one\nTWO\nthree\nfour\nfive", doc.Text())
}

func TestDocument_Replace_OpeningEnvelopeCascades(t *testing.T) {
	doc := New(genesis.NewTokenizer(genesis.BracketGrammar), "a\nb\nc] d\ne")

	change := doc.Replace("a [\nb\nc] d\ne")
	assert.Equal(t, 3, change.Retokenized, "b and c] change state, e resyncs")

	tokens, _ := doc.Tokens(1)
	assert.Equal(t, genesis.EnvelopeContent, tokens[0].Category)
	assert.Equal(t, fresh(genesis.BracketGrammar, doc.Text()), doc.AllTokens())
}

func TestDocument_Replace(t *testing.T) {
	doc := New(genesis.NewTokenizer(genesis.BracketGrammar), "keep\n~ marker\n[open\nclose]\ntail")

	change := doc.Replace("keep\ninserted\n~ marker\n[open\nclose]\ntail")
	assert.Equal(t, 6, change.Lines)
	assert.Equal(t, 1, change.Retokenized)

	tokens, ok := doc.Tokens(2)
	require.True(t, ok)
	assert.Equal(t, 2, tokens[0].Span.Line, "reused tokens are moved to their new line")
	assert.Equal(t, fresh(genesis.BracketGrammar, doc.Text()), doc.AllTokens())
}

func TestDocument_Reload(t *testing.T) {
	doc := New(genesis.NewTokenizer(genesis.BracketGrammar), "[x")
	assert.Equal(t, genesis.InsideEnvelope, doc.FinalState())

	change := doc.Reload("plain")
	assert.Equal(t, 1, change.Retokenized)
	assert.Equal(t, genesis.TopLevel, doc.FinalState())
}

func TestDocument_Unterminated(t *testing.T) {
	doc := New(genesis.NewTokenizer(genesis.BracketGrammar), "a\n[b]\nc [d\ne\nf")
	line, ok := doc.Unterminated()
	require.True(t, ok)
	assert.Equal(t, 2, line)

	doc.Reload("[a]")
	_, ok = doc.Unterminated()
	assert.False(t, ok)
}

func TestDocument_EditsMatchFreshTokenization(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := rapid.SampledFrom([]genesis.Grammar{genesis.BracketGrammar, genesis.RegistrationGrammar}).Draw(t, "grammar")
		line := rapid.StringOf(rapid.SampledFrom([]rune("~[]# closetx")))
		before := rapid.SliceOfN(line, 1, 8).Draw(t, "before")
		after := rapid.SliceOfN(line, 1, 8).Draw(t, "after")

		cache := linecache.New(genesis.NewTokenizer(g), linecache.Options{})
		doc := New(cache, strings.Join(before, "\n"))
		doc.Replace(strings.Join(after, "\n"))

		wantTokens, wantState := genesis.NewTokenizer(g).TokenizeDocument(strings.Join(after, "\n"))
		require.Equal(t, wantTokens, doc.AllTokens())
		require.Equal(t, wantState, doc.FinalState())
	})
}

func TestWorkspace(t *testing.T) {
	ws := NewWorkspace(genesis.NewTokenizer(genesis.BracketGrammar))

	a := ws.Open("[open")
	b := ws.Open("closed")
	assert.NotEqual(t, a, b)

	docA, err := ws.Get(a)
	require.NoError(t, err)
	docB, err := ws.Get(b)
	require.NoError(t, err)
	assert.Equal(t, genesis.InsideEnvelope, docA.FinalState())
	assert.Equal(t, genesis.TopLevel, docB.FinalState(), "documents never share lexer state")

	require.NoError(t, ws.Close(a))
	_, err = ws.Get(a)
	require.ErrorIs(t, err, ErrDocumentNotFound)
	require.ErrorIs(t, ws.Close(a), ErrDocumentNotFound)
}

func TestWorkspace_ConcurrentDocuments(t *testing.T) {
	cache := linecache.New(genesis.NewTokenizer(genesis.BracketGrammar), linecache.Options{})
	ws := NewWorkspace(cache)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := strings.Repeat("~ a [b\nc] d\n", i+1)
			id := ws.Open(text)
			doc, err := ws.Get(id)
			if !assert.NoError(t, err) {
				return
			}
			doc.Replace(text + "[tail")
			assert.Equal(t, genesis.InsideEnvelope, doc.FinalState())
		}(i)
	}
	wg.Wait()
}
