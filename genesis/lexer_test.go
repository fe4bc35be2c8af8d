package genesis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromaLexer_Tokenise(t *testing.T) {
	lexer := ChromaLexer(BracketGrammar)

	it, err := lexer.Tokenise(nil, "~ hi [x\ny]\r\n")
	require.NoError(t, err)

	expected := []chroma.Token{
		{Type: chroma.KeywordPseudo, Value: "~"},
		{Type: chroma.Text, Value: " hi "},
		{Type: chroma.Punctuation, Value: "["},
		{Type: chroma.String, Value: "x"},
		{Type: chroma.Text, Value: "\n"},
		{Type: chroma.String, Value: "y"},
		{Type: chroma.Punctuation, Value: "]"},
		{Type: chroma.Text, Value: "\r\n"},
	}
	assert.Equal(t, expected, it.Tokens())
}

func TestChromaLexer_ReconstructsInput(t *testing.T) {
	src := "~\n~ reg [open\nstill]\n\nplain ] ~ text"
	it, err := ChromaLexer(BracketGrammar).Tokenise(nil, src)
	require.NoError(t, err)

	var sb strings.Builder
	for _, tk := range it.Tokens() {
		sb.WriteString(tk.Value)
	}
	assert.Equal(t, src, sb.String())
}

func TestChromaLexer_StartState(t *testing.T) {
	lexer := ChromaLexer(BracketGrammar)

	it, err := lexer.Tokenise(&chroma.TokeniseOptions{State: "envelope"}, "~ x] y")
	require.NoError(t, err)
	tokens := it.Tokens()
	require.NotEmpty(t, tokens)
	assert.Equal(t, chroma.String, tokens[0].Type)

	_, err = lexer.Tokenise(&chroma.TokeniseOptions{State: "bogus"}, "x")
	require.Error(t, err)
}

func TestRegisterChroma(t *testing.T) {
	lexer := RegisterChroma()
	require.NotNil(t, lexer)
	assert.Equal(t, LanguageName, lexer.Config().Name)

	assert.Same(t, lexer, lexers.Get("genesis"))
	assert.NotNil(t, lexers.Match("notes.genesis"))
	assert.NotNil(t, lexers.MatchMimeType(LanguageMimeType))
}

func TestTheme_ChromaStyle(t *testing.T) {
	style, err := DefaultTheme().ChromaStyle()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, style.Name)

	entry := style.Get(chroma.KeywordPseudo)
	assert.Equal(t, "#e53935", entry.Colour.String())

	content := style.Get(chroma.String)
	assert.Equal(t, chroma.Yes, content.Bold)
}

func TestChroma_HTMLRender(t *testing.T) {
	style, err := DarkTheme().ChromaStyle()
	require.NoError(t, err)
	it, err := ChromaLexer(BracketGrammar).Tokenise(nil, "a [b]")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, html.New(html.WithClasses(false)).Format(&buf, style, it))
	assert.Contains(t, buf.String(), "#bd93f9")
}
