package genesis

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/lexers"
)

// Chroma state names accepted in chroma.TokeniseOptions.State.
const (
	chromaRootState     = "root"
	chromaEnvelopeState = "envelope"
)

// chromaTypes maps categories onto chroma's token taxonomy so that stock
// chroma styles render Genesis sensibly too.
var chromaTypes = [...]chroma.TokenType{
	MarkerActive:    chroma.KeywordPseudo,
	MarkerInactive:  chroma.CommentSpecial,
	AtomContent:     chroma.Text,
	EnvelopeOpen:    chroma.Punctuation,
	EnvelopeClose:   chroma.Punctuation,
	EnvelopeContent: chroma.String,
	Registration:    chroma.NameTag,
	Comment:         chroma.Comment,
}

// ChromaType returns the chroma token type a category is rendered as.
func ChromaType(c Category) chroma.TokenType {
	if int(c) < len(chromaTypes) {
		return chromaTypes[c]
	}
	return chroma.Text
}

// chromaLexer is a chroma.Lexer backed by Tokenizer rather than regex rules.
type chromaLexer struct {
	config    *chroma.Config
	tokenizer *Tokenizer
}

// ChromaLexer returns a chroma lexer for the given grammar.
func ChromaLexer(g Grammar) chroma.Lexer {
	return &chromaLexer{
		config: &chroma.Config{
			Name:      LanguageName,
			Aliases:   []string{LanguageID},
			Filenames: []string{"*" + LanguageExtension},
			MimeTypes: []string{LanguageMimeType},
		},
		tokenizer: NewTokenizer(g),
	}
}

func (l *chromaLexer) Config() *chroma.Config {
	return l.config
}

// Tokenise implements chroma.Lexer. Line terminators are emitted as Text so
// the token values concatenate back to the input.
func (l *chromaLexer) Tokenise(options *chroma.TokeniseOptions, text string) (chroma.Iterator, error) {
	state := TopLevel
	if options != nil {
		switch options.State {
		case "", chromaRootState:
		case chromaEnvelopeState:
			state = InsideEnvelope
		default:
			return nil, fmt.Errorf("genesis: unknown lexer state %q", options.State)
		}
		if options.EnsureLF {
			text = strings.ReplaceAll(text, "\r\n", "\n")
		}
	}

	var out []chroma.Token
	lineNo := 0
	for len(text) > 0 {
		line, rest, found := strings.Cut(text, "\n")
		terminator := ""
		if found {
			terminator = "\n"
			if strings.HasSuffix(line, "\r") {
				line = line[:len(line)-1]
				terminator = "\r\n"
			}
		}

		var tokens []Token
		tokens, state = l.tokenizer.TokenizeLine(state, lineNo, line)
		for _, tok := range tokens {
			out = append(out, chroma.Token{Type: ChromaType(tok.Category), Value: tok.Value})
		}
		if terminator != "" {
			out = append(out, chroma.Token{Type: chroma.Text, Value: terminator})
		}

		text = rest
		lineNo++
	}
	return chroma.Literator(out...), nil
}

var registerOnce sync.Once

// RegisterChroma adds the bracket-grammar lexer to chroma's global registry
// under the genesis name, alias, extension and mime type. Calling it more
// than once is harmless.
func RegisterChroma() chroma.Lexer {
	registerOnce.Do(func() {
		lexers.Register(ChromaLexer(BracketGrammar))
	})
	return lexers.Get(LanguageID)
}

// ChromaStyle converts the theme into a chroma style.
func (t Theme) ChromaStyle() (*chroma.Style, error) {
	entries := chroma.StyleEntries{}

	fg := t.Colors["editor.foreground"]
	bg := t.Colors["editor.background"]
	var background []string
	if c, err := NormalizeColor(fg); err == nil {
		background = append(background, c)
	}
	if c, err := NormalizeColor(bg); err == nil {
		background = append(background, "bg:"+c)
	}
	if len(background) > 0 {
		entries[chroma.Background] = strings.Join(background, " ")
	}

	for _, r := range t.Rules {
		c, err := ParseCategory(r.Token)
		if err != nil {
			return nil, err
		}
		color, err := NormalizeColor(r.Foreground)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Token, err)
		}
		entry := color
		if r.FontStyle != "" {
			entry += " " + r.FontStyle
		}
		// open and close share a chroma type; the first rule wins.
		if _, ok := entries[ChromaType(c)]; !ok {
			entries[ChromaType(c)] = entry
		}
	}

	style, err := chroma.NewStyle(t.Name, entries)
	if err != nil {
		return nil, fmt.Errorf("building chroma style %q: %w", t.Name, err)
	}
	return style, nil
}
