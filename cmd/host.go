package cmd

import (
	"fmt"

	"github.com/alecthomas/chroma"

	"github.com/magnusknutas/genesis/genesis"
)

// cliHost is the in-process editor host used by the command line. It keeps
// what the language installs and exposes the installed tokenizer to chroma.
type cliHost struct {
	info       genesis.LanguageInfo
	tokenizer  *genesis.Tokenizer
	lexer      chroma.Lexer
	themes     map[string]genesis.Theme
	theme      genesis.Theme
	completion *genesis.CompletionProvider
}

var _ genesis.Host = (*cliHost)(nil)

func newCLIHost() *cliHost {
	return &cliHost{themes: make(map[string]genesis.Theme)}
}

func (h *cliHost) RegisterLanguage(info genesis.LanguageInfo) error {
	if h.info.ID != "" {
		return fmt.Errorf("language %q already registered", h.info.ID)
	}
	h.info = info
	return nil
}

func (h *cliHost) SetTokenizer(id string, t *genesis.Tokenizer) error {
	if id != h.info.ID {
		return fmt.Errorf("unknown language %q", id)
	}
	h.tokenizer = t
	if t.Grammar().Variant == genesis.VariantBracket {
		h.lexer = genesis.RegisterChroma()
	} else {
		h.lexer = genesis.ChromaLexer(t.Grammar())
	}
	return nil
}

// DefineTheme records the theme; the last defined one is active.
func (h *cliHost) DefineTheme(name string, t genesis.Theme) error {
	h.themes[name] = t
	h.theme = t
	return nil
}

func (h *cliHost) SetCompletionProvider(id string, p *genesis.CompletionProvider) error {
	if id != h.info.ID {
		return fmt.Errorf("unknown language %q", id)
	}
	h.completion = p
	return nil
}
