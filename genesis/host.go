package genesis

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Static language registration.
const (
	LanguageID        = "genesis"
	LanguageName      = "Genesis"
	LanguageExtension = ".genesis"
	LanguageMimeType  = "text/x-genesis"
)

// LanguageInfo is what a host needs to route documents to this language.
type LanguageInfo struct {
	ID         string   `json:"id"`
	Aliases    []string `json:"aliases"`
	Extensions []string `json:"extensions"`
	MimeTypes  []string `json:"mimetypes"`
}

// Host is the narrow slice of an editor that Genesis needs. Implementations
// adapt a concrete editor; nothing in this package talks to one directly.
type Host interface {
	RegisterLanguage(info LanguageInfo) error
	SetTokenizer(languageID string, t *Tokenizer) error
	DefineTheme(name string, t Theme) error
	SetCompletionProvider(languageID string, p *CompletionProvider) error
}

// Language is the explicit configuration of one Genesis installation: a
// single grammar with its tokenizer, completion provider and theme.
type Language struct {
	Info       LanguageInfo
	Grammar    Grammar
	Tokenizer  *Tokenizer
	Completion *CompletionProvider
	Theme      Theme
}

// SetupOptions selects the grammar and theme. The zero value gives the
// bracket grammar with the light theme.
type SetupOptions struct {
	Variant Variant
	Theme   *Theme
}

// Setup builds the language configuration. It has no side effects; hand the
// result to Install.
func Setup(opts SetupOptions) (*Language, error) {
	g, err := NewGrammar(opts.Variant)
	if err != nil {
		return nil, err
	}

	theme := DefaultTheme()
	if opts.Theme != nil {
		if err := opts.Theme.Validate(); err != nil {
			return nil, fmt.Errorf("invalid theme: %w", err)
		}
		theme = *opts.Theme
	}

	return &Language{
		Info: LanguageInfo{
			ID:         LanguageID,
			Aliases:    []string{LanguageName},
			Extensions: []string{LanguageExtension},
			MimeTypes:  []string{LanguageMimeType},
		},
		Grammar:    g,
		Tokenizer:  NewTokenizer(g),
		Completion: NewCompletionProvider(g),
		Theme:      theme,
	}, nil
}

// Install registers the language, its single tokenizer, the theme and the
// completion provider with the host, in that order.
func (l *Language) Install(h Host) error {
	if err := h.RegisterLanguage(l.Info); err != nil {
		return fmt.Errorf("registering language %s: %w", l.Info.ID, err)
	}
	if err := h.SetTokenizer(l.Info.ID, l.Tokenizer); err != nil {
		return fmt.Errorf("setting tokenizer: %w", err)
	}
	if err := h.DefineTheme(l.Theme.Name, l.Theme); err != nil {
		return fmt.Errorf("defining theme %s: %w", l.Theme.Name, err)
	}
	if err := h.SetCompletionProvider(l.Info.ID, l.Completion); err != nil {
		return fmt.Errorf("setting completion provider: %w", err)
	}
	return nil
}

// Handles reports whether a file path should be routed to this language.
func (l *Language) Handles(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.Info.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
