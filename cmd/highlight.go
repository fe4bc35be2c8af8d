package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/formatters/html"
	"github.com/spf13/cobra"

	"github.com/magnusknutas/genesis/genesis"
	"github.com/magnusknutas/genesis/internal/document"
	"github.com/magnusknutas/genesis/internal/log"
	"github.com/magnusknutas/genesis/internal/render"
	"github.com/magnusknutas/genesis/internal/watcher"
)

func newHighlightCmd(a *app) *cobra.Command {
	var (
		formatter string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "highlight [file...]",
		Short: "Render Genesis files with the active theme",
		Long: `Render Genesis files with the active theme. Reads stdin when no file (or
"-") is given. Each file is tokenized as its own document, so an envelope
left open in one never leaks into the next.

Formatters:
  lipgloss     styled terminal output (default)
  terminal256  chroma 256-colour terminal output
  terminal16m  chroma true-colour terminal output
  html         standalone HTML with inline styles
  json         chroma token stream as JSON

With --watch a single file is re-rendered every time it changes on disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if formatter == "" {
				formatter = a.cfg.Output.Formatter
			}
			if watch && (len(args) != 1 || args[0] == "-") {
				return fmt.Errorf("--watch needs exactly one file argument")
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			ws := document.NewWorkspace(a.lineTokenizer())
			ids := make([]string, len(args))
			names := make([]string, len(args))
			for i, path := range args {
				text, name, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				ids[i], names[i] = ws.Open(text), name
			}
			defer func() {
				for _, id := range ids {
					_ = ws.Close(id)
				}
			}()

			for i, id := range ids {
				doc, err := ws.Get(id)
				if err != nil {
					return err
				}
				name := names[i]
				if len(args) > 1 {
					if i > 0 {
						fmt.Fprintln(cmd.OutOrStdout())
					}
					fmt.Fprintf(cmd.OutOrStdout(), "==> %s <==\n", name)
				}
				if err := a.highlight(cmd, doc, formatter, name); err != nil {
					return err
				}
			}
			if !watch {
				return nil
			}

			doc, err := ws.Get(ids[0])
			if err != nil {
				return err
			}
			return a.watchAndHighlight(cmd, doc, formatter, args[0])
		},
	}

	cmd.Flags().StringVarP(&formatter, "formatter", "f", "", "output formatter (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render when the file changes")
	return cmd
}

func (a *app) highlight(cmd *cobra.Command, doc *document.Document, formatter, name string) error {
	out := cmd.OutOrStdout()
	text := doc.Text()

	var err error
	switch formatter {
	case "lipgloss":
		styles := render.StylesFromTheme(a.host.theme)
		rendered := styles.Document(genesis.SplitLines(text), doc.AllTokens())
		if !strings.HasSuffix(text, "\n") {
			rendered += "\n"
		}
		_, err = io.WriteString(out, rendered)
	default:
		err = a.formatChroma(out, formatter, text)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	log.Debug(log.CatRender, "rendered", "input", name, "formatter", formatter, "lines", doc.LineCount())

	if line, open := doc.Unterminated(); open {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: envelope opened on line %d is never closed\n", name, line+1)
	}
	return nil
}

// formatChroma renders text through the host's chroma lexer and one of
// chroma's formatters.
func (a *app) formatChroma(w io.Writer, name, text string) error {
	style, err := a.host.theme.ChromaStyle()
	if err != nil {
		return err
	}

	f, ok := formatters.Registry[name]
	if name == "html" {
		f, ok = html.New(html.WithClasses(false), html.Standalone(true)), true
	}
	if !ok {
		return fmt.Errorf("unknown formatter %q", name)
	}

	it, err := a.host.lexer.Tokenise(nil, text)
	if err != nil {
		return err
	}
	return f.Format(w, style, it)
}

func (a *app) watchAndHighlight(cmd *cobra.Command, doc *document.Document, formatter, path string) error {
	w, err := watcher.New(watcher.Config{Path: path, DebounceDur: a.cfg.Watch.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	if err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	ctx := cmd.Context()
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}

	for {
		select {
		case <-onChange:
			data, err := os.ReadFile(path)
			if err != nil {
				log.ErrorErr(log.CatWatch, "re-reading file", err, "path", path)
				continue
			}
			change := doc.Replace(string(data))
			log.Debug(log.CatWatch, "file changed", "path", path, "lines", change.Lines, "retokenized", change.Retokenized)
			if err := a.highlight(cmd, doc, formatter, path); err != nil {
				return err
			}
		case <-interrupt:
			return nil
		case <-done:
			return nil
		}
	}
}
