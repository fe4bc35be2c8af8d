package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/magnusknutas/genesis/genesis"
	"github.com/magnusknutas/genesis/internal/log"
)

// tokenRecord is the JSON shape of one token.
type tokenRecord struct {
	Line     int              `json:"line"`
	Start    int              `json:"start"`
	End      int              `json:"end"`
	Category genesis.Category `json:"category"`
	Value    string           `json:"value"`
}

func newTokensCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of a Genesis file",
		Long: `Print every token as line:start-end, category and value. Reads stdin when
no file (or "-") is given. The last line reports the lexer state at the end
of input; InsideEnvelope means an envelope was never closed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, name, closeInput, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeInput()

			out := cmd.OutOrStdout()
			var records []tokenRecord
			state, err := a.host.tokenizer.TokenizeReader(cmd.Context(), r, func(res genesis.LineResult) error {
				for _, tok := range res.Tokens {
					if asJSON {
						records = append(records, newTokenRecord(tok))
						continue
					}
					if _, err := fmt.Fprintf(out, "%d:%d-%d\t%-22s %q\n", tok.Span.Line, tok.Span.Start, tok.Span.End, tok.Category, tok.Value); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("tokenizing %s: %w", name, err)
			}
			log.Debug(log.CatCLI, "tokenized", "input", name, "state", state)

			if asJSON {
				return writeJSON(out, struct {
					Tokens []tokenRecord `json:"tokens"`
					State  string        `json:"state"`
				}{Tokens: records, State: state.String()})
			}
			_, err = fmt.Fprintf(out, "state: %s\n", state)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print tokens as JSON")
	return cmd
}

func newTokenRecord(tok genesis.Token) tokenRecord {
	return tokenRecord{
		Line:     tok.Span.Line,
		Start:    tok.Span.Start,
		End:      tok.Span.End,
		Category: tok.Category,
		Value:    tok.Value,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openInput opens the file named by args[0], or stdin.
func openInput(cmd *cobra.Command, args []string) (io.Reader, string, func(), error) {
	if len(args) == 0 || args[0] == "" || args[0] == "-" {
		return cmd.InOrStdin(), "<stdin>", func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening input: %w", err)
	}
	return f, args[0], func() { _ = f.Close() }, nil
}

// readInput reads path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) (string, string, error) {
	r, name, closeInput, err := openInput(cmd, []string{path})
	if err != nil {
		return "", "", err
	}
	defer closeInput()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), name, nil
}
