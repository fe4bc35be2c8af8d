package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magnusknutas/genesis/genesis"
)

func newCompleteCmd(a *app) *cobra.Command {
	var (
		line   string
		column int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "complete [fragment]",
		Short: "List completion suggestions",
		Long: `List completion suggestions for a typed fragment, or for the cursor position
given by --line and --column. Columns count characters from zero.`,
		Example: `  genesis complete '#'
  genesis complete --line '  ~' --column 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				suggestions []genesis.CompletionSuggestion
				replace     genesis.Range
			)
			switch {
			case cmd.Flags().Changed("line"):
				if len(args) > 0 {
					return fmt.Errorf("give either a fragment or --line, not both")
				}
				if !cmd.Flags().Changed("column") {
					column = len([]rune(line))
				}
				suggestions, replace = a.host.completion.CompleteAt(0, line, column)
			case len(args) == 1:
				suggestions = a.host.completion.Complete(args[0])
				replace = genesis.Range{End: len(args[0])}
			default:
				suggestions = a.host.completion.Suggestions()
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					Range       genesis.Range                  `json:"range"`
					Suggestions []genesis.CompletionSuggestion `json:"suggestions"`
				}{Range: replace, Suggestions: suggestions})
			}
			for _, s := range suggestions {
				if _, err := fmt.Fprintf(out, "%-4s %-8s %-28q %s\n", s.Label, s.Kind, s.InsertText, s.Documentation); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&line, "line", "", "line text to complete in")
	cmd.Flags().IntVar(&column, "column", 0, "cursor column in characters (default: end of line)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print suggestions as JSON")
	return cmd
}
