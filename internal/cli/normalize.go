package cli

import (
	"encoding/json"
	"io"
	"os"

	"dailygraph-quiz/internal/content"
	"github.com/spf13/cobra"
)

// NewNormalizeCmd prints the canonical form of a stored question payload.
func NewNormalizeCmd() *cobra.Command {
	var vocab string
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize a question-set JSON payload (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			c := content.NormalizeJSON(data)
			if vocab != "" {
				category, ok := content.LookupVocabCategory(vocab)
				if !ok {
					category = content.VocabCategory{Key: vocab, Label: vocab}
				}
				c = content.NormalizeVocab(category, json.RawMessage(data))
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}
	cmd.Flags().StringVar(&vocab, "vocab", "", "treat input as a vocab category column (e.g. syno_questions)")
	return cmd
}
