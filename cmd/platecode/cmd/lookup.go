package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/platecode/internal/lexicon"
	"github.com/spf13/cobra"
)

// lookupCmd resolves a code against the built-in catalog without touching
// any image or OCR machinery.
var lookupCmd = &cobra.Command{
	Use:   "lookup CODE",
	Short: "Look up an identification code in the built-in catalog",
	Long: `Normalizes the given code the same way OCR output is normalized, then
resolves it against the catalog. With --fuzzy, near matches above the
threshold are listed when there is no exact hit.

Examples:
  platecode lookup VF1
  platecode lookup rja
  platecode lookup VF2 --fuzzy`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fuzzy, _ := cmd.Flags().GetBool("fuzzy")
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		lex := lexicon.Default()
		out := cmd.OutOrStdout()

		if desc, ok := lex.Describe(args[0]); ok {
			fmt.Fprintln(out, desc)
			return nil
		}
		if !fuzzy {
			return fmt.Errorf("code %q not in catalog (normalized: %q); try --fuzzy",
				args[0], lexicon.Normalize(args[0]))
		}

		matches := lex.FindFuzzy(args[0], threshold)
		if len(matches) == 0 {
			return fmt.Errorf("no catalog code within similarity %.2f of %q", threshold, args[0])
		}
		for _, m := range matches {
			desc := m.Manufacturer
			if m.Model != "" {
				desc += " " + m.Model
			}
			fmt.Fprintf(out, "%-6s %-6s %.3f  %s\n", m.Code, m.Category, m.Confidence, desc)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().Bool("fuzzy", false, "list near matches when no exact hit exists")
	lookupCmd.Flags().Float64("threshold", 0.8, "minimum similarity for fuzzy matches")
}
