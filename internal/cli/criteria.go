package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dealscout/internal/criteria"
	"github.com/ppiankov/dealscout/internal/model"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Work with criteria profiles",
}

var criteriaValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a criteria profile",
	Long: `Validate parses a criteria profile, reports every problem at once and, for a
valid profile, shows which criteria contribute to the fit score.

Example:
  dealscout criteria validate criteria.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := criteria.Load(args[0])
		if err != nil {
			printProblems(cmd.ErrOrStderr(), err)
			return fmt.Errorf("invalid criteria profile: %s", args[0])
		}
		printProfile(cmd.OutOrStdout(), args[0], profile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(criteriaCmd)
	criteriaCmd.AddCommand(criteriaValidateCmd)
}

func printProblems(w io.Writer, err error) {
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		fmt.Fprintf(w, "✗ %v\n", err)
		return
	}
	for _, p := range cfgErr.Problems {
		fmt.Fprintf(w, "✗ %s\n", p)
	}
}

func printProfile(w io.Writer, path string, p *model.CriteriaProfile) {
	fmt.Fprintf(w, "✓ %s is valid\n\n", path)

	var total float64
	for _, c := range p.WeightedCriteria() {
		total += p.Weight(c)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CRITERION\tWEIGHT\tSHARE\tAPPLIES")
	for _, c := range model.ScoredCriteria {
		weight := p.Weight(c)
		share := "-"
		applies := "no rule"
		switch {
		case p.HasRule(c) && weight > 0:
			applies = "yes"
			share = fmt.Sprintf("%.0f%%", 100*weight/total)
		case p.HasRule(c):
			applies = "zero weight"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\n", c, weight, share, applies)
	}
	_ = tw.Flush()

	if total == 0 {
		fmt.Fprintln(w, "\n⚠ No criterion applies: every qualified candidate will score 0")
	}
	if len(p.Dealbreakers) > 0 {
		fmt.Fprintf(w, "\nDealbreakers: %d\n", len(p.Dealbreakers))
	}
}
