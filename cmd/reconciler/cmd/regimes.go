package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-withholding-reconciler/internal/classifier"
	"golang-withholding-reconciler/internal/reconciler"
	"golang-withholding-reconciler/pkg/errors"
)

func newRegimesCommand() *cobra.Command {
	regimesCmd := &cobra.Command{
		Use:   "regimes",
		Short: "List the regime rules or classify one regime descriptor",
		Long: `Regimes prints the static table of ONVIO special regimes in match order.

With --classify it runs the regime classifier on one descriptor tuple given as
"regime|regime description|tax type|tax description" and prints the chosen
rule with the tier that produced it. Trailing parts may be omitted.

Examples:
  reconciler regimes
  reconciler regimes --classify "493"
  reconciler regimes --classify "|PERCEPCION IVA SERVICIOS||"`,
		Args: cobra.NoArgs,
		RunE: runRegimes,
	}

	regimesCmd.Flags().String("classify", "", `descriptor tuple "regime|description|tax|tax description"`)

	return regimesCmd
}

func runRegimes(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.GetString("classify") == "" {
		for _, rule := range classifier.Rules() {
			if _, err := fmt.Fprintf(out, "%-28s %-5s %-4s %s\n", rule.ID, rule.Code, rule.Article, rule.Description); err != nil {
				return errors.OutputError("stdout", err)
			}
		}
		return nil
	}

	input := parseRegimeInput(viper.GetString("classify"))
	result := classifier.ClassifyRegime(input, reconciler.DefaultConfig().ValueSeparator)

	_, err := fmt.Fprintf(out, "rule:        %s\ncode:        %s\narticle:     %s\ndescription: %s\ntier:        %s (score %d)\n",
		result.RuleID, result.Code, result.Article, result.Description, result.Tier, result.Score)
	if err != nil {
		return errors.OutputError("stdout", err)
	}

	// generic and fallback rules are not in the table
	if rule, ok := classifier.RuleByID(result.RuleID); ok {
		if _, err := fmt.Fprintf(out, "keywords:    %s\n", strings.Join(rule.Keywords, ", ")); err != nil {
			return errors.OutputError("stdout", err)
		}
	}
	return nil
}

// parseRegimeInput splits "regime|description|tax|taxdesc"; missing parts
// are absent.
func parseRegimeInput(s string) classifier.RegimeInput {
	parts := strings.SplitN(s, "|", 4)
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return classifier.RegimeInput{
		Regime:            parts[0],
		RegimeDescription: parts[1],
		TaxType:           parts[2],
		TaxDescription:    parts[3],
	}
}
