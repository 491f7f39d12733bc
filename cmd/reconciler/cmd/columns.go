package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-withholding-reconciler/cmd/reconciler/config"
	"golang-withholding-reconciler/internal/reporter"
	"golang-withholding-reconciler/pkg/errors"
)

func newColumnsCommand() *cobra.Command {
	columnsCmd := &cobra.Command{
		Use:   "columns",
		Short: "Show how the input columns and template columns were mapped",
		Long: `Columns reads the three input files and prints, for every logical field,
the column chosen by header inference: resolved, ambiguous with its
candidates, or missing. It also prints which source field feeds each template
column. Manual selections from --mapping and --set are applied first, so the
output shows the mapping a reconcile run would use.

Examples:
  reconciler columns --invoices compras.csv --withholdings percepciones.csv --template plantilla.xlsx
  reconciler columns -i compras.xlsx -w percepciones.xlsx -t plantilla.xlsx --format json`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateInputFlags()
		},
		RunE: runColumns,
	}

	addInputFlags(columnsCmd)
	columnsCmd.Flags().String("format", "console", "output format: console, json")

	return columnsCmd
}

func runColumns(cmd *cobra.Command, args []string) error {
	reportConfig, err := config.CreateReportConfig(viper.GetString("format"), false)
	if err != nil {
		return err
	}
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	orchestrator, err := newOrchestrator()
	if err != nil {
		return err
	}

	_, resolution, err := orchestrator.Inspect(cmd.Context(), inputFiles())
	if err != nil {
		return err
	}

	if err := generator.GenerateMappingReport(resolution, cmd.OutOrStdout()); err != nil {
		return errors.OutputError("stdout", err)
	}
	return nil
}
