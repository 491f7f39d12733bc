package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-withholding-reconciler/cmd/reconciler/config"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// NewRootCommand builds the command tree. Each call returns fresh commands
// and flags; settings are read back through viper.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reconciler",
		Short: "AFIP withholding reconciliation tool",
		Long: `Reconciler matches AFIP purchase invoices against the withholdings and
perceptions suffered on them and fills an ONVIO import template with one row
per invoice.

Missing withholdings are inferred from the invoice totals, residual
differences are flagged and every regime is classified into the ONVIO
special regime code.

Examples:
  reconciler reconcile --invoices compras.xlsx --withholdings percepciones.xlsx --template plantilla.xlsx
  reconciler columns --invoices compras.csv --withholdings percepciones.csv --template plantilla.xlsx
  reconciler regimes --classify "493|PERCEPCION IVA|IVA|"
  reconciler sample --output-dir ./muestra
  reconciler version`,
		Version:           getVersionString(),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default warn)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (default text)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(
		newReconcileCommand(),
		newColumnsCommand(),
		newRegimesCommand(),
		newSampleCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the command line with the process arguments.
// This is called by main.main().
func Execute() error {
	return NewRootCommand().Execute()
}

// initConfig binds the running command's flags, then reads the config file
// and RECONCILER_* environment variables and sets up the global logger.
func initConfig(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "flag binding", err)
	}

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
				WithSuggestion("check the config file path and syntax")
		}
	}

	viper.SetEnvPrefix("RECONCILER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	logConfig, err := config.CreateLoggerConfig(
		viper.GetString("log-level"),
		viper.GetString("log-format"),
		viper.GetString("log-file"),
		viper.GetBool("verbose"),
	)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log-file", logConfig.File, err)
	}
	logger.SetGlobalLogger(log)

	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		log.WithField("config_file", cfgFile).Info("Using config file")
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "reconciler %s\n", getVersionString())
			return err
		},
	}
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
