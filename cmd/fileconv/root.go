package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileconverter/internal/logging"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "fileconv",
		Short:         "Clean and convert CSV and Excel files",
		Long:          `fileconv removes duplicate rows, fills missing numbers with the column mean, keeps selected columns and writes CSV or XLSX.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so stdout stays clean for reports.
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, "text")
		},
	}

	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "L", "warn", "log level (debug, info, warn, error)")
	cmd.AddCommand(newConvertCmd(), newInspectCmd())
	return cmd
}
