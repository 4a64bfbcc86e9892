// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"datashelf/cli/internal/dsn"
	"datashelf/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// dbinfoCmd shows the connection target that would be used, with the
// password masked. Nothing is dialed; this only reports resolution of the
// non-secret parts.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the current database connection target",
	Long: `The dbinfo command displays the connection string datashelf would use,
with credentials masked. This helps verify which database you are pointed
at without exposing secrets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := connectOptions()
		info := &dsn.Info{
			Host:     opts.Host,
			Port:     pterm.Sprintf("%d", opts.Port),
			User:     opts.Username,
			Database: opts.Database,
		}
		if info.User == "" {
			info.User = "<resolved at connect time>"
		}

		masked := logging.Mask(info.Normalize())
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithTopPadding(1).
			WithBottomPadding(1).
			WithLeftPadding(1).
			WithRightPadding(1).
			Println(masked)
		pterm.Println()
		pterm.Println("To verify connectivity, run: datashelf connect")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
