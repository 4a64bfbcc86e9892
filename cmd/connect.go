// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"datashelf/cli/internal/logging"
	"datashelf/cli/internal/shelf"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var savePgpass bool

// connectCmd verifies that a session can be opened with the resolvable
// credentials and optionally persists them to the pgpass file so future
// sessions skip the prompt.
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Verify database connectivity and optionally save credentials",
	Long: `The connect command resolves credentials (flags, PG* environment
variables, pgpass file, or interactive prompt), opens a session against the
research database, and reports success.

With --save-pgpass, the verified credentials are written to the pgpass file
with owner-only permissions, enabling passwordless connections afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		spinner, _ := pterm.DefaultSpinner.Start("Verifying connection...")
		conn, err := shelf.Connect(ctx, connectOptions())
		if err != nil {
			spinner.Fail("Connection failed")
			pterm.Println(logging.PresentError("", err))
			return err
		}
		defer conn.Close()
		spinner.Success("Database connection verified")

		c := conn.Credentials()
		pterm.Printf("Connected to %s:%d/%s as %s\n", c.Host, c.Port, c.Database, c.Username)

		if savePgpass {
			if err := conn.SavePgpass(); err != nil {
				pterm.Println("❌ Failed to save pgpass entry")
				pterm.Println(logging.PresentError("", err))
				return err
			}
			pterm.Println("✅ Credentials saved to pgpass; future sessions will not prompt")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().BoolVar(&savePgpass, "save-pgpass", false, "Write verified credentials to the pgpass file")
}
