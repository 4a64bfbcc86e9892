// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"datashelf/cli/internal/logging"
	"datashelf/cli/internal/shelf"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// librariesCmd lists the libraries (schemas) the user can access.
var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List accessible libraries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConn(cmd.Context(), func(conn *shelf.Conn) error {
			spinner, _ := pterm.DefaultSpinner.Start("Loading library list...")
			libs, err := conn.Libraries(cmd.Context())
			if err != nil {
				spinner.Fail("Could not load libraries")
				pterm.Println(logging.PresentError("", err))
				return err
			}
			spinner.Success(pterm.Sprintf("%d libraries accessible", len(libs)))
			for _, lib := range libs {
				pterm.Println("  " + lib)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(librariesCmd)
}
