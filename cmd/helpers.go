// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"datashelf/cli/internal/config"
	"datashelf/cli/internal/creds"
	"datashelf/cli/internal/query"
	"datashelf/cli/internal/shelf"

	"github.com/pterm/pterm"
)

// connectOptions folds config-file defaults and global flags into the
// resolver options. Flags win over config; the environment and pgpass are
// handled inside the resolver itself.
func connectOptions() creds.Options {
	cfg, err := config.Load()
	if err != nil {
		// A broken config file should not strand the user; fall back to
		// compiled defaults and let them override via flags.
		cfg = config.Config{
			Host:     config.DefaultHost,
			Port:     config.DefaultPort,
			Database: config.DefaultDatabase,
			SSLMode:  config.DefaultSSLMode,
		}
	}
	opts := creds.Options{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		SSLMode:  cfg.SSLMode,
		Username: flagUsername,
	}
	if flagHost != "" {
		opts.Host = flagHost
	}
	if flagPort != 0 {
		opts.Port = flagPort
	}
	if flagDatabase != "" {
		opts.Database = flagDatabase
	}
	return opts
}

// withConn opens a session, runs fn, and guarantees the session is
// released on every exit path.
func withConn(ctx context.Context, fn func(*shelf.Conn) error) error {
	conn, err := shelf.Connect(ctx, connectOptions())
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

// renderFrame prints a result frame as a pterm table, capped so a huge
// materialized result does not flood the terminal.
func renderFrame(frame *query.Frame, maxRows int) {
	data := pterm.TableData{frame.ColumnNames()}
	shown := frame.NumRows()
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}
	for _, row := range frame.Rows[:shown] {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = query.CellString(v)
		}
		data = append(data, cells)
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if shown < frame.NumRows() {
		pterm.Printf("… %d of %d rows shown\n", shown, frame.NumRows())
	}
}
