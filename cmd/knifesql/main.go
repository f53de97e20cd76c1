// Package main provides the knifesql command line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// CmdControl has the flags that are common to every knifesql command.
type CmdControl struct {
	FlagEngine      string
	FlagDSN         string
	FlagConfig      string
	FlagReadOnly    bool
	FlagStrict      bool
	FlagLogDebug    bool
	FlagLogVerbose  bool
	FlagMetricsAddr string
}

func main() {
	commonCmd := CmdControl{}

	app := &cobra.Command{
		Use:               "knifesql",
		Short:             "Connect to SQL Server, PostgreSQL, MySQL or SQLite and run SQL",
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	app.PersistentFlags().StringVarP(&commonCmd.FlagEngine, "engine", "e", "", "Database engine (sqlserver, postgresql, mysql, sqlite)")
	app.PersistentFlags().StringVar(&commonCmd.FlagDSN, "dsn", "", "Connection string passed verbatim to the driver")
	app.PersistentFlags().StringVar(&commonCmd.FlagConfig, "config", "", "Path to a YAML settings file")
	app.PersistentFlags().BoolVar(&commonCmd.FlagReadOnly, "read-only", false, "Put the session in read-only mode after connecting")
	app.PersistentFlags().BoolVar(&commonCmd.FlagStrict, "strict", false, "Refuse dangerous queries instead of asking for confirmation")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagLogDebug, "debug", "d", false, "Show all debug messages")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagLogVerbose, "verbose", "v", false, "Show all information messages")
	app.PersistentFlags().StringVar(&commonCmd.FlagMetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")

	var cmdTables = cmdTables{common: &commonCmd}
	app.AddCommand(cmdTables.command())

	var cmdDescribe = cmdDescribe{common: &commonCmd}
	app.AddCommand(cmdDescribe.command())

	var cmdFetch = cmdFetch{common: &commonCmd}
	app.AddCommand(cmdFetch.command())

	var cmdQuery = cmdQuery{common: &commonCmd}
	app.AddCommand(cmdQuery.command())

	var cmdInsert = cmdInsert{common: &commonCmd}
	app.AddCommand(cmdInsert.command())

	var cmdUpdate = cmdUpdate{common: &commonCmd}
	app.AddCommand(cmdUpdate.command())

	var cmdDelete = cmdDelete{common: &commonCmd}
	app.AddCommand(cmdDelete.command())

	var cmdShell = cmdShell{common: &commonCmd}
	app.AddCommand(cmdShell.command())

	app.InitDefaultHelpCmd()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := app.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
