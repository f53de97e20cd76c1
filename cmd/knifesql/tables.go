package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knifesql/knifesql"
)

type cmdTables struct {
	common *CmdControl
}

func (c *cmdTables) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the connected database.",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdTables) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	s, err := c.common.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ctx, cancel := s.queryContext(cmd.Context())
	defer cancel()

	tables, err := s.client.ListTables(ctx)
	if err != nil {
		return err
	}

	for _, name := range tables {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

type cmdDescribe struct {
	common *CmdControl
}

func (c *cmdDescribe) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the columns of a table.",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdDescribe) run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cmd.Help()
	}

	s, err := c.common.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	describer, ok := s.client.(knifesql.SchemaDescriber)
	if !ok {
		return fmt.Errorf("engine %s cannot describe tables", s.client.Engine())
	}

	ctx, cancel := s.queryContext(cmd.Context())
	defer cancel()

	columns, err := describer.DescribeTable(ctx, args[0])
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %q not found", args[0])
	}

	renderColumns(cmd.OutOrStdout(), columns)
	return nil
}

type cmdFetch struct {
	common *CmdControl
}

func (c *cmdFetch) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <table>",
		Short: "Print every row of a table.",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdFetch) run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cmd.Help()
	}

	s, err := c.common.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ctx, cancel := s.queryContext(cmd.Context())
	defer cancel()

	rows, err := s.client.FetchAll(ctx, args[0])
	if err != nil {
		return err
	}

	renderRows(cmd.OutOrStdout(), rows, s.cfg.MaxRows)
	return nil
}
