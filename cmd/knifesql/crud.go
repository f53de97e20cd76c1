package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type cmdInsert struct {
	common *CmdControl
}

func (c *cmdInsert) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert <table> <column=value>...",
		Short: "Insert one row, binding every value as a parameter.",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdInsert) run(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return cmd.Help()
	}

	values, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}

	s, err := c.common.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ctx, cancel := s.queryContext(cmd.Context())
	defer cancel()

	if err := s.client.Insert(ctx, args[0], values); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Inserted into %s\n", args[0])
	return nil
}

type cmdUpdate struct {
	common *CmdControl
}

func (c *cmdUpdate) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <table> <id-column> <id-value> <column=value>...",
		Short: "Update the rows matching an id, binding every value as a parameter.",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdUpdate) run(cmd *cobra.Command, args []string) error {
	if len(args) < 4 {
		return cmd.Help()
	}

	values, err := parseAssignments(args[3:])
	if err != nil {
		return err
	}

	s, err := c.common.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ctx, cancel := s.queryContext(cmd.Context())
	defer cancel()

	if err := s.client.Update(ctx, args[0], args[1], parseValue(args[2]), values); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s where %s = %s\n", args[0], args[1], args[2])
	return nil
}

type cmdDelete struct {
	common *CmdControl
}

func (c *cmdDelete) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <table> <id-column> <id-value>",
		Short: "Delete the rows matching an id.",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdDelete) run(cmd *cobra.Command, args []string) error {
	if len(args) != 3 {
		return cmd.Help()
	}

	s, err := c.common.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ctx, cancel := s.queryContext(cmd.Context())
	defer cancel()

	if err := s.client.Delete(ctx, args[0], args[1], parseValue(args[2])); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted from %s where %s = %s\n", args[0], args[1], args[2])
	return nil
}
