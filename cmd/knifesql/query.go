package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/knifesql/knifesql"
)

type cmdQuery struct {
	common *CmdControl

	flagConfirm bool
}

func (c *cmdQuery) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run SQL, withholding dangerous statements unless confirmed.",
		Long: `Run SQL through the confirmation gate.

Queries that drop a table or database, or that delete or update without a
WHERE clause, are withheld and their warning is printed. Pass --confirm to
submit the identical text a second time and run it anyway.`,
		RunE: c.run,
	}

	cmd.Flags().BoolVar(&c.flagConfirm, "confirm", false, "Run the query even if it is dangerous")

	return cmd
}

func (c *cmdQuery) run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cmd.Help()
	}

	s, err := c.common.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	gate := knifesql.NewGate(s.client,
		knifesql.WithStrict(s.cfg.Strict),
		knifesql.WithGateLogger(s.logger),
	)

	ctx, cancel := s.queryContext(cmd.Context())
	defer cancel()

	out, err := gate.Submit(ctx, args[0])
	if err != nil {
		return err
	}
	if !out.Executed && c.flagConfirm && gate.State() == knifesql.StateAwaitingConfirmation {
		out, err = gate.Submit(ctx, args[0])
		if err != nil {
			return err
		}
	}

	return printOutcome(cmd.OutOrStdout(), out, s.cfg.Strict, s.cfg.MaxRows)
}

// printOutcome renders an executed query's rows, or the warning for a
// withheld one. A withheld query is reported as an error.
func printOutcome(w io.Writer, out knifesql.Outcome, strict bool, maxRows int) error {
	if out.Executed {
		renderRows(w, out.Rows, maxRows)
		return nil
	}

	fmt.Fprintln(w, out.Verdict.Message)
	if strict {
		return fmt.Errorf("query refused in strict mode")
	}
	return fmt.Errorf("query withheld: submit it again unchanged to run it")
}
