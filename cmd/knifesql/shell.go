package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knifesql/knifesql"
)

type cmdShell struct {
	common *CmdControl
}

func (c *cmdShell) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive SQL session.",
		Long: `Start an interactive SQL session.

A statement ends at a line ending in ';' or at a blank line. Dangerous
statements are withheld until the identical text is entered again.
Type \q to quit and \tables to list tables.`,
		RunE: c.run,
	}

	return cmd
}

func (c *cmdShell) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
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
	defer gate.Reset()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connected to %s. Type \\q to quit.\n", s.client.Engine())

	return readStatements(cmd.InOrStdin(), func(text string) error {
		switch text {
		case `\q`:
			return io.EOF
		case `\tables`:
			return c.listTables(cmd.Context(), s, out)
		}

		ctx, cancel := s.queryContext(cmd.Context())
		defer cancel()

		outcome, err := gate.Submit(ctx, text)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return nil
		}
		if !outcome.Executed {
			fmt.Fprintln(out, outcome.Verdict.Message)
			if !s.cfg.Strict {
				fmt.Fprintln(out, "Enter the same statement again to run it.")
			}
			return nil
		}
		renderRows(out, outcome.Rows, s.cfg.MaxRows)
		return nil
	})
}

func (c *cmdShell) listTables(ctx context.Context, s *session, out io.Writer) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	tables, err := s.client.ListTables(ctx)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return nil
	}
	for _, name := range tables {
		fmt.Fprintln(out, name)
	}
	return nil
}

// readStatements collects input lines into statements and hands each to fn.
// A statement ends at a line whose trimmed text ends in ';' or at a blank
// line; a line starting with '\' is a command on its own. The trailing ';'
// is kept. fn returning io.EOF stops reading without error.
func readStatements(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var buf strings.Builder
	submit := func() error {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return nil
		}
		return fn(text)
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		var err error
		switch {
		case buf.Len() == 0 && strings.HasPrefix(line, `\`):
			err = fn(line)
		case line == "":
			err = submit()
		default:
			buf.WriteString(scanner.Text())
			buf.WriteByte('\n')
			if strings.HasSuffix(line, ";") {
				err = submit()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := submit(); err != nil && err != io.EOF {
		return err
	}
	return nil
}
