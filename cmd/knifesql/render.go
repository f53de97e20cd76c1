package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/knifesql/knifesql"
)

// renderRows prints rows as tables. A new table starts whenever the column
// layout changes, so batches with several result sets stay readable.
// maxRows limits the printed data rows; 0 prints all.
func renderRows(w io.Writer, rows []knifesql.ResultRow, maxRows int) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	var (
		header  []string
		data    [][]string
		printed int
		hidden  int
	)
	flush := func() {
		if len(data) > 0 {
			renderTable(w, header, data)
		}
		data = nil
	}

	for _, row := range rows {
		if n, ok := row.RowsAffected(); ok {
			flush()
			header = nil
			fmt.Fprintf(w, "%d row(s) affected\n", n)
			continue
		}

		names := row.Names()
		if !sameColumns(header, names) {
			flush()
			header = names
		}
		if maxRows > 0 && printed >= maxRows {
			hidden++
			continue
		}
		data = append(data, rowStrings(row))
		printed++
	}
	flush()

	if hidden > 0 {
		fmt.Fprintf(w, "... %d more row(s) not shown\n", hidden)
	}
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
}

func rowStrings(row knifesql.ResultRow) []string {
	entries := row.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Value.String()
	}
	return out
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) || a == nil {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func renderColumns(w io.Writer, columns []knifesql.ColumnInfo) {
	data := make([][]string, len(columns))
	for i, col := range columns {
		def := "NULL"
		if col.Default != nil {
			def = *col.Default
		}
		data[i] = []string{col.Name, col.DataType, yesNo(col.Nullable), def, yesNo(col.PrimaryKey)}
	}
	renderTable(w, []string{"NAME", "TYPE", "NULLABLE", "DEFAULT", "PRIMARY KEY"}, data)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// parseAssignments turns col=value arguments into column values.
func parseAssignments(args []string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected column=value", arg)
		}
		if _, dup := values[name]; dup {
			return nil, fmt.Errorf("column %q assigned twice", name)
		}
		values[name] = parseValue(raw)
	}
	return values, nil
}

// parseValue types a command line literal: NULL, integers, floats and
// true/false become their Go values, anything else stays text.
func parseValue(raw string) any {
	switch {
	case raw == "NULL":
		return nil
	case raw == "true" || raw == "false":
		return raw == "true"
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
