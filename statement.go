package knifesql

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// placeholderFunc renders the bind marker for the n-th parameter, 1-based.
type placeholderFunc func(n int) string

func questionMark(int) string     { return "?" }
func dollarNumbered(n int) string { return "$" + strconv.Itoa(n) }
func atPNumbered(n int) string    { return "@p" + strconv.Itoa(n) }

func sortedColumns(values map[string]any) []string {
	columns := make([]string, 0, len(values))
	for name := range values {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns
}

// buildInsert renders INSERT INTO table (a, b) VALUES (p1, p2). Columns are
// ordered by name so the same map always yields the same text.
func buildInsert(table string, values map[string]any, ph placeholderFunc) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, ErrNoColumns
	}
	columns := sortedColumns(values)
	marks := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		marks[i] = ph(i + 1)
		args[i] = values[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(marks, ", "))
	return query, args, nil
}

// buildUpdate renders UPDATE table SET a = p1, b = p2 WHERE id = p3.
func buildUpdate(table, idColumn string, idValue any, values map[string]any, ph placeholderFunc) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, ErrNoColumns
	}
	columns := sortedColumns(values)
	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		sets[i] = fmt.Sprintf("%s = %s", col, ph(i+1))
		args = append(args, values[col])
	}
	args = append(args, idValue)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		table, strings.Join(sets, ", "), idColumn, ph(len(args)))
	return query, args, nil
}

func buildDelete(table, idColumn string, idValue any, ph placeholderFunc) (string, []any) {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s", table, idColumn, ph(1)), []any{idValue}
}

// splitStatements cuts a batch at top-level semicolons. Semicolons inside
// quoted strings, quoted identifiers, comments and the BEGIN ... END body of
// a CREATE TRIGGER do not split. Statements that are empty after trimming are
// dropped; comments are kept in the text.
func splitStatements(batch string) []string {
	var (
		out     []string
		start   int
		trigger triggerBody
	)
	emit := func(end int) {
		if stmt := strings.TrimSpace(batch[start:end]); stmt != "" && !onlyComments(stmt) {
			out = append(out, stmt)
		}
	}

	i := 0
	n := len(batch)
	for i < n {
		switch c := batch[i]; {
		case c == '-' && i+1 < n && batch[i+1] == '-':
			for i < n && batch[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && batch[i+1] == '*':
			i += 2
			for i+1 < n && !(batch[i] == '*' && batch[i+1] == '/') {
				i++
			}
			i += 2
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(batch, i, c)
		case c == '[':
			i++
			for i < n && batch[i] != ']' {
				i++
			}
			i++
		case isWordStart(c):
			j := i + 1
			for j < n && isWordByte(batch[j]) {
				j++
			}
			trigger.word(strings.ToUpper(batch[i:j]))
			i = j
		case c == ';' && !trigger.holding():
			emit(i)
			i++
			start = i
			trigger = triggerBody{}
		default:
			i++
		}
	}
	if start < n {
		emit(n)
	}
	return out
}

// triggerBody follows the keywords of one statement and holds its semicolons
// from CREATE [TEMP|TEMPORARY] TRIGGER until the END closing the trigger
// body. CASE ... END expressions inside the body are matched so their END
// does not close it.
type triggerBody struct {
	lead    []string
	trigger bool
	inBody  bool
	cases   int
	done    bool
}

func (b *triggerBody) word(w string) {
	if len(b.lead) < 3 {
		b.lead = append(b.lead, w)
		b.trigger = isCreateTrigger(b.lead)
	}
	if !b.trigger || b.done {
		return
	}
	switch w {
	case "BEGIN":
		b.inBody = true
	case "CASE":
		if b.inBody {
			b.cases++
		}
	case "END":
		switch {
		case !b.inBody:
		case b.cases > 0:
			b.cases--
		default:
			b.done = true
		}
	}
}

func (b *triggerBody) holding() bool { return b.trigger && !b.done }

func isCreateTrigger(lead []string) bool {
	if len(lead) < 2 || lead[0] != "CREATE" {
		return false
	}
	if lead[1] == "TRIGGER" {
		return true
	}
	return len(lead) >= 3 && (lead[1] == "TEMP" || lead[1] == "TEMPORARY") && lead[2] == "TRIGGER"
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return isWordStart(c) || c == '$' || (c >= '0' && c <= '9')
}

// skipQuoted returns the index just past the literal opened at batch[i].
// A doubled quote character is an escaped quote.
func skipQuoted(batch string, i int, quote byte) int {
	n := len(batch)
	i++
	for i < n {
		if batch[i] == quote {
			if i+1 < n && batch[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return n
}

// onlyComments reports whether stmt holds nothing but comments and whitespace.
func onlyComments(stmt string) bool {
	i := 0
	n := len(stmt)
	for i < n {
		switch c := stmt[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '-' && i+1 < n && stmt[i+1] == '-':
			for i < n && stmt[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && stmt[i+1] == '*':
			i += 2
			for i+1 < n && !(stmt[i] == '*' && stmt[i+1] == '/') {
				i++
			}
			i += 2
		default:
			return false
		}
	}
	return true
}
