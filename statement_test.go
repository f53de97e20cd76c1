package knifesql

import (
	"reflect"
	"testing"
)

func TestBuildInsert(t *testing.T) {
	tests := []struct {
		name      string
		ph        placeholderFunc
		wantQuery string
	}{
		{"question marks", questionMark, "INSERT INTO users (age, name) VALUES (?, ?)"},
		{"dollar numbered", dollarNumbered, "INSERT INTO users (age, name) VALUES ($1, $2)"},
		{"at-p numbered", atPNumbered, "INSERT INTO users (age, name) VALUES (@p1, @p2)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, args, err := buildInsert("users", map[string]any{"name": "ada", "age": 36}, tc.ph)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if query != tc.wantQuery {
				t.Errorf("Expected query %q, got %q", tc.wantQuery, query)
			}
			if !reflect.DeepEqual(args, []any{36, "ada"}) {
				t.Errorf("Expected args [36 ada], got %v", args)
			}
		})
	}
}

func TestBuildUpdate(t *testing.T) {
	query, args, err := buildUpdate("users", "id", 9, map[string]any{"name": "ada", "age": 36}, dollarNumbered)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := "UPDATE users SET age = $1, name = $2 WHERE id = $3"
	if query != want {
		t.Errorf("Expected query %q, got %q", want, query)
	}
	if !reflect.DeepEqual(args, []any{36, "ada", 9}) {
		t.Errorf("Expected args [36 ada 9], got %v", args)
	}
}

func TestBuildDelete(t *testing.T) {
	query, args := buildDelete("users", "id", "abc", atPNumbered)
	if query != "DELETE FROM users WHERE id = @p1" {
		t.Errorf("Unexpected query %q", query)
	}
	if !reflect.DeepEqual(args, []any{"abc"}) {
		t.Errorf("Expected args [abc], got %v", args)
	}
}

func TestBuildersRejectEmptyValues(t *testing.T) {
	if _, _, err := buildInsert("t", nil, questionMark); err != ErrNoColumns {
		t.Errorf("Expected ErrNoColumns from insert, got %v", err)
	}
	if _, _, err := buildUpdate("t", "id", 1, map[string]any{}, questionMark); err != ErrNoColumns {
		t.Errorf("Expected ErrNoColumns from update, got %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name  string
		batch string
		want  []string
	}{
		{"single", "SELECT 1", []string{"SELECT 1"}},
		{"trailing semicolon", "SELECT 1;", []string{"SELECT 1"}},
		{"two statements", "SELECT 1; SELECT 2", []string{"SELECT 1", "SELECT 2"}},
		{"empty pieces dropped", ";; SELECT 1 ;;", []string{"SELECT 1"}},
		{"semicolon in string", "SELECT 'a;b'; SELECT 2", []string{"SELECT 'a;b'", "SELECT 2"}},
		{"escaped quote", "SELECT 'it''s;'; SELECT 2", []string{"SELECT 'it''s;'", "SELECT 2"}},
		{"double quoted identifier", `SELECT "a;b" FROM t`, []string{`SELECT "a;b" FROM t`}},
		{"backtick identifier", "SELECT `a;b` FROM t", []string{"SELECT `a;b` FROM t"}},
		{"bracket identifier", "SELECT [a;b] FROM t", []string{"SELECT [a;b] FROM t"}},
		{"line comment", "SELECT 1 -- no; split\n; SELECT 2", []string{"SELECT 1 -- no; split", "SELECT 2"}},
		{"block comment", "SELECT /* ; */ 1; SELECT 2", []string{"SELECT /* ; */ 1", "SELECT 2"}},
		{"comment only piece dropped", "SELECT 1; -- done", []string{"SELECT 1"}},
		{"unterminated string", "SELECT 'abc; SELECT 2", []string{"SELECT 'abc; SELECT 2"}},
		{"blank", "  \n ", nil},
		{
			"trigger body",
			"CREATE TRIGGER tr AFTER INSERT ON t BEGIN UPDATE t SET id = 0 WHERE id = NEW.id; END; SELECT 1",
			[]string{"CREATE TRIGGER tr AFTER INSERT ON t BEGIN UPDATE t SET id = 0 WHERE id = NEW.id; END", "SELECT 1"},
		},
		{
			"temp trigger with case",
			"create temp trigger tr before update on t begin\n  select case when new.id < 0 then raise(abort, 'neg;') end;\n  delete from log;\nend;\nSELECT 2;",
			[]string{"create temp trigger tr before update on t begin\n  select case when new.id < 0 then raise(abort, 'neg;') end;\n  delete from log;\nend", "SELECT 2"},
		},
		{
			"end outside trigger",
			"SELECT CASE WHEN 1 THEN 2 END; SELECT 3",
			[]string{"SELECT CASE WHEN 1 THEN 2 END", "SELECT 3"},
		},
		{
			"trigger named in a string",
			"SELECT 'CREATE TRIGGER x BEGIN'; SELECT 4",
			[]string{"SELECT 'CREATE TRIGGER x BEGIN'", "SELECT 4"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := splitStatements(tc.batch)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}
