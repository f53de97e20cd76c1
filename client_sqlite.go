package knifesql

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	sqliteListTablesQuery = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	sqliteChangesQuery    = `SELECT changes()`
	sqliteTotalQuery      = `SELECT total_changes()`
	sqliteDescribeQuery   = `SELECT name, type, CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END, dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid`
)

// SQLiteClient implements Client for SQLite files and in-memory databases.
// A batch is split at top-level semicolons and every statement reports its
// own result.
type SQLiteClient struct {
	sqlBackend
}

func NewSQLiteClient(opts ...Option) *SQLiteClient {
	return &SQLiteClient{sqlBackend: newSQLBackend(EngineSQLite, "sqlite", opts)}
}

func (c *SQLiteClient) Engine() EngineKind { return EngineSQLite }

func (c *SQLiteClient) Connect(ctx context.Context, connectionString string) error {
	return c.connect(ctx, connectionString)
}

func (c *SQLiteClient) Disconnect(ctx context.Context) error {
	return c.disconnect(ctx)
}

func (c *SQLiteClient) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.ExecuteQuery(ctx, sqliteListTablesQuery)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows, "name"), nil
}

func (c *SQLiteClient) FetchAll(ctx context.Context, tableName string) ([]ResultRow, error) {
	return c.ExecuteQuery(ctx, "SELECT * FROM "+tableName)
}

func (c *SQLiteClient) Insert(ctx context.Context, tableName string, values map[string]any) error {
	if !c.session.connected() {
		return notConnected(c.engine)
	}
	query, args, err := buildInsert(tableName, values, questionMark)
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args...)
}

func (c *SQLiteClient) Update(ctx context.Context, tableName, idColumn string, idValue any, values map[string]any) error {
	if !c.session.connected() {
		return notConnected(c.engine)
	}
	query, args, err := buildUpdate(tableName, idColumn, idValue, values, questionMark)
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args...)
}

func (c *SQLiteClient) Delete(ctx context.Context, tableName, idColumn string, idValue any) error {
	query, args := buildDelete(tableName, idColumn, idValue, questionMark)
	return c.exec(ctx, query, args...)
}

// ExecuteQuery runs each statement of the batch in order. A failing statement
// stops the batch; statements before it stay applied.
func (c *SQLiteClient) ExecuteQuery(ctx context.Context, query string) ([]ResultRow, error) {
	var out []ResultRow
	err := c.session.with(func(h *dbConn) error {
		for _, stmt := range splitStatements(query) {
			err := c.opts.observe(ctx, c.engine, stmt, func() error {
				before, err := affectedBy(sqliteTotalQuery)(ctx, h.conn)
				if err != nil {
					return fmt.Errorf("read change counter: %w", err)
				}
				rows, err := h.queryResultSet(ctx, stmt, convertValue, changedSince(before))
				out = append(out, rows...)
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// changedSince reports the rows the last statement changed. changes() keeps
// the count of the last INSERT, UPDATE or DELETE across DDL, so it is only
// trusted when total_changes() moved past before; otherwise the statement
// changed nothing. changes() leaves out rows changed by triggers.
func changedSince(before int64) func(context.Context, *sql.Conn) (int64, error) {
	return func(ctx context.Context, conn *sql.Conn) (int64, error) {
		total, err := affectedBy(sqliteTotalQuery)(ctx, conn)
		if err != nil {
			return 0, err
		}
		if total == before {
			return 0, nil
		}
		return affectedBy(sqliteChangesQuery)(ctx, conn)
	}
}

// EnforceReadOnly rejects every later write on the connection.
func (c *SQLiteClient) EnforceReadOnly(ctx context.Context) error {
	return c.exec(ctx, "PRAGMA query_only = ON")
}

func (c *SQLiteClient) DescribeTable(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	return c.describe(ctx, sqliteDescribeQuery, tableName)
}
