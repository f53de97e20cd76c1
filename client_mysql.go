package knifesql

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlListTablesQuery = `SHOW TABLES`
	mysqlRowCountQuery   = `SELECT ROW_COUNT()`
	mysqlDescribeQuery   = `SELECT column_name, data_type, is_nullable, column_default,
		CASE WHEN column_key = 'PRI' THEN 1 ELSE 0 END
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`
)

var errMultiStatements = errors.New("multiStatements=true is not supported: submit one statement per query")

// MySQLClient implements Client for MySQL. The driver runs one statement per
// submission, so ExecuteQuery handles exactly one result set. Connection
// strings that enable multiStatements are refused.
type MySQLClient struct {
	sqlBackend
}

func NewMySQLClient(opts ...Option) *MySQLClient {
	return &MySQLClient{sqlBackend: newSQLBackend(EngineMySQL, "mysql", opts)}
}

func (c *MySQLClient) Engine() EngineKind { return EngineMySQL }

func (c *MySQLClient) Connect(ctx context.Context, connectionString string) error {
	if cfg, err := mysql.ParseDSN(connectionString); err == nil && cfg.MultiStatements {
		_ = c.session.release()
		return &ConnectionError{Engine: c.engine, Err: errMultiStatements}
	}
	return c.connect(ctx, connectionString)
}

func (c *MySQLClient) Disconnect(ctx context.Context) error {
	return c.disconnect(ctx)
}

func (c *MySQLClient) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.ExecuteQuery(ctx, mysqlListTablesQuery)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows, ""), nil
}

func (c *MySQLClient) FetchAll(ctx context.Context, tableName string) ([]ResultRow, error) {
	return c.ExecuteQuery(ctx, "SELECT * FROM "+tableName)
}

func (c *MySQLClient) Insert(ctx context.Context, tableName string, values map[string]any) error {
	if !c.session.connected() {
		return notConnected(c.engine)
	}
	query, args, err := buildInsert(tableName, values, questionMark)
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args...)
}

func (c *MySQLClient) Update(ctx context.Context, tableName, idColumn string, idValue any, values map[string]any) error {
	if !c.session.connected() {
		return notConnected(c.engine)
	}
	query, args, err := buildUpdate(tableName, idColumn, idValue, values, questionMark)
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args...)
}

func (c *MySQLClient) Delete(ctx context.Context, tableName, idColumn string, idValue any) error {
	query, args := buildDelete(tableName, idColumn, idValue, questionMark)
	return c.exec(ctx, query, args...)
}

func (c *MySQLClient) ExecuteQuery(ctx context.Context, query string) ([]ResultRow, error) {
	var out []ResultRow
	err := c.session.with(func(h *dbConn) error {
		return c.opts.observe(ctx, c.engine, query, func() error {
			rows, err := h.queryResultSet(ctx, query, convertValue, affectedBy(mysqlRowCountQuery))
			out = rows
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EnforceReadOnly makes every later transaction on the session read-only.
func (c *MySQLClient) EnforceReadOnly(ctx context.Context) error {
	return c.exec(ctx, "SET SESSION TRANSACTION READ ONLY")
}

func (c *MySQLClient) DescribeTable(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	return c.describe(ctx, mysqlDescribeQuery, tableName)
}
