package knifesql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/golang-sql/sqlexp"
	mssql "github.com/microsoft/go-mssqldb"
)

const (
	sqlServerListTablesQuery = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE'`
	sqlServerDescribeQuery   = `SELECT c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE, c.COLUMN_DEFAULT,
		CASE WHEN k.COLUMN_NAME IS NULL THEN 0 ELSE 1 END
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
				ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = ku.TABLE_SCHEMA
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		) k ON k.TABLE_SCHEMA = c.TABLE_SCHEMA AND k.TABLE_NAME = c.TABLE_NAME AND k.COLUMN_NAME = c.COLUMN_NAME
		WHERE c.TABLE_NAME = @p1
		ORDER BY c.ORDINAL_POSITION`
)

// SQLServerClient implements Client for Microsoft SQL Server. A submission
// may hold a batch; every result set it produces is reported in order.
type SQLServerClient struct {
	sqlBackend
}

func NewSQLServerClient(opts ...Option) *SQLServerClient {
	return &SQLServerClient{sqlBackend: newSQLBackend(EngineSQLServer, "sqlserver", opts)}
}

func (c *SQLServerClient) Engine() EngineKind { return EngineSQLServer }

func (c *SQLServerClient) Connect(ctx context.Context, connectionString string) error {
	return c.connect(ctx, connectionString)
}

func (c *SQLServerClient) Disconnect(ctx context.Context) error {
	return c.disconnect(ctx)
}

func (c *SQLServerClient) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.ExecuteQuery(ctx, sqlServerListTablesQuery)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows, "TABLE_NAME"), nil
}

func (c *SQLServerClient) FetchAll(ctx context.Context, tableName string) ([]ResultRow, error) {
	return c.ExecuteQuery(ctx, "SELECT * FROM "+tableName)
}

func (c *SQLServerClient) Insert(ctx context.Context, tableName string, values map[string]any) error {
	if !c.session.connected() {
		return notConnected(c.engine)
	}
	query, args, err := buildInsert(tableName, values, atPNumbered)
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args...)
}

func (c *SQLServerClient) Update(ctx context.Context, tableName, idColumn string, idValue any, values map[string]any) error {
	if !c.session.connected() {
		return notConnected(c.engine)
	}
	query, args, err := buildUpdate(tableName, idColumn, idValue, values, atPNumbered)
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args...)
}

func (c *SQLServerClient) Delete(ctx context.Context, tableName, idColumn string, idValue any) error {
	query, args := buildDelete(tableName, idColumn, idValue, atPNumbered)
	return c.exec(ctx, query, args...)
}

// ExecuteQuery drives the driver's message stream: each result set with
// columns contributes its rows, each statement without columns contributes
// one rows-affected row. The first server error fails the whole call.
func (c *SQLServerClient) ExecuteQuery(ctx context.Context, query string) ([]ResultRow, error) {
	var out []ResultRow
	err := c.session.with(func(h *dbConn) error {
		return c.opts.observe(ctx, c.engine, query, func() error {
			rows, err := c.readMessages(ctx, h, query)
			out = rows
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SQLServerClient) readMessages(ctx context.Context, h *dbConn, query string) ([]ResultRow, error) {
	retmsg := &sqlexp.ReturnMessage{}
	rows, err := h.conn.QueryContext(ctx, query, retmsg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out        []ResultRow
		firstErr   error
		sawColumns bool
	)
	for active := true; active; {
		switch m := retmsg.Message(ctx).(type) {
		case sqlexp.MsgNotice:
			c.opts.Logger.DebugContext(ctx, "server_notice",
				slog.String("engine", string(c.engine)),
				slog.Any("message", m.Message),
			)
		case sqlexp.MsgNext:
			columns, err := rows.ColumnTypes()
			if err != nil {
				return nil, fmt.Errorf("read columns: %w", err)
			}
			sawColumns = len(columns) > 0
			set, err := scanRows(rows, columns, convertSQLServerValue)
			if err != nil {
				return nil, err
			}
			out = append(out, set...)
		case sqlexp.MsgRowsAffected:
			if !sawColumns {
				out = append(out, affectedRow(m.Count))
			}
		case sqlexp.MsgError:
			if firstErr == nil {
				firstErr = m.Error
			}
		case sqlexp.MsgNextResultSet:
			sawColumns = false
			active = rows.NextResultSet()
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SQLServerClient) DescribeTable(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	return c.describe(ctx, sqlServerDescribeQuery, tableName)
}

// convertSQLServerValue renders UNIQUEIDENTIFIER columns, which arrive in
// SQL Server's mixed-endian byte order, as canonical UUID text.
func convertSQLServerValue(v any, dbType string) Value {
	if b, ok := v.([]byte); ok && normalizeTypeName(dbType) == "UNIQUEIDENTIFIER" {
		var id mssql.UniqueIdentifier
		if err := id.Scan(b); err == nil {
			return StringValue(id.String())
		}
	}
	return convertValue(v, dbType)
}
