package knifesql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	postgresListTablesQuery = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`
	postgresDescribeQuery   = `SELECT c.column_name::text, c.data_type::text, c.is_nullable::text, c.column_default::text,
		EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage ku
				ON tc.constraint_name = ku.constraint_name AND tc.table_schema = ku.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = c.table_schema
				AND tc.table_name = c.table_name
				AND ku.column_name = c.column_name
		)
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position`
)

// PostgresClient implements Client for PostgreSQL on a native pgx
// connection. ExecuteQuery uses the simple protocol, so a submission may hold
// several statements; each one's command tag supplies its affected count.
type PostgresClient struct {
	opts    Options
	session *session[*pgx.Conn]
}

func NewPostgresClient(opts ...Option) *PostgresClient {
	return &PostgresClient{
		opts: buildOptions(opts),
		session: newSession(EnginePostgres,
			func(conn *pgx.Conn) error { return conn.Close(context.Background()) },
			func(conn *pgx.Conn, _ error) bool { return conn.IsClosed() },
		),
	}
}

func (c *PostgresClient) Engine() EngineKind { return EnginePostgres }

func (c *PostgresClient) Connect(ctx context.Context, connectionString string) error {
	ctx, cancel := c.opts.connectContext(ctx)
	defer cancel()

	err := c.session.open(func() (*pgx.Conn, error) {
		conn, err := pgx.Connect(ctx, connectionString)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return conn, nil
	})
	if err != nil {
		c.opts.Logger.ErrorContext(ctx, "connect_failed",
			slog.String("engine", string(EnginePostgres)),
			slog.Any("error", err),
		)
		return &ConnectionError{Engine: EnginePostgres, Err: err}
	}
	c.opts.Logger.InfoContext(ctx, "connected", slog.String("engine", string(EnginePostgres)))
	return nil
}

func (c *PostgresClient) Disconnect(ctx context.Context) error {
	if !c.session.connected() {
		return nil
	}
	if err := c.session.release(); err != nil {
		return fmt.Errorf("%s: close connection: %w", EnginePostgres, err)
	}
	c.opts.Logger.InfoContext(ctx, "disconnected", slog.String("engine", string(EnginePostgres)))
	return nil
}

func (c *PostgresClient) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.ExecuteQuery(ctx, postgresListTablesQuery)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows, "table_name"), nil
}

func (c *PostgresClient) FetchAll(ctx context.Context, tableName string) ([]ResultRow, error) {
	return c.ExecuteQuery(ctx, "SELECT * FROM "+tableName)
}

func (c *PostgresClient) Insert(ctx context.Context, tableName string, values map[string]any) error {
	if !c.session.connected() {
		return notConnected(EnginePostgres)
	}
	query, args, err := buildInsert(tableName, values, dollarNumbered)
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args...)
}

func (c *PostgresClient) Update(ctx context.Context, tableName, idColumn string, idValue any, values map[string]any) error {
	if !c.session.connected() {
		return notConnected(EnginePostgres)
	}
	query, args, err := buildUpdate(tableName, idColumn, idValue, values, dollarNumbered)
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args...)
}

func (c *PostgresClient) Delete(ctx context.Context, tableName, idColumn string, idValue any) error {
	query, args := buildDelete(tableName, idColumn, idValue, dollarNumbered)
	return c.exec(ctx, query, args...)
}

func (c *PostgresClient) exec(ctx context.Context, query string, args ...any) error {
	return c.session.with(func(conn *pgx.Conn) error {
		return c.opts.observe(ctx, EnginePostgres, query, func() error {
			_, err := conn.Exec(ctx, query, args...)
			return err
		})
	})
}

func (c *PostgresClient) ExecuteQuery(ctx context.Context, query string) ([]ResultRow, error) {
	var out []ResultRow
	err := c.session.with(func(conn *pgx.Conn) error {
		return c.opts.observe(ctx, EnginePostgres, query, func() error {
			rows, err := readResults(conn.PgConn().Exec(ctx, query), conn.TypeMap())
			out = rows
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readResults drains every result of a simple-protocol submission in order.
func readResults(mrr *pgconn.MultiResultReader, m *pgtype.Map) ([]ResultRow, error) {
	var out []ResultRow
	for mrr.NextResult() {
		rr := mrr.ResultReader()
		fields := rr.FieldDescriptions()

		var set []ResultRow
		for rr.NextRow() {
			raw := rr.Values()
			entries := make([]Entry, len(fields))
			for i, fd := range fields {
				entries[i] = Entry{Name: fd.Name, Value: decodePostgresValue(m, fd, raw[i])}
			}
			set = append(set, ResultRow{entries: entries})
		}

		tag, err := rr.Close()
		if err != nil {
			_ = mrr.Close()
			return nil, err
		}
		if len(fields) == 0 {
			out = append(out, affectedRow(tag.RowsAffected()))
			continue
		}
		out = append(out, set...)
	}
	if err := mrr.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodePostgresValue decodes one wire value through the connection's type
// map. Types the map does not know are returned as their text form.
func decodePostgresValue(m *pgtype.Map, fd pgconn.FieldDescription, src []byte) Value {
	if src == nil {
		return NullValue()
	}
	if dt, ok := m.TypeForOID(fd.DataTypeOID); ok {
		v, err := dt.Codec.DecodeValue(m, fd.DataTypeOID, fd.Format, src)
		if err == nil {
			return convertValue(v, dt.Name)
		}
	}
	if fd.Format == pgtype.BinaryFormatCode {
		return BytesValue(src)
	}
	return StringValue(string(src))
}

// EnforceReadOnly makes every later transaction on the session read-only.
func (c *PostgresClient) EnforceReadOnly(ctx context.Context) error {
	return c.exec(ctx, "SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY")
}

func (c *PostgresClient) DescribeTable(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	var out []ColumnInfo
	err := c.session.with(func(conn *pgx.Conn) error {
		return c.opts.observe(ctx, EnginePostgres, postgresDescribeQuery, func() error {
			rows, err := conn.Query(ctx, postgresDescribeQuery, tableName)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var (
					col        ColumnInfo
					isNullable string
				)
				if err := rows.Scan(&col.Name, &col.DataType, &isNullable, &col.Default, &col.PrimaryKey); err != nil {
					return fmt.Errorf("scan column: %w", err)
				}
				col.Nullable = isNullable == "YES"
				out = append(out, col)
			}
			return rows.Err()
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
