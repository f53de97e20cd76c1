package knifesql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knifesql/knifesql/internal/observability"
)

// EngineKind identifies the SQL backend a Client talks to.
type EngineKind string

const (
	EngineSQLServer EngineKind = "sqlserver"
	EnginePostgres  EngineKind = "postgresql"
	EngineMySQL     EngineKind = "mysql"
	EngineSQLite    EngineKind = "sqlite"
)

var engineAliases = map[string]EngineKind{
	"sqlserver":  EngineSQLServer,
	"mssql":      EngineSQLServer,
	"postgresql": EnginePostgres,
	"postgres":   EnginePostgres,
	"pg":         EnginePostgres,
	"mysql":      EngineMySQL,
	"sqlite":     EngineSQLite,
	"sqlite3":    EngineSQLite,
}

// ParseEngineKind resolves a user supplied engine name, case-insensitively.
func ParseEngineKind(name string) (EngineKind, error) {
	kind, ok := engineAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &UnsupportedEngineError{Kind: EngineKind(name)}
	}
	return kind, nil
}

// Client is the contract every engine variant implements. A Client owns at
// most one live connection; its methods serialize access to it.
type Client interface {
	// Engine reports which backend this client targets.
	Engine() EngineKind

	// Connect opens a live connection. A previously open connection is closed first.
	Connect(ctx context.Context, connectionString string) error

	// Disconnect releases the connection. It is a no-op when nothing is open.
	Disconnect(ctx context.Context) error

	// ListTables runs the engine's catalog query and returns table names in catalog order.
	ListTables(ctx context.Context) ([]string, error)

	// FetchAll runs SELECT * FROM tableName. The name is not escaped.
	FetchAll(ctx context.Context, tableName string) ([]ResultRow, error)

	// Insert binds every value as a parameter. Identifiers are not escaped.
	Insert(ctx context.Context, tableName string, values map[string]any) error

	// Update sets values on rows where idColumn = idValue, all values bound as parameters.
	Update(ctx context.Context, tableName, idColumn string, idValue any, values map[string]any) error

	// Delete removes rows where idColumn = idValue, with idValue bound as a parameter.
	Delete(ctx context.Context, tableName, idColumn string, idValue any) error

	// ExecuteQuery runs query verbatim. Tabular results yield one row per
	// record; statements without columns yield one rows-affected row.
	ExecuteQuery(ctx context.Context, query string) ([]ResultRow, error)
}

// ReadOnlyEnforcer is implemented by clients that can switch their session to read-only.
type ReadOnlyEnforcer interface {
	EnforceReadOnly(ctx context.Context) error
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name       string
	DataType   string
	Nullable   bool
	Default    *string
	PrimaryKey bool
}

// SchemaDescriber is implemented by clients that can describe a table's columns.
type SchemaDescriber interface {
	DescribeTable(ctx context.Context, tableName string) ([]ColumnInfo, error)
}

var (
	// ErrNotConnected is matched by every error caused by a data operation
	// without a live connection.
	ErrNotConnected = errors.New("no open database connection")

	// ErrUnsupportedEngine is matched by UnsupportedEngineError.
	ErrUnsupportedEngine = errors.New("engine is not supported")

	// ErrNoColumns is returned by Insert and Update when no values are supplied.
	ErrNoColumns = errors.New("no column values supplied")
)

// ConnectionError reports a failed Connect.
type ConnectionError struct {
	Engine EngineKind
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Engine, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StatementError reports SQL the engine rejected or failed to run.
type StatementError struct {
	Engine EngineKind
	Query  string
	Err    error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: statement failed: %v", e.Engine, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// UnsupportedEngineError reports an engine kind no client variant exists for.
type UnsupportedEngineError struct {
	Kind EngineKind
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("engine %q is not supported", string(e.Kind))
}

func (e *UnsupportedEngineError) Is(target error) bool { return target == ErrUnsupportedEngine }

func notConnected(engine EngineKind) error {
	return fmt.Errorf("%s: %w", engine, ErrNotConnected)
}

// Options tune a client built by GetClient.
type Options struct {
	// Logger receives connection and statement events. Nil discards them.
	Logger *slog.Logger

	// ConnectTimeout bounds Connect. Zero leaves it to the driver.
	ConnectTimeout time.Duration
}

// Option mutates Options.
type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = observability.Discard()
	}
	return o
}

func (o Options) connectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.ConnectTimeout > 0 {
		return context.WithTimeout(ctx, o.ConnectTimeout)
	}
	return context.WithCancel(ctx)
}

// sqlOpener matches sql.Open so tests can substitute a mock database.
type sqlOpener func(driverName, dsn string) (*sql.DB, error)

// dbConn is the live handle of the database/sql based variants: a pool
// reduced to one pinned connection.
type dbConn struct {
	db   *sql.DB
	conn *sql.Conn
}

func openSQL(ctx context.Context, open sqlOpener, driverName, dsn string) (*dbConn, error) {
	db, err := open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &dbConn{db: db, conn: conn}, nil
}

func (h *dbConn) close() error {
	return errors.Join(h.conn.Close(), h.db.Close())
}

// lost reports errors after which the pinned connection cannot be used again.
func (h *dbConn) lost(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}

// queryResultSet runs one statement on the pinned connection and applies the
// tabular / rows-affected rule. affected is consulted only when the statement
// produced no columns, after its rows have been closed.
func (h *dbConn) queryResultSet(ctx context.Context, query string, convert valueConverter, affected func(context.Context, *sql.Conn) (int64, error)) ([]ResultRow, error) {
	rows, err := h.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	columns, err := rows.ColumnTypes()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("read columns: %w", err)
	}

	if len(columns) == 0 {
		if err := rows.Close(); err != nil {
			return nil, err
		}
		n, err := affected(ctx, h.conn)
		if err != nil {
			return nil, fmt.Errorf("read affected rows: %w", err)
		}
		return []ResultRow{affectedRow(n)}, nil
	}

	out, err := scanRows(rows, columns, convert)
	closeErr := rows.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return out, nil
}

// affectedBy returns an affected-rows reader that runs a scalar session query
// such as SELECT ROW_COUNT().
func affectedBy(query string) func(context.Context, *sql.Conn) (int64, error) {
	return func(ctx context.Context, conn *sql.Conn) (int64, error) {
		var n int64
		if err := conn.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return 0, err
		}
		return n, nil
	}
}

// firstColumn projects the named column, or the first column when name is
// empty, out of a result into a flat list.
func firstColumn(rows []ResultRow, name string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Len() == 0 {
			continue
		}
		if _, isSummary := row.RowsAffected(); isSummary {
			continue
		}
		value := row.At(0).Value
		if name != "" {
			v, ok := row.Get(name)
			if !ok {
				continue
			}
			value = v
		}
		out = append(out, value.String())
	}
	return out
}

// observe times fn as one statement against engine, records it and wraps a
// failure into a StatementError.
func (o Options) observe(ctx context.Context, engine EngineKind, query string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	observability.ObserveStatement(string(engine), elapsed, err)
	if err != nil {
		o.Logger.DebugContext(ctx, "statement_failed",
			slog.String("engine", string(engine)),
			slog.String("query", query),
			slog.String("duration", elapsed.String()),
			slog.Any("error", err),
		)
		return &StatementError{Engine: engine, Query: query, Err: err}
	}
	o.Logger.DebugContext(ctx, "statement_executed",
		slog.String("engine", string(engine)),
		slog.String("query", query),
		slog.String("duration", elapsed.String()),
	)
	return nil
}

// sqlBackend carries the per-engine pieces the database/sql based variants
// need to open and drive a pinned connection.
type sqlBackend struct {
	engine  EngineKind
	driver  string
	opts    Options
	open    sqlOpener
	session *session[*dbConn]
}

func newSQLBackend(engine EngineKind, driver string, opts []Option) sqlBackend {
	return sqlBackend{
		engine:  engine,
		driver:  driver,
		opts:    buildOptions(opts),
		open:    sql.Open,
		session: newSession(engine, (*dbConn).close, (*dbConn).lost),
	}
}

func (b *sqlBackend) connect(ctx context.Context, dsn string) error {
	ctx, cancel := b.opts.connectContext(ctx)
	defer cancel()

	err := b.session.open(func() (*dbConn, error) {
		return openSQL(ctx, b.open, b.driver, dsn)
	})
	if err != nil {
		b.opts.Logger.ErrorContext(ctx, "connect_failed",
			slog.String("engine", string(b.engine)),
			slog.Any("error", err),
		)
		return &ConnectionError{Engine: b.engine, Err: err}
	}
	b.opts.Logger.InfoContext(ctx, "connected", slog.String("engine", string(b.engine)))
	return nil
}

func (b *sqlBackend) disconnect(ctx context.Context) error {
	if !b.session.connected() {
		return nil
	}
	if err := b.session.release(); err != nil {
		return fmt.Errorf("%s: close connection: %w", b.engine, err)
	}
	b.opts.Logger.InfoContext(ctx, "disconnected", slog.String("engine", string(b.engine)))
	return nil
}

// exec runs a parameterized statement that returns no rows.
func (b *sqlBackend) exec(ctx context.Context, query string, args ...any) error {
	return b.session.with(func(h *dbConn) error {
		return b.opts.observe(ctx, b.engine, query, func() error {
			_, err := h.conn.ExecContext(ctx, query, args...)
			return err
		})
	})
}

// describe runs a catalog query yielding name, data type, "YES"/"NO"
// nullability, default and a primary-key marker, in that column order.
func (b *sqlBackend) describe(ctx context.Context, query string, args ...any) ([]ColumnInfo, error) {
	var out []ColumnInfo
	err := b.session.with(func(h *dbConn) error {
		return b.opts.observe(ctx, b.engine, query, func() error {
			rows, err := h.conn.QueryContext(ctx, query, args...)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var (
					col        ColumnInfo
					isNullable string
					def        sql.NullString
					pk         int64
				)
				if err := rows.Scan(&col.Name, &col.DataType, &isNullable, &def, &pk); err != nil {
					return fmt.Errorf("scan column: %w", err)
				}
				col.Nullable = strings.EqualFold(isNullable, "YES")
				if def.Valid {
					col.Default = &def.String
				}
				col.PrimaryKey = pk > 0
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
