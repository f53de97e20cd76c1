package knifesql

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientReturnsVariantPerEngine(t *testing.T) {
	tests := []struct {
		kind EngineKind
		want any
	}{
		{EngineSQLServer, &SQLServerClient{}},
		{EnginePostgres, &PostgresClient{}},
		{EngineMySQL, &MySQLClient{}},
		{EngineSQLite, &SQLiteClient{}},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			c, err := GetClient(tc.kind)
			require.NoError(t, err)
			assert.IsType(t, tc.want, c)
			assert.Equal(t, tc.kind, c.Engine())
		})
	}
}

func TestGetClientReturnsFreshInstances(t *testing.T) {
	a, err := GetClient(EngineSQLite)
	require.NoError(t, err)
	b, err := GetClient(EngineSQLite)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestGetClientUnsupportedEngine(t *testing.T) {
	c, err := GetClient(EngineKind("oracle"))
	assert.Nil(t, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedEngine)

	var unsupported *UnsupportedEngineError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, EngineKind("oracle"), unsupported.Kind)
}

func TestEveryEngineRejectsOperationsBeforeConnect(t *testing.T) {
	ctx := context.Background()

	for _, kind := range Engines() {
		t.Run(string(kind), func(t *testing.T) {
			c, err := GetClient(kind)
			require.NoError(t, err)

			ops := map[string]func() error{
				"ListTables": func() error { _, err := c.ListTables(ctx); return err },
				"FetchAll":   func() error { _, err := c.FetchAll(ctx, "t"); return err },
				"Insert":     func() error { return c.Insert(ctx, "t", map[string]any{"a": 1}) },
				"InsertNone": func() error { return c.Insert(ctx, "t", nil) },
				"Update":     func() error { return c.Update(ctx, "t", "id", 1, map[string]any{"a": 1}) },
				"Delete":     func() error { return c.Delete(ctx, "t", "id", 1) },
				"Execute":    func() error { _, err := c.ExecuteQuery(ctx, "SELECT 1"); return err },
			}
			if d, ok := c.(SchemaDescriber); ok {
				ops["DescribeTable"] = func() error { _, err := d.DescribeTable(ctx, "t"); return err }
			}
			if r, ok := c.(ReadOnlyEnforcer); ok {
				ops["EnforceReadOnly"] = func() error { return r.EnforceReadOnly(ctx) }
			}

			for name, op := range ops {
				err := op()
				assert.ErrorIs(t, err, ErrNotConnected, name)
				assert.Contains(t, err.Error(), string(kind), name)
			}

			assert.NoError(t, c.Disconnect(ctx))
		})
	}
}

func TestParseEngineKind(t *testing.T) {
	tests := []struct {
		in   string
		want EngineKind
	}{
		{"sqlserver", EngineSQLServer},
		{"MSSQL", EngineSQLServer},
		{"postgresql", EnginePostgres},
		{"postgres", EnginePostgres},
		{" pg ", EnginePostgres},
		{"MySQL", EngineMySQL},
		{"sqlite", EngineSQLite},
		{"sqlite3", EngineSQLite},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseEngineKind(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseEngineKind("db2")
	assert.ErrorIs(t, err, ErrUnsupportedEngine)
}

func TestSQLServerDoesNotEnforceReadOnly(t *testing.T) {
	c, err := GetClient(EngineSQLServer)
	require.NoError(t, err)
	_, ok := c.(ReadOnlyEnforcer)
	assert.False(t, ok)
}
