package knifesql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePostgresValue(t *testing.T) {
	m := pgtype.NewMap()

	tests := []struct {
		name string
		oid  uint32
		src  []byte
		want Value
	}{
		{"int4", pgtype.Int4OID, []byte("42"), IntValue(42)},
		{"int8", pgtype.Int8OID, []byte("-9000000000"), IntValue(-9000000000)},
		{"float8", pgtype.Float8OID, []byte("1.25"), FloatValue(1.25)},
		{"bool", pgtype.BoolOID, []byte("t"), BoolValue(true)},
		{"text", pgtype.TextOID, []byte("hello"), StringValue("hello")},
		{"bytea", pgtype.ByteaOID, []byte(`\x01ff`), BytesValue([]byte{0x01, 0xff})},
		{"uuid", pgtype.UUIDOID, []byte("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), StringValue("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{"date", pgtype.DateOID, []byte("2024-02-29"), TimeValue(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))},
		{"null", pgtype.Int4OID, nil, NullValue()},
		{"unknown oid", 999999, []byte("raw"), StringValue("raw")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fd := pgconn.FieldDescription{Name: tc.name, DataTypeOID: tc.oid, Format: pgtype.TextFormatCode}
			assert.Equal(t, tc.want, decodePostgresValue(m, fd, tc.src))
		})
	}
}

func TestPostgresConnectFailure(t *testing.T) {
	c := NewPostgresClient(WithConnectTimeout(2 * time.Second))

	err := c.Connect(context.Background(), "not a valid = = connection string")
	require.Error(t, err)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, EnginePostgres, connErr.Engine)

	_, err = c.ExecuteQuery(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, c.Disconnect(context.Background()))
}
