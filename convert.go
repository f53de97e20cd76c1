package knifesql

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// valueConverter turns one scanned driver value into a Value.
// dbType is the column's database type name, possibly empty.
type valueConverter func(v any, dbType string) Value

var (
	binaryTypes = map[string]bool{
		"BLOB": true, "TINYBLOB": true, "MEDIUMBLOB": true, "LONGBLOB": true,
		"BINARY": true, "VARBINARY": true, "BYTEA": true, "IMAGE": true,
		"BIT": true, "GEOMETRY": true,
	}
	integerTypes = map[string]bool{
		"INT": true, "INTEGER": true, "TINYINT": true, "SMALLINT": true,
		"MEDIUMINT": true, "BIGINT": true, "INT2": true, "INT4": true, "INT8": true,
		"YEAR": true,
	}
	floatTypes = map[string]bool{
		"FLOAT": true, "DOUBLE": true, "REAL": true, "FLOAT4": true, "FLOAT8": true,
		"DOUBLE PRECISION": true,
	}
	boolTypes = map[string]bool{
		"BOOL": true, "BOOLEAN": true,
	}
)

// normalizeTypeName upper-cases a column type and drops length/precision and
// signedness decorations, e.g. "unsigned bigint" -> "BIGINT", "varchar(20)" -> "VARCHAR".
func normalizeTypeName(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if idx := strings.Index(t, "("); idx != -1 {
		t = strings.TrimSpace(t[:idx])
	}
	t = strings.TrimPrefix(t, "UNSIGNED ")
	t = strings.TrimSuffix(t, " UNSIGNED")
	return t
}

func convertValue(v any, dbType string) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case int64:
		return IntValue(x)
	case int32:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint8:
		return IntValue(int64(x))
	case uint64:
		if x > math.MaxInt64 {
			return StringValue(strconv.FormatUint(x, 10))
		}
		return IntValue(int64(x))
	case float64:
		return FloatValue(x)
	case float32:
		return FloatValue(float64(x))
	case bool:
		return BoolValue(x)
	case string:
		return StringValue(x)
	case time.Time:
		return TimeValue(x)
	case []byte:
		return convertBytes(x, dbType)
	case [16]byte:
		return StringValue(uuid.UUID(x).String())
	case driver.Valuer:
		inner, err := x.Value()
		if err != nil {
			return StringValue(fmt.Sprint(x))
		}
		if _, again := inner.(driver.Valuer); again {
			return StringValue(fmt.Sprint(inner))
		}
		return convertValue(inner, dbType)
	case fmt.Stringer:
		return StringValue(x.String())
	case map[string]any, []any:
		encoded, err := json.Marshal(x)
		if err != nil {
			return StringValue(fmt.Sprint(x))
		}
		return StringValue(string(encoded))
	default:
		return StringValue(fmt.Sprint(x))
	}
}

// convertBytes types a raw byte payload by its column type. Text protocols
// deliver numbers as bytes, so those are parsed back to numbers.
func convertBytes(b []byte, dbType string) Value {
	t := normalizeTypeName(dbType)
	switch {
	case binaryTypes[t]:
		return BytesValue(b)
	case integerTypes[t]:
		if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return IntValue(n)
		}
		return StringValue(string(b))
	case floatTypes[t]:
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return FloatValue(f)
		}
		return StringValue(string(b))
	case boolTypes[t]:
		if parsed, err := strconv.ParseBool(string(b)); err == nil {
			return BoolValue(parsed)
		}
		return StringValue(string(b))
	case t == "":
		return BytesValue(b)
	default:
		return StringValue(string(b))
	}
}

// scanRows reads every row of the current result set. columns must come from
// rows.ColumnTypes() of the same result set.
func scanRows(rows *sql.Rows, columns []*sql.ColumnType, convert valueConverter) ([]ResultRow, error) {
	var out []ResultRow
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out)+1, err)
		}

		entries := make([]Entry, len(columns))
		for i, col := range columns {
			entries[i] = Entry{Name: col.Name(), Value: convert(values[i], col.DatabaseTypeName())}
		}
		out = append(out, ResultRow{entries: entries})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
