package knifesql

import (
	"encoding/hex"
	"strconv"
	"time"
)

// AffectedColumn is the name of the single entry in a rows-affected summary row.
const AffectedColumn = "Rows Affected"

// Kind identifies which scalar a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindBytes
	KindTime
	KindAffected
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindAffected:
		return "affected"
	default:
		return "unknown"
	}
}

// Value is a closed tagged scalar. The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
	t    time.Time
}

func NullValue() Value            { return Value{} }
func IntValue(v int64) Value      { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value  { return Value{kind: KindFloat, f: v} }
func StringValue(v string) Value  { return Value{kind: KindString, s: v} }
func TimeValue(v time.Time) Value { return Value{kind: KindTime, t: v} }
func AffectedValue(n int64) Value { return Value{kind: KindAffected, i: n} }
func BytesValue(v []byte) Value   { return Value{kind: KindBytes, b: append([]byte(nil), v...)} }
func BoolValue(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the integer payload of KindInt and KindAffected values.
func (v Value) Int() (int64, bool) {
	if v.kind == KindInt || v.kind == KindAffected {
		return v.i, true
	}
	return 0, false
}

func (v Value) Float() (float64, bool) {
	if v.kind == KindFloat {
		return v.f, true
	}
	return 0, false
}

func (v Value) Str() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

func (v Value) Bool() (bool, bool) {
	if v.kind == KindBool {
		return v.i == 1, true
	}
	return false, false
}

// Bytes returns a copy of the payload of a KindBytes value.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind == KindBytes {
		return append([]byte(nil), v.b...), true
	}
	return nil, false
}

func (v Value) Time() (time.Time, bool) {
	if v.kind == KindTime {
		return v.t, true
	}
	return time.Time{}, false
}

// Interface returns the payload as a plain Go value, nil for NULL.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt, KindAffected:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.i == 1
	case KindBytes:
		return append([]byte(nil), v.b...)
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// String renders the value for display. NULL renders as "NULL" and bytes as hex.
func (v Value) String() string {
	switch v.kind {
	case KindInt, KindAffected:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.i == 1)
	case KindBytes:
		return "0x" + hex.EncodeToString(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return "NULL"
	}
}

// Entry is one name/value pair of a ResultRow.
type Entry struct {
	Name  string
	Value Value
}

// ResultRow is one row of tabular output, or a rows-affected summary.
// Entries keep column order and duplicate names as the engine returned them.
type ResultRow struct {
	entries []Entry
}

// NewResultRow copies entries into a new row.
func NewResultRow(entries ...Entry) ResultRow {
	return ResultRow{entries: append([]Entry(nil), entries...)}
}

func affectedRow(n int64) ResultRow {
	return ResultRow{entries: []Entry{{Name: AffectedColumn, Value: AffectedValue(n)}}}
}

func (r ResultRow) Len() int { return len(r.entries) }

// Entries returns a copy of the row's entries.
func (r ResultRow) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

func (r ResultRow) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Get returns the first entry with the given name.
func (r ResultRow) Get(name string) (Value, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// At returns the entry at position i.
func (r ResultRow) At(i int) Entry {
	return r.entries[i]
}

// RowsAffected reports the count carried by a summary row.
func (r ResultRow) RowsAffected() (int64, bool) {
	if len(r.entries) != 1 || r.entries[0].Value.kind != KindAffected {
		return 0, false
	}
	return r.entries[0].Value.i, true
}
