package schema

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"net"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// LiteralFormatter renders Go values as CQL literals of one fixed type.
type LiteralFormatter interface {
	FormatLiteral(value any) (string, error)
}

// LiteralFormatterFunc adapts a function to LiteralFormatter.
type LiteralFormatterFunc func(value any) (string, error)

func (f LiteralFormatterFunc) FormatLiteral(value any) (string, error) { return f(value) }

// RawLiteral is text that is already a CQL literal, such as the INITCOND
// column of system_schema.aggregates. Formatters emit it unchanged.
type RawLiteral string

func (r RawLiteral) String() string { return string(r) }

// NewLiteralFormatter returns the default formatter for values of type t.
func NewLiteralFormatter(t Type) LiteralFormatter {
	return LiteralFormatterFunc(func(value any) (string, error) {
		return FormatLiteral(t, value)
	})
}

// FormatLiteral renders value as a CQL literal of type t. Values whose Go
// type does not match t fail with a *FormatError.
func FormatLiteral(t Type, value any) (string, error) {
	if value == nil {
		return "null", nil
	}
	if raw, ok := value.(RawLiteral); ok {
		return string(raw), nil
	}

	switch typ := t.(type) {
	case NativeType:
		return formatNative(typ, value)
	case CollectionType:
		return formatCollection(typ, value)
	case TupleType:
		return formatTuple(typ, value)
	case UserDefinedType:
		return formatUDT(typ, value)
	case CustomType:
		if b, ok := value.([]byte); ok {
			return formatBytes(b), nil
		}
		return "", mismatch(t, value)
	case ShallowUserType:
		return "", &FormatError{Type: t, Value: value, Err: fmt.Errorf("user type %s is not resolved", typ.Name)}
	default:
		return "", &FormatError{Type: t, Value: value, Err: fmt.Errorf("unsupported type")}
	}
}

func mismatch(t Type, value any) error {
	return &FormatError{Type: t, Value: value, Err: fmt.Errorf("unexpected Go type %T", value)}
}

func formatNative(t NativeType, value any) (string, error) {
	switch t {
	case Ascii, Text, Varchar:
		if s, ok := value.(string); ok {
			return quoteString(s), nil
		}
	case TinyInt:
		return formatInteger(t, value, 8)
	case SmallInt:
		return formatInteger(t, value, 16)
	case Int:
		return formatInteger(t, value, 32)
	case BigInt, Counter:
		return formatInteger(t, value, 64)
	case Varint:
		switch v := value.(type) {
		case *big.Int:
			if v != nil {
				return v.String(), nil
			}
		default:
			return formatInteger(t, value, 64)
		}
	case Float:
		switch v := value.(type) {
		case float32:
			return formatFloat(float64(v), 32), nil
		case float64:
			return formatFloat(v, 32), nil
		}
	case Double:
		switch v := value.(type) {
		case float64:
			return formatFloat(v, 64), nil
		case float32:
			return formatFloat(float64(v), 64), nil
		}
	case Decimal:
		switch v := value.(type) {
		case *inf.Dec:
			if v != nil {
				return v.String(), nil
			}
		case float64:
			return formatFloat(v, 64), nil
		}
	case Boolean:
		if b, ok := value.(bool); ok {
			return strconv.FormatBool(b), nil
		}
	case UUID, TimeUUID:
		return formatUUID(t, value)
	case Timestamp:
		switch v := value.(type) {
		case time.Time:
			return "'" + v.UTC().Format("2006-01-02T15:04:05.000Z07:00") + "'", nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		}
	case Date:
		if v, ok := value.(time.Time); ok {
			return "'" + v.UTC().Format("2006-01-02") + "'", nil
		}
	case Time:
		switch v := value.(type) {
		case time.Duration:
			return formatTimeOfDay(t, value, int64(v))
		case int64:
			return formatTimeOfDay(t, value, v)
		}
	case Duration:
		switch v := value.(type) {
		case gocql.Duration:
			return formatDuration(int64(v.Months), int64(v.Days), v.Nanoseconds), nil
		case time.Duration:
			return formatDuration(0, 0, int64(v)), nil
		}
	case Blob:
		if b, ok := value.([]byte); ok {
			return formatBytes(b), nil
		}
	case Inet:
		if ip, ok := value.(net.IP); ok && ip != nil {
			return "'" + ip.String() + "'", nil
		}
	}
	return "", mismatch(t, value)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatInteger(t NativeType, value any, bits int) (string, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	default:
		return "", mismatch(t, value)
	}
	if bits < 64 {
		limit := int64(1) << (bits - 1)
		if n < -limit || n >= limit {
			return "", &FormatError{Type: t, Value: value, Err: fmt.Errorf("%d overflows %s", n, t)}
		}
	}
	return strconv.FormatInt(n, 10), nil
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func formatUUID(t NativeType, value any) (string, error) {
	var s string
	var version int
	switch v := value.(type) {
	case gocql.UUID:
		s, version = v.String(), v.Version()
	case uuid.UUID:
		s, version = v.String(), int(v.Version())
	default:
		return "", mismatch(t, value)
	}
	if t == TimeUUID && version != 1 {
		return "", &FormatError{Type: t, Value: value, Err: fmt.Errorf("uuid version %d is not time based", version)}
	}
	return s, nil
}

func formatTimeOfDay(t NativeType, value any, nanos int64) (string, error) {
	if nanos < 0 || nanos >= int64(24*time.Hour) {
		return "", &FormatError{Type: t, Value: value, Err: fmt.Errorf("%d ns is not a time of day", nanos)}
	}
	d := time.Duration(nanos)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("'%02d:%02d:%02d.%09d'", h, m, s, d), nil
}

func formatDuration(months, days, nanos int64) string {
	if months == 0 && days == 0 && nanos == 0 {
		return "0ns"
	}
	var sb strings.Builder
	if months < 0 || days < 0 || nanos < 0 {
		sb.WriteString("-")
		months, days, nanos = abs(months), abs(days), abs(nanos)
	}
	if months != 0 {
		fmt.Fprintf(&sb, "%dmo", months)
	}
	if days != 0 {
		fmt.Fprintf(&sb, "%dd", days)
	}
	if nanos != 0 {
		fmt.Fprintf(&sb, "%dns", nanos)
	}
	return sb.String()
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func formatBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func formatCollection(t CollectionType, value any) (string, error) {
	rv := reflect.ValueOf(value)
	switch t.Kind {
	case List, Set:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return "", mismatch(t, value)
		}
		items := make([]string, rv.Len())
		for i := range items {
			item, err := FormatLiteral(t.Elem, rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			items[i] = item
		}
		if t.Kind == List {
			return "[" + strings.Join(items, ", ") + "]", nil
		}
		return "{" + strings.Join(items, ", ") + "}", nil
	case Map:
		if rv.Kind() != reflect.Map {
			return "", mismatch(t, value)
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := FormatLiteral(t.Key, iter.Key().Interface())
			if err != nil {
				return "", err
			}
			v, err := FormatLiteral(t.Elem, iter.Value().Interface())
			if err != nil {
				return "", err
			}
			pairs = append(pairs, k+": "+v)
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ", ") + "}", nil
	}
	return "", mismatch(t, value)
}

func formatTuple(t TupleType, value any) (string, error) {
	values, ok := value.([]any)
	if !ok {
		return "", mismatch(t, value)
	}
	if len(values) != len(t.Components) {
		return "", &FormatError{Type: t, Value: value,
			Err: fmt.Errorf("tuple has %d components, got %d values", len(t.Components), len(values))}
	}
	items := make([]string, len(values))
	for i, v := range values {
		item, err := FormatLiteral(t.Components[i], v)
		if err != nil {
			return "", err
		}
		items[i] = item
	}
	return "(" + strings.Join(items, ", ") + ")", nil
}

func formatUDT(t UserDefinedType, value any) (string, error) {
	values, ok := value.(map[string]any)
	if !ok {
		return "", mismatch(t, value)
	}
	for name := range values {
		if _, known := t.FieldType(name); !known {
			return "", &FormatError{Type: t, Value: value, Err: fmt.Errorf("unknown field %q", name)}
		}
	}
	items := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		item, err := FormatLiteral(f.Type, values[f.Name])
		if err != nil {
			return "", err
		}
		items[i] = QuoteIfNecessary(f.Name) + ": " + item
	}
	return "{" + strings.Join(items, ", ") + "}", nil
}
