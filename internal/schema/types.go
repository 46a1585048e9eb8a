// Package schema models CQL data types as stored in the Cassandra schema
// catalog, parses their string encodings, and renders schema objects back
// into canonical CREATE statements.
//
// All types in this package are immutable once constructed and can be shared
// between goroutines without synchronization.
package schema

import (
	"strings"
)

// Type is a CQL data type. The set of implementations is closed:
// NativeType, CollectionType, TupleType, UserDefinedType, ShallowUserType
// and CustomType.
type Type interface {
	// AsCQL renders the type as CQL. When includeFrozen is false the
	// outermost frozen<> marker is omitted; nested markers are always kept.
	AsCQL(includeFrozen bool) string
	IsFrozen() bool
	Equal(other Type) bool
	isType()
}

// Equal reports whether a and b describe the same type. Two nil types are equal.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// NativeType is one of the primitive CQL types.
type NativeType int

const (
	Ascii NativeType = iota + 1
	BigInt
	Blob
	Boolean
	Counter
	Date
	Decimal
	Double
	Duration
	Float
	Inet
	Int
	SmallInt
	Text
	Time
	Timestamp
	TimeUUID
	TinyInt
	UUID
	Varchar
	Varint
)

var nativeNames = map[NativeType]string{
	Ascii:     "ascii",
	BigInt:    "bigint",
	Blob:      "blob",
	Boolean:   "boolean",
	Counter:   "counter",
	Date:      "date",
	Decimal:   "decimal",
	Double:    "double",
	Duration:  "duration",
	Float:     "float",
	Inet:      "inet",
	Int:       "int",
	SmallInt:  "smallint",
	Text:      "text",
	Time:      "time",
	Timestamp: "timestamp",
	TimeUUID:  "timeuuid",
	TinyInt:   "tinyint",
	UUID:      "uuid",
	Varchar:   "varchar",
	Varint:    "varint",
}

var nativeByName = func() map[string]NativeType {
	m := make(map[string]NativeType, len(nativeNames))
	for t, name := range nativeNames {
		m[name] = t
	}
	return m
}()

// LookupNativeType returns the native type for a lower-case CQL keyword.
func LookupNativeType(name string) (NativeType, bool) {
	t, ok := nativeByName[name]
	return t, ok
}

// NativeTypes returns every native type in declaration order.
func NativeTypes() []NativeType {
	types := make([]NativeType, 0, len(nativeNames))
	for t := Ascii; t <= Varint; t++ {
		types = append(types, t)
	}
	return types
}

func (t NativeType) String() string {
	if name, ok := nativeNames[t]; ok {
		return name
	}
	return "unknown"
}

func (t NativeType) AsCQL(bool) string { return t.String() }
func (t NativeType) IsFrozen() bool    { return false }
func (t NativeType) isType()           {}

func (t NativeType) Equal(other Type) bool {
	o, ok := other.(NativeType)
	return ok && o == t
}

// CollectionKind distinguishes list, set and map collections.
type CollectionKind int

const (
	List CollectionKind = iota + 1
	Set
	Map
)

func (k CollectionKind) String() string {
	switch k {
	case List:
		return "list"
	case Set:
		return "set"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}

// CollectionType is a list, set or map. Key is only set for maps.
type CollectionType struct {
	Kind   CollectionKind
	Key    Type
	Elem   Type
	Frozen bool
}

// ListOf returns a non-frozen list of elem.
func ListOf(elem Type) CollectionType { return CollectionType{Kind: List, Elem: elem} }

// SetOf returns a non-frozen set of elem.
func SetOf(elem Type) CollectionType { return CollectionType{Kind: Set, Elem: elem} }

// MapOf returns a non-frozen map from key to value.
func MapOf(key, value Type) CollectionType {
	return CollectionType{Kind: Map, Key: key, Elem: value}
}

func (c CollectionType) AsCQL(includeFrozen bool) string {
	var sb strings.Builder
	if includeFrozen && c.Frozen {
		sb.WriteString("frozen<")
	}
	sb.WriteString(c.Kind.String())
	sb.WriteString("<")
	if c.Kind == Map {
		sb.WriteString(c.Key.AsCQL(true))
		sb.WriteString(", ")
	}
	sb.WriteString(c.Elem.AsCQL(true))
	sb.WriteString(">")
	if includeFrozen && c.Frozen {
		sb.WriteString(">")
	}
	return sb.String()
}

func (c CollectionType) String() string { return c.AsCQL(true) }
func (c CollectionType) IsFrozen() bool { return c.Frozen }
func (c CollectionType) isType()        {}

func (c CollectionType) Equal(other Type) bool {
	o, ok := other.(CollectionType)
	return ok && o.Kind == c.Kind && o.Frozen == c.Frozen &&
		Equal(o.Key, c.Key) && Equal(o.Elem, c.Elem)
}

// TupleType is an ordered, always-frozen sequence of component types.
type TupleType struct {
	Components []Type
}

// TupleOf returns a tuple of the given components.
func TupleOf(components ...Type) TupleType { return TupleType{Components: components} }

func (t TupleType) AsCQL(includeFrozen bool) string {
	parts := make([]string, len(t.Components))
	for i, c := range t.Components {
		parts[i] = c.AsCQL(true)
	}
	inner := "tuple<" + strings.Join(parts, ", ") + ">"
	if includeFrozen {
		return "frozen<" + inner + ">"
	}
	return inner
}

func (t TupleType) String() string { return t.AsCQL(true) }
func (t TupleType) IsFrozen() bool { return true }
func (t TupleType) isType()        {}

func (t TupleType) Equal(other Type) bool {
	o, ok := other.(TupleType)
	if !ok || len(o.Components) != len(t.Components) {
		return false
	}
	for i := range t.Components {
		if !Equal(t.Components[i], o.Components[i]) {
			return false
		}
	}
	return true
}

// Field is a named member of a user-defined type.
type Field struct {
	Name string
	Type Type
}

// UserDefinedType is a fully resolved user-defined type. Names are in their
// internal (unquoted, case-sensitive) form.
type UserDefinedType struct {
	Keyspace string
	Name     string
	Fields   []Field
	Frozen   bool
}

// FieldNames returns the field names in declaration order.
func (u UserDefinedType) FieldNames() []string {
	names := make([]string, len(u.Fields))
	for i, f := range u.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldType returns the type of the named field.
func (u UserDefinedType) FieldType(name string) (Type, bool) {
	for _, f := range u.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// WithFrozen returns a copy of u with the frozen flag set to frozen.
func (u UserDefinedType) WithFrozen(frozen bool) UserDefinedType {
	u.Frozen = frozen
	return u
}

func (u UserDefinedType) AsCQL(includeFrozen bool) string {
	return udtCQL(u.Keyspace, u.Name, includeFrozen && u.Frozen)
}

func (u UserDefinedType) String() string { return u.AsCQL(true) }
func (u UserDefinedType) IsFrozen() bool { return u.Frozen }
func (u UserDefinedType) isType()        {}

func (u UserDefinedType) Equal(other Type) bool {
	o, ok := other.(UserDefinedType)
	if !ok || o.Keyspace != u.Keyspace || o.Name != u.Name || o.Frozen != u.Frozen ||
		len(o.Fields) != len(u.Fields) {
		return false
	}
	for i := range u.Fields {
		if u.Fields[i].Name != o.Fields[i].Name || !Equal(u.Fields[i].Type, o.Fields[i].Type) {
			return false
		}
	}
	return true
}

// ShallowUserType is a placeholder for a user-defined type whose definition
// is not known yet. It only carries the lookup key and must be replaced by a
// UserDefinedType (see ResolveUserTypes) before any field data is needed.
type ShallowUserType struct {
	Keyspace string
	Name     string
	Frozen   bool
}

func (s ShallowUserType) AsCQL(includeFrozen bool) string {
	return udtCQL(s.Keyspace, s.Name, includeFrozen && s.Frozen)
}

func (s ShallowUserType) String() string { return s.AsCQL(true) }
func (s ShallowUserType) IsFrozen() bool { return s.Frozen }
func (s ShallowUserType) isType()        {}

func (s ShallowUserType) Equal(other Type) bool {
	o, ok := other.(ShallowUserType)
	return ok && o == s
}

// CustomType is a type identified by its server-side marshal class name.
type CustomType struct {
	ClassName string
}

func (c CustomType) AsCQL(bool) string {
	return "'" + strings.ReplaceAll(c.ClassName, "'", "''") + "'"
}

func (c CustomType) String() string { return c.AsCQL(true) }
func (c CustomType) IsFrozen() bool { return false }
func (c CustomType) isType()        {}

func (c CustomType) Equal(other Type) bool {
	o, ok := other.(CustomType)
	return ok && o == c
}

func udtCQL(keyspace, name string, frozen bool) string {
	ref := quoteTypeName(name)
	if keyspace != "" {
		ref = quoteTypeName(keyspace) + "." + ref
	}
	if frozen {
		return "frozen<" + ref + ">"
	}
	return ref
}

// quoteTypeName also quotes names that the type parser would read as a
// type keyword.
func quoteTypeName(name string) string {
	switch name {
	case "frozen", "list", "set", "map", "tuple":
		return Quote(name)
	}
	if _, ok := nativeByName[name]; ok {
		return Quote(name)
	}
	return QuoteIfNecessary(name)
}

// ContainsShallow reports whether t holds a ShallowUserType at any depth.
func ContainsShallow(t Type) bool {
	switch v := t.(type) {
	case ShallowUserType:
		return true
	case CollectionType:
		return (v.Key != nil && ContainsShallow(v.Key)) || ContainsShallow(v.Elem)
	case TupleType:
		for _, c := range v.Components {
			if ContainsShallow(c) {
				return true
			}
		}
	case UserDefinedType:
		for _, f := range v.Fields {
			if ContainsShallow(f.Type) {
				return true
			}
		}
	}
	return false
}

// WithFrozen returns t with its frozen flag set. Native and custom types
// have no frozen form and are returned unchanged; tuples are always frozen.
func WithFrozen(t Type, frozen bool) Type {
	switch v := t.(type) {
	case CollectionType:
		v.Frozen = frozen
		return v
	case UserDefinedType:
		return v.WithFrozen(frozen)
	case ShallowUserType:
		v.Frozen = frozen
		return v
	default:
		return t
	}
}
