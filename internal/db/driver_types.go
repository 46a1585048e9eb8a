package db

import (
	"fmt"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/pkg/errors"

	"github.com/axonops/cqlschema/internal/schema"
)

// UserTypesFromDriver converts the user types in the driver's cached
// keyspace metadata into resolved schema types. It is an alternative to
// KeyspaceLoader for callers that already hold driver metadata.
func UserTypesFromDriver(ks *gocql.KeyspaceMetadata) (map[string]schema.UserDefinedType, error) {
	if ks == nil {
		return nil, fmt.Errorf("no keyspace metadata")
	}
	shallow := make(map[string]schema.UserDefinedType, len(ks.UserTypes))
	for name, meta := range ks.UserTypes {
		if meta == nil {
			continue
		}
		if len(meta.FieldNames) != len(meta.FieldTypes) {
			return nil, errors.Errorf("type %s.%s has %d field names for %d field types",
				ks.Name, name, len(meta.FieldNames), len(meta.FieldTypes))
		}
		udt := schema.UserDefinedType{Keyspace: ks.Name, Name: name, Fields: make([]schema.Field, len(meta.FieldNames))}
		for i, info := range meta.FieldTypes {
			t, err := typeFromDriver(info, ks.Name)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s of type %s.%s", meta.FieldNames[i], ks.Name, name)
			}
			udt.Fields[i] = schema.Field{Name: meta.FieldNames[i], Type: t}
		}
		shallow[name] = udt
	}
	resolved, err := schema.ResolveUserTypes(shallow)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving user types of %s", ks.Name)
	}
	return resolved, nil
}

// typeFromDriver converts a driver type into a schema type, leaving user
// types as placeholders. The driver does not report frozen markers; inside a
// user type the server requires collections and nested user types to be
// frozen, so they are marked frozen here.
func typeFromDriver(info gocql.TypeInfo, keyspace string) (schema.Type, error) {
	if info == nil {
		return nil, fmt.Errorf("missing type information")
	}

	switch base := info.Type(); base {
	case gocql.TypeList, gocql.TypeSet, gocql.TypeMap:
		coll, ok := info.(gocql.CollectionType)
		if !ok {
			return nil, fmt.Errorf("unexpected %T for %s", info, typeNameFromType(base))
		}
		elem, err := typeFromDriver(coll.Elem, keyspace)
		if err != nil {
			return nil, err
		}
		out := schema.CollectionType{Elem: elem, Frozen: true}
		switch base {
		case gocql.TypeList:
			out.Kind = schema.List
		case gocql.TypeSet:
			out.Kind = schema.Set
		default:
			out.Kind = schema.Map
			if out.Key, err = typeFromDriver(coll.Key, keyspace); err != nil {
				return nil, err
			}
		}
		return out, nil
	case gocql.TypeTuple:
		tuple, ok := info.(gocql.TupleTypeInfo)
		if !ok {
			return nil, fmt.Errorf("unexpected %T for tuple", info)
		}
		components := make([]schema.Type, len(tuple.Elems))
		for i, elem := range tuple.Elems {
			c, err := typeFromDriver(elem, keyspace)
			if err != nil {
				return nil, err
			}
			components[i] = c
		}
		return schema.TupleOf(components...), nil
	case gocql.TypeUDT:
		udt, ok := info.(gocql.UDTTypeInfo)
		if !ok {
			return nil, fmt.Errorf("unexpected %T for user type", info)
		}
		ks := udt.Keyspace
		if ks == "" {
			ks = keyspace
		}
		return schema.ShallowUserType{Keyspace: ks, Name: udt.Name, Frozen: true}, nil
	case gocql.TypeCustom:
		if c, ok := info.(interface{ Custom() string }); ok && c.Custom() != "" {
			return schema.CustomType{ClassName: c.Custom()}, nil
		}
		return nil, fmt.Errorf("custom type without class name")
	default:
		native, ok := schema.LookupNativeType(typeNameFromType(base))
		if !ok {
			return nil, fmt.Errorf("unsupported driver type %s", typeNameFromType(base))
		}
		return native, nil
	}
}

// typeNameFromType converts gocql.Type to its CQL name
func typeNameFromType(t gocql.Type) string {
	switch t {
	case gocql.TypeCustom:
		return "custom"
	case gocql.TypeAscii:
		return "ascii"
	case gocql.TypeBigInt:
		return "bigint"
	case gocql.TypeBlob:
		return "blob"
	case gocql.TypeBoolean:
		return "boolean"
	case gocql.TypeCounter:
		return "counter"
	case gocql.TypeDecimal:
		return "decimal"
	case gocql.TypeDouble:
		return "double"
	case gocql.TypeFloat:
		return "float"
	case gocql.TypeInt:
		return "int"
	case gocql.TypeText:
		return "text"
	case gocql.TypeTimestamp:
		return "timestamp"
	case gocql.TypeUUID:
		return "uuid"
	case gocql.TypeVarchar:
		return "varchar"
	case gocql.TypeVarint:
		return "varint"
	case gocql.TypeTimeUUID:
		return "timeuuid"
	case gocql.TypeInet:
		return "inet"
	case gocql.TypeDate:
		return "date"
	case gocql.TypeDuration:
		return "duration"
	case gocql.TypeTime:
		return "time"
	case gocql.TypeSmallInt:
		return "smallint"
	case gocql.TypeTinyInt:
		return "tinyint"
	case gocql.TypeList:
		return "list"
	case gocql.TypeMap:
		return "map"
	case gocql.TypeSet:
		return "set"
	case gocql.TypeTuple:
		return "tuple"
	case gocql.TypeUDT:
		return "udt"
	default:
		return "unknown"
	}
}
