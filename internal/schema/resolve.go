package schema

import (
	"sort"
)

// ResolveUserTypes replaces every ShallowUserType nested in the given user
// types with the resolved definition of its target. All types are expected
// to belong to the same keyspace, as produced by a Shallow parse of that
// keyspace's catalog rows. The input map is not modified.
//
// A placeholder naming a type that is not in the map fails with
// ErrUnknownUserType. Types that reference each other in a loop fail with
// ErrUnresolvedTypeCycle instead of recursing forever.
func ResolveUserTypes(types map[string]UserDefinedType) (map[string]UserDefinedType, error) {
	r := &resolver{
		pending:  types,
		resolved: make(map[string]UserDefinedType, len(types)),
		visiting: make(map[string]bool),
	}

	// Sorted so that errors are reported deterministically.
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := r.resolveNamed(types[name].Keyspace, name); err != nil {
			return nil, err
		}
	}
	return r.resolved, nil
}

// ResolveType substitutes placeholders in t using already resolved user
// types, keyed by name. It is used for function and aggregate types that were
// parsed before the keyspace's user types were known.
func ResolveType(t Type, userTypes map[string]UserDefinedType) (Type, error) {
	r := &resolver{
		pending:  userTypes,
		resolved: userTypes,
		visiting: make(map[string]bool),
	}
	return r.resolveType(t)
}

type resolver struct {
	pending  map[string]UserDefinedType
	resolved map[string]UserDefinedType
	visiting map[string]bool
	path     []string
}

func (r *resolver) resolveNamed(keyspace, name string) (UserDefinedType, error) {
	if udt, ok := r.resolved[name]; ok && udt.Keyspace == keyspace {
		return udt, nil
	}
	udt, ok := r.pending[name]
	if !ok || udt.Keyspace != keyspace {
		return UserDefinedType{}, &UnknownUserTypeError{Keyspace: keyspace, Name: name}
	}
	if r.visiting[name] {
		path := append(append([]string(nil), r.path...), name)
		return UserDefinedType{}, &CycleError{Keyspace: keyspace, Path: path}
	}

	r.visiting[name] = true
	r.path = append(r.path, name)
	defer func() {
		delete(r.visiting, name)
		r.path = r.path[:len(r.path)-1]
	}()

	fields := make([]Field, len(udt.Fields))
	for i, f := range udt.Fields {
		ft, err := r.resolveType(f.Type)
		if err != nil {
			return UserDefinedType{}, err
		}
		fields[i] = Field{Name: f.Name, Type: ft}
	}
	out := UserDefinedType{
		Keyspace: udt.Keyspace,
		Name:     udt.Name,
		Fields:   fields,
		Frozen:   udt.Frozen,
	}
	r.resolved[name] = out
	return out, nil
}

func (r *resolver) resolveType(t Type) (Type, error) {
	switch v := t.(type) {
	case ShallowUserType:
		udt, err := r.resolveNamed(v.Keyspace, v.Name)
		if err != nil {
			return nil, err
		}
		return udt.WithFrozen(v.Frozen), nil
	case CollectionType:
		if !ContainsShallow(v) {
			return v, nil
		}
		out := CollectionType{Kind: v.Kind, Frozen: v.Frozen}
		if v.Key != nil {
			key, err := r.resolveType(v.Key)
			if err != nil {
				return nil, err
			}
			out.Key = key
		}
		elem, err := r.resolveType(v.Elem)
		if err != nil {
			return nil, err
		}
		out.Elem = elem
		return out, nil
	case TupleType:
		if !ContainsShallow(v) {
			return v, nil
		}
		components := make([]Type, len(v.Components))
		for i, c := range v.Components {
			rc, err := r.resolveType(c)
			if err != nil {
				return nil, err
			}
			components[i] = rc
		}
		return TupleOf(components...), nil
	case UserDefinedType:
		if !ContainsShallow(v) {
			return v, nil
		}
		fields := make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			ft, err := r.resolveType(f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = Field{Name: f.Name, Type: ft}
		}
		return UserDefinedType{Keyspace: v.Keyspace, Name: v.Name, Fields: fields, Frozen: v.Frozen}, nil
	default:
		return t, nil
	}
}
