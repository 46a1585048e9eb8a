package db

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/axonops/cqlschema/internal/schema"
)

// TypeRow is one row of system_schema.types.
type TypeRow struct {
	Keyspace   string
	Name       string
	FieldNames []string
	FieldTypes []string
}

// FunctionRow is one row of system_schema.functions.
type FunctionRow struct {
	Keyspace          string
	Name              string
	ArgumentNames     []string
	ArgumentTypes     []string
	ReturnType        string
	Language          string
	Body              string
	CalledOnNullInput bool
}

// AggregateRow is one row of system_schema.aggregates. InitCond is nil when
// the aggregate has no initial condition.
type AggregateRow struct {
	Keyspace      string
	Name          string
	ArgumentTypes []string
	StateFunc     string
	StateType     string
	FinalFunc     string
	InitCond      *string
	ReturnType    string
}

// CatalogReader fetches the raw schema rows of one keyspace.
type CatalogReader interface {
	UserTypes(ctx context.Context, keyspace string) ([]TypeRow, error)
	Functions(ctx context.Context, keyspace string) ([]FunctionRow, error)
	Aggregates(ctx context.Context, keyspace string) ([]AggregateRow, error)
}

// SystemSchemaReader reads the system_schema tables of a live cluster.
type SystemSchemaReader struct {
	session *Session
}

// NewSystemSchemaReader returns a reader backed by session.
func NewSystemSchemaReader(session *Session) *SystemSchemaReader {
	return &SystemSchemaReader{session: session}
}

func (r *SystemSchemaReader) UserTypes(ctx context.Context, keyspace string) ([]TypeRow, error) {
	query := `SELECT type_name, field_names, field_types
	          FROM system_schema.types
	          WHERE keyspace_name = ?`
	iter := r.session.iter(ctx, query, keyspace)

	var rows []TypeRow
	var name string
	var fieldNames, fieldTypes []string
	for iter.Scan(&name, &fieldNames, &fieldTypes) {
		rows = append(rows, TypeRow{
			Keyspace:   keyspace,
			Name:       name,
			FieldNames: fieldNames,
			FieldTypes: fieldTypes,
		})
		fieldNames, fieldTypes = nil, nil
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrapf(err, "reading system_schema.types for %s", keyspace)
	}
	return rows, nil
}

func (r *SystemSchemaReader) Functions(ctx context.Context, keyspace string) ([]FunctionRow, error) {
	query := `SELECT function_name, argument_types, argument_names, return_type,
	                language, body, called_on_null_input
	          FROM system_schema.functions
	          WHERE keyspace_name = ?`
	iter := r.session.iter(ctx, query, keyspace)

	var rows []FunctionRow
	var name, returnType, language, body string
	var argumentTypes, argumentNames []string
	var calledOnNull bool
	for iter.Scan(&name, &argumentTypes, &argumentNames, &returnType, &language, &body, &calledOnNull) {
		rows = append(rows, FunctionRow{
			Keyspace:          keyspace,
			Name:              name,
			ArgumentNames:     argumentNames,
			ArgumentTypes:     argumentTypes,
			ReturnType:        returnType,
			Language:          language,
			Body:              body,
			CalledOnNullInput: calledOnNull,
		})
		argumentTypes, argumentNames = nil, nil
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrapf(err, "reading system_schema.functions for %s", keyspace)
	}
	return rows, nil
}

func (r *SystemSchemaReader) Aggregates(ctx context.Context, keyspace string) ([]AggregateRow, error) {
	query := `SELECT aggregate_name, argument_types, state_func, state_type,
	                final_func, initcond, return_type
	          FROM system_schema.aggregates
	          WHERE keyspace_name = ?`
	iter := r.session.iter(ctx, query, keyspace)

	var rows []AggregateRow
	var name, stateFunc, stateType, finalFunc, returnType string
	var initCond *string
	var argumentTypes []string
	for iter.Scan(&name, &argumentTypes, &stateFunc, &stateType, &finalFunc, &initCond, &returnType) {
		rows = append(rows, AggregateRow{
			Keyspace:      keyspace,
			Name:          name,
			ArgumentTypes: argumentTypes,
			StateFunc:     stateFunc,
			StateType:     stateType,
			FinalFunc:     finalFunc,
			InitCond:      initCond,
			ReturnType:    returnType,
		})
		argumentTypes, initCond = nil, nil
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrapf(err, "reading system_schema.aggregates for %s", keyspace)
	}
	return rows, nil
}

// Keyspace is a resolved snapshot of the user types, functions and
// aggregates of one keyspace.
type Keyspace struct {
	Name       string
	UserTypes  map[string]schema.UserDefinedType
	Functions  []schema.FunctionMetadata
	Aggregates []schema.AggregateMetadata
}

// UserType returns the named user type.
func (k *Keyspace) UserType(name string) (schema.UserDefinedType, bool) {
	udt, ok := k.UserTypes[name]
	return udt, ok
}

// FunctionsNamed returns every overload of the named function.
func (k *Keyspace) FunctionsNamed(name string) []schema.FunctionMetadata {
	var out []schema.FunctionMetadata
	for _, f := range k.Functions {
		if f.Signature().Name == name {
			out = append(out, f)
		}
	}
	return out
}

// AggregatesNamed returns every overload of the named aggregate.
func (k *Keyspace) AggregatesNamed(name string) []schema.AggregateMetadata {
	var out []schema.AggregateMetadata
	for _, a := range k.Aggregates {
		if a.Signature().Name == name {
			out = append(out, a)
		}
	}
	return out
}

// OrderedUserTypes returns the user types so that every type comes after
// the types it references, ties broken by name.
func (k *Keyspace) OrderedUserTypes() []schema.UserDefinedType {
	names := make([]string, 0, len(k.UserTypes))
	for name := range k.UserTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	done := make(map[string]bool, len(names))
	out := make([]schema.UserDefinedType, 0, len(names))
	var visit func(name string)
	visit = func(name string) {
		udt, ok := k.UserTypes[name]
		if !ok || done[name] {
			return
		}
		done[name] = true
		for _, dep := range referencedUserTypes(udt) {
			visit(dep)
		}
		out = append(out, udt)
	}
	for _, name := range names {
		visit(name)
	}
	return out
}

// Objects returns every describable object: user types in dependency order,
// then functions, then aggregates.
func (k *Keyspace) Objects() []schema.Describable {
	var out []schema.Describable
	for _, udt := range k.OrderedUserTypes() {
		out = append(out, udt)
	}
	for _, f := range k.Functions {
		out = append(out, f)
	}
	for _, a := range k.Aggregates {
		out = append(out, a)
	}
	return out
}

// referencedUserTypes lists, in field order, the names of user types used by
// the fields of udt.
func referencedUserTypes(udt schema.UserDefinedType) []string {
	var names []string
	var walk func(t schema.Type)
	walk = func(t schema.Type) {
		switch v := t.(type) {
		case schema.UserDefinedType:
			names = append(names, v.Name)
		case schema.CollectionType:
			if v.Key != nil {
				walk(v.Key)
			}
			walk(v.Elem)
		case schema.TupleType:
			for _, c := range v.Components {
				walk(c)
			}
		}
	}
	for _, f := range udt.Fields {
		walk(f.Type)
	}
	return names
}

// KeyspaceLoader turns catalog rows into resolved schema objects.
type KeyspaceLoader struct {
	reader CatalogReader
	logger *zap.Logger
}

// NewKeyspaceLoader returns a loader reading from reader. A nil logger
// discards output.
func NewKeyspaceLoader(reader CatalogReader, logger *zap.Logger) *KeyspaceLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyspaceLoader{reader: reader, logger: logger}
}

// Load reads and resolves one keyspace. User types are parsed shallowly
// first, since they may reference each other in any order, then resolved in
// one pass. Function and aggregate types are parsed eagerly against the
// resolved user types.
func (l *KeyspaceLoader) Load(ctx context.Context, keyspace string) (*Keyspace, error) {
	typeRows, err := l.reader.UserTypes(ctx, keyspace)
	if err != nil {
		return nil, err
	}
	userTypes, err := buildUserTypes(keyspace, typeRows)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Loaded user types", zap.String("keyspace", keyspace), zap.Int("count", len(userTypes)))

	functionRows, err := l.reader.Functions(ctx, keyspace)
	if err != nil {
		return nil, err
	}
	functions := make([]schema.FunctionMetadata, 0, len(functionRows))
	for _, row := range functionRows {
		f, err := buildFunction(keyspace, row, userTypes)
		if err != nil {
			return nil, err
		}
		functions = append(functions, f)
	}
	sort.SliceStable(functions, func(i, j int) bool {
		return functions[i].Signature().String() < functions[j].Signature().String()
	})

	aggregateRows, err := l.reader.Aggregates(ctx, keyspace)
	if err != nil {
		return nil, err
	}
	aggregates := make([]schema.AggregateMetadata, 0, len(aggregateRows))
	for _, row := range aggregateRows {
		a, err := buildAggregate(keyspace, row, userTypes)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, a)
	}
	sort.SliceStable(aggregates, func(i, j int) bool {
		return aggregates[i].Signature().String() < aggregates[j].Signature().String()
	})

	l.logger.Debug("Loaded keyspace",
		zap.String("keyspace", keyspace),
		zap.Int("functions", len(functions)),
		zap.Int("aggregates", len(aggregates)))

	return &Keyspace{
		Name:       keyspace,
		UserTypes:  userTypes,
		Functions:  functions,
		Aggregates: aggregates,
	}, nil
}

func buildUserTypes(keyspace string, rows []TypeRow) (map[string]schema.UserDefinedType, error) {
	shallow := make(map[string]schema.UserDefinedType, len(rows))
	for _, row := range rows {
		if len(row.FieldNames) != len(row.FieldTypes) {
			return nil, errors.Errorf("type %s.%s has %d field names for %d field types",
				keyspace, row.Name, len(row.FieldNames), len(row.FieldTypes))
		}
		udt := schema.UserDefinedType{Keyspace: keyspace, Name: row.Name, Fields: make([]schema.Field, len(row.FieldNames))}
		for i, typeStr := range row.FieldTypes {
			t, err := schema.ParseCQLType(typeStr, keyspace, nil, schema.Shallow)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s of type %s.%s", row.FieldNames[i], keyspace, row.Name)
			}
			udt.Fields[i] = schema.Field{Name: row.FieldNames[i], Type: t}
		}
		shallow[row.Name] = udt
	}
	resolved, err := schema.ResolveUserTypes(shallow)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving user types of %s", keyspace)
	}
	return resolved, nil
}

func parseTypes(keyspace string, typeStrs []string, userTypes map[string]schema.UserDefinedType) ([]schema.Type, error) {
	types := make([]schema.Type, len(typeStrs))
	for i, s := range typeStrs {
		t, err := schema.ParseCQLType(s, keyspace, userTypes, schema.Eager)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func buildFunction(keyspace string, row FunctionRow, userTypes map[string]schema.UserDefinedType) (schema.FunctionMetadata, error) {
	if len(row.ArgumentNames) != len(row.ArgumentTypes) {
		return schema.FunctionMetadata{}, errors.Errorf("function %s.%s has %d argument names for %d argument types",
			keyspace, row.Name, len(row.ArgumentNames), len(row.ArgumentTypes))
	}
	argTypes, err := parseTypes(keyspace, row.ArgumentTypes, userTypes)
	if err != nil {
		return schema.FunctionMetadata{}, errors.Wrapf(err, "arguments of function %s.%s", keyspace, row.Name)
	}
	returnType, err := schema.ParseCQLType(row.ReturnType, keyspace, userTypes, schema.Eager)
	if err != nil {
		return schema.FunctionMetadata{}, errors.Wrapf(err, "return type of function %s.%s", keyspace, row.Name)
	}
	return schema.NewFunctionMetadata(keyspace,
		schema.NewFunctionSignature(row.Name, argTypes...),
		row.ArgumentNames,
		row.Body,
		row.CalledOnNullInput,
		row.Language,
		returnType), nil
}

func buildAggregate(keyspace string, row AggregateRow, userTypes map[string]schema.UserDefinedType) (schema.AggregateMetadata, error) {
	argTypes, err := parseTypes(keyspace, row.ArgumentTypes, userTypes)
	if err != nil {
		return schema.AggregateMetadata{}, errors.Wrapf(err, "arguments of aggregate %s.%s", keyspace, row.Name)
	}
	stateType, err := schema.ParseCQLType(row.StateType, keyspace, userTypes, schema.Eager)
	if err != nil {
		return schema.AggregateMetadata{}, errors.Wrapf(err, "state type of aggregate %s.%s", keyspace, row.Name)
	}
	returnType, err := schema.ParseCQLType(row.ReturnType, keyspace, userTypes, schema.Eager)
	if err != nil {
		return schema.AggregateMetadata{}, errors.Wrapf(err, "return type of aggregate %s.%s", keyspace, row.Name)
	}

	// The state function takes the state followed by the aggregate's
	// arguments; the final function takes only the state.
	stateFunc := schema.NewFunctionSignature(row.StateFunc, append([]schema.Type{stateType}, argTypes...)...)
	var finalFunc *schema.FunctionSignature
	if row.FinalFunc != "" {
		sig := schema.NewFunctionSignature(row.FinalFunc, stateType)
		finalFunc = &sig
	}
	var initCond any
	if row.InitCond != nil {
		initCond = schema.RawLiteral(*row.InitCond)
	}

	return schema.NewAggregateMetadata(keyspace,
		schema.NewFunctionSignature(row.Name, argTypes...),
		finalFunc,
		initCond,
		returnType,
		stateFunc,
		stateType,
		nil), nil
}
