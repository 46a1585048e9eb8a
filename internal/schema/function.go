package schema

import (
	"fmt"
	"strings"
)

// FunctionSignature identifies a function overload: its name and the types
// of its parameters.
type FunctionSignature struct {
	Name           string
	ParameterTypes []Type
}

// NewFunctionSignature builds a signature from a name and parameter types.
func NewFunctionSignature(name string, parameterTypes ...Type) FunctionSignature {
	return FunctionSignature{Name: name, ParameterTypes: parameterTypes}
}

// Equal reports whether both signatures name the same overload.
func (s FunctionSignature) Equal(other FunctionSignature) bool {
	if s.Name != other.Name || len(s.ParameterTypes) != len(other.ParameterTypes) {
		return false
	}
	for i := range s.ParameterTypes {
		if !Equal(s.ParameterTypes[i], other.ParameterTypes[i]) {
			return false
		}
	}
	return true
}

// String renders the signature as name(type, ...).
func (s FunctionSignature) String() string {
	types := make([]string, len(s.ParameterTypes))
	for i, t := range s.ParameterTypes {
		types[i] = t.AsCQL(false)
	}
	return QuoteIfNecessary(s.Name) + "(" + strings.Join(types, ", ") + ")"
}

// FunctionMetadata describes a user-defined function.
type FunctionMetadata struct {
	keyspace          string
	signature         FunctionSignature
	parameterNames    []string
	body              string
	calledOnNullInput bool
	language          string
	returnType        Type
}

// NewFunctionMetadata builds function metadata. parameterNames must match the
// signature's parameter types one to one; a mismatch means the catalog row is
// corrupt and causes a panic.
func NewFunctionMetadata(keyspace string, signature FunctionSignature, parameterNames []string,
	body string, calledOnNullInput bool, language string, returnType Type) FunctionMetadata {
	if len(parameterNames) != len(signature.ParameterTypes) {
		panic(fmt.Sprintf("function %s.%s: %d parameter names for %d parameter types",
			keyspace, signature.Name, len(parameterNames), len(signature.ParameterTypes)))
	}
	return FunctionMetadata{
		keyspace:          keyspace,
		signature:         signature,
		parameterNames:    append([]string(nil), parameterNames...),
		body:              body,
		calledOnNullInput: calledOnNullInput,
		language:          language,
		returnType:        returnType,
	}
}

func (f FunctionMetadata) Keyspace() string             { return f.keyspace }
func (f FunctionMetadata) Signature() FunctionSignature { return f.signature }
func (f FunctionMetadata) Body() string                 { return f.body }
func (f FunctionMetadata) IsCalledOnNullInput() bool    { return f.calledOnNullInput }
func (f FunctionMetadata) Language() string             { return f.language }
func (f FunctionMetadata) ReturnType() Type             { return f.returnType }
func (f FunctionMetadata) ParameterNames() []string     { return append([]string(nil), f.parameterNames...) }

func (f FunctionMetadata) describe(d *Describer, pretty bool) string {
	b := d.newBuilder(pretty)
	b.Append("CREATE FUNCTION ").
		AppendIdentifier(f.keyspace).
		Append(".").
		AppendIdentifier(f.signature.Name).
		Append("(")
	for i, t := range f.signature.ParameterTypes {
		if i > 0 {
			b.Append(",")
		}
		b.AppendIdentifier(f.parameterNames[i]).Append(" ").Append(t.AsCQL(false))
	}
	b.Append(")").IncreaseIndent().NewLine()
	if f.calledOnNullInput {
		b.Append("CALLED ON NULL INPUT")
	} else {
		b.Append("RETURNS NULL ON NULL INPUT")
	}
	b.NewLine().
		Append("RETURNS ").
		Append(f.returnType.AsCQL(false)).
		NewLine().
		Append("LANGUAGE ").
		Append(f.language).
		NewLine().
		Append("AS ").
		Append(quoteBody(f.body)).
		Append(";")
	return b.Build()
}

// quoteBody wraps a function body in single quotes, or in $$ when the body
// itself contains a single quote.
func quoteBody(body string) string {
	if strings.Contains(body, "'") && !strings.Contains(body, "$$") {
		return "$$" + body + "$$"
	}
	return "'" + strings.ReplaceAll(body, "'", "''") + "'"
}
