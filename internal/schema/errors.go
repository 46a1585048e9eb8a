package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedTypeString is returned when a catalog type string violates the type grammar.
	ErrMalformedTypeString = errors.New("malformed type string")
	// ErrUnknownUserType is returned when a user type reference cannot be resolved.
	ErrUnknownUserType = errors.New("unknown user type")
	// ErrUnresolvedTypeCycle is returned when user types reference each other in a loop.
	ErrUnresolvedTypeCycle = errors.New("unresolved user type cycle")
	// ErrFormat is returned by literal formatters that cannot render a value.
	ErrFormat = errors.New("cannot format literal")
	// ErrBuilderConsumed is the panic value used when a ScriptBuilder is reused after Build.
	ErrBuilderConsumed = errors.New("script builder already built")
)

// TypeSyntaxError reports a grammar violation at a byte offset of Input.
type TypeSyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *TypeSyntaxError) Error() string {
	rest := ""
	if e.Pos >= 0 && e.Pos <= len(e.Input) {
		rest = e.Input[e.Pos:]
	}
	return fmt.Sprintf("%s: %s at position %d of %q (near %q)", ErrMalformedTypeString, e.Msg, e.Pos, e.Input, rest)
}

func (e *TypeSyntaxError) Unwrap() error { return ErrMalformedTypeString }

// UnknownUserTypeError names the user type that could not be found.
type UnknownUserTypeError struct {
	Keyspace string
	Name     string
}

func (e *UnknownUserTypeError) Error() string {
	return fmt.Sprintf("%s: %s.%s", ErrUnknownUserType, e.Keyspace, e.Name)
}

func (e *UnknownUserTypeError) Unwrap() error { return ErrUnknownUserType }

// CycleError lists the chain of user types that loops back on itself.
type CycleError struct {
	Keyspace string
	Path     []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s in keyspace %s: %s", ErrUnresolvedTypeCycle, e.Keyspace, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrUnresolvedTypeCycle }

// FormatError is returned when a value cannot be rendered as a literal of Type.
type FormatError struct {
	Type  Type
	Value any
	Err   error
}

func (e *FormatError) Error() string {
	typeName := "<nil>"
	if e.Type != nil {
		typeName = e.Type.AsCQL(true)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %T as %s: %v", ErrFormat, e.Value, typeName, e.Err)
	}
	return fmt.Sprintf("%s %T as %s", ErrFormat, e.Value, typeName)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}
