package schema

import (
	"fmt"

	"go.uber.org/zap"
)

// AggregateMetadata describes a user-defined aggregate.
type AggregateMetadata struct {
	keyspace       string
	signature      FunctionSignature
	finalFunc      *FunctionSignature
	initCond       any
	returnType     Type
	stateFunc      FunctionSignature
	stateType      Type
	stateFormatter LiteralFormatter
}

// NewAggregateMetadata builds aggregate metadata. finalFunc and initCond are
// optional. When stateFormatter is nil the default literal formatter for
// stateType renders INITCOND.
func NewAggregateMetadata(keyspace string, signature FunctionSignature, finalFunc *FunctionSignature,
	initCond any, returnType Type, stateFunc FunctionSignature, stateType Type,
	stateFormatter LiteralFormatter) AggregateMetadata {
	if stateFormatter == nil {
		stateFormatter = NewLiteralFormatter(stateType)
	}
	if finalFunc != nil {
		ff := *finalFunc
		finalFunc = &ff
	}
	return AggregateMetadata{
		keyspace:       keyspace,
		signature:      signature,
		finalFunc:      finalFunc,
		initCond:       initCond,
		returnType:     returnType,
		stateFunc:      stateFunc,
		stateType:      stateType,
		stateFormatter: stateFormatter,
	}
}

func (a AggregateMetadata) Keyspace() string             { return a.keyspace }
func (a AggregateMetadata) Signature() FunctionSignature { return a.signature }
func (a AggregateMetadata) InitCond() any                { return a.initCond }
func (a AggregateMetadata) ReturnType() Type             { return a.returnType }
func (a AggregateMetadata) StateFunc() FunctionSignature { return a.stateFunc }
func (a AggregateMetadata) StateType() Type              { return a.stateType }

// FinalFunc returns the final function, if the aggregate has one.
func (a AggregateMetadata) FinalFunc() (FunctionSignature, bool) {
	if a.finalFunc == nil {
		return FunctionSignature{}, false
	}
	return *a.finalFunc, true
}

func (a AggregateMetadata) describe(d *Describer, pretty bool) string {
	b := d.newBuilder(pretty)
	b.Append("CREATE AGGREGATE ").
		AppendIdentifier(a.keyspace).
		Append(".").
		AppendIdentifier(a.signature.Name).
		Append("(")
	for i, t := range a.signature.ParameterTypes {
		if i > 0 {
			b.Append(",")
		}
		b.Append(t.AsCQL(false))
	}
	b.Append(")").
		IncreaseIndent().
		NewLine().
		Append("SFUNC ").
		AppendIdentifier(a.stateFunc.Name).
		NewLine().
		Append("STYPE ").
		Append(a.stateType.AsCQL(false))
	if a.finalFunc != nil {
		b.NewLine().Append("FINALFUNC ").AppendIdentifier(a.finalFunc.Name)
	}
	if a.initCond != nil {
		b.NewLine().Append("INITCOND ").Append(a.formatInitCond(d))
	}
	return b.Append(";").Build()
}

func (a AggregateMetadata) formatInitCond(d *Describer) string {
	literal, err := safeFormat(a.stateFormatter, a.initCond)
	if err == nil {
		return literal
	}
	fallback := fmt.Sprint(a.initCond)
	d.logger.Warn("Failed to format INITCOND, using fallback",
		zap.String("keyspace", a.keyspace),
		zap.String("aggregate", a.signature.String()),
		zap.String("stateType", a.stateType.AsCQL(true)),
		zap.String("fallback", fallback),
		zap.Error(err))
	return fallback
}

// safeFormat turns a panicking formatter into an ErrFormat error.
func safeFormat(f LiteralFormatter, value any) (literal string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: formatter panicked: %v", ErrFormat, r)
		}
	}()
	return f.FormatLiteral(value)
}
