package schema

import (
	"go.uber.org/zap"
)

// Describable is a schema object that can render its own CREATE statement.
// FunctionMetadata, AggregateMetadata and UserDefinedType implement it.
type Describable interface {
	describe(d *Describer, pretty bool) string
}

// Describer renders schema objects as CQL definitions.
type Describer struct {
	logger *zap.Logger
	quote  Quoter
}

// DescriberOption configures a Describer.
type DescriberOption func(*Describer)

// WithLogger sets the logger used to report recoverable rendering problems.
func WithLogger(logger *zap.Logger) DescriberOption {
	return func(d *Describer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithQuoter overrides how identifiers are quoted in generated statements.
func WithQuoter(q Quoter) DescriberOption {
	return func(d *Describer) {
		if q != nil {
			d.quote = q
		}
	}
}

// NewDescriber returns a Describer. Without options it logs nothing and
// quotes identifiers only when CQL requires it.
func NewDescriber(opts ...DescriberOption) *Describer {
	d := &Describer{logger: zap.NewNop(), quote: QuoteIfNecessary}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Describe returns the CREATE statement for obj, multi-line when pretty is
// set and on a single line otherwise.
func (d *Describer) Describe(obj Describable, pretty bool) string {
	return obj.describe(d, pretty)
}

// DescribeWithChildren is the same as Describe. Functions, aggregates and
// user types own no child objects.
func (d *Describer) DescribeWithChildren(obj Describable, pretty bool) string {
	return d.Describe(obj, pretty)
}

func (d *Describer) newBuilder(pretty bool) *ScriptBuilder {
	return NewScriptBuilder(pretty, WithIdentifierQuoter(d.quote))
}
