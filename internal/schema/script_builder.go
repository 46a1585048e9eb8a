package schema

import "strings"

const indentUnit = "    "

// ScriptBuilder accumulates CQL definition text. In pretty mode NewLine
// breaks the line and indentation applies; in compact mode everything stays
// on one line separated by single spaces. The layout never changes tokens.
//
// A ScriptBuilder is owned by a single caller and is consumed by Build.
type ScriptBuilder struct {
	sb          strings.Builder
	pretty      bool
	quote       Quoter
	indent      int
	atLineStart bool
	built       bool
}

// BuilderOption configures a ScriptBuilder.
type BuilderOption func(*ScriptBuilder)

// WithIdentifierQuoter sets the quoting rule used by AppendIdentifier.
func WithIdentifierQuoter(q Quoter) BuilderOption {
	return func(b *ScriptBuilder) {
		if q != nil {
			b.quote = q
		}
	}
}

// NewScriptBuilder returns an empty builder in pretty or compact layout.
func NewScriptBuilder(pretty bool, opts ...BuilderOption) *ScriptBuilder {
	b := &ScriptBuilder{pretty: pretty, quote: QuoteIfNecessary}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Pretty reports whether the builder uses the multi-line layout.
func (b *ScriptBuilder) Pretty() bool { return b.pretty }

// Append writes text verbatim.
func (b *ScriptBuilder) Append(text string) *ScriptBuilder {
	b.checkNotBuilt()
	if text == "" {
		return b
	}
	if b.atLineStart {
		b.sb.WriteString(strings.Repeat(indentUnit, b.indent))
		b.atLineStart = false
	}
	b.sb.WriteString(text)
	return b
}

// AppendIdentifier writes name using the builder's quoting rule.
func (b *ScriptBuilder) AppendIdentifier(name string) *ScriptBuilder {
	return b.Append(b.quote(name))
}

// NewLine ends the current line in pretty mode, or separates with a single
// space in compact mode. Consecutive calls in compact mode yield one space.
func (b *ScriptBuilder) NewLine() *ScriptBuilder {
	b.checkNotBuilt()
	if b.pretty {
		b.sb.WriteByte('\n')
		b.atLineStart = true
		return b
	}
	if s := b.sb.String(); len(s) > 0 && s[len(s)-1] != ' ' {
		b.sb.WriteByte(' ')
	}
	return b
}

// IncreaseIndent indents the following pretty-mode lines one more level.
func (b *ScriptBuilder) IncreaseIndent() *ScriptBuilder {
	b.checkNotBuilt()
	b.indent++
	return b
}

// DecreaseIndent undoes one IncreaseIndent.
func (b *ScriptBuilder) DecreaseIndent() *ScriptBuilder {
	b.checkNotBuilt()
	if b.indent > 0 {
		b.indent--
	}
	return b
}

// Build returns the accumulated text. The builder cannot be used afterwards.
func (b *ScriptBuilder) Build() string {
	b.checkNotBuilt()
	b.built = true
	return b.sb.String()
}

func (b *ScriptBuilder) checkNotBuilt() {
	if b.built {
		panic(ErrBuilderConsumed)
	}
}
