package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptBuilder(t *testing.T) {
	build := func(pretty bool) string {
		return NewScriptBuilder(pretty).
			Append("CREATE TYPE ").
			AppendIdentifier("ks").
			Append(".").
			AppendIdentifier("Point").
			Append(" (").
			IncreaseIndent().
			NewLine().
			Append("x int,").
			NewLine().
			Append("y int").
			DecreaseIndent().
			NewLine().
			Append(");").
			Build()
	}

	t.Run("pretty", func(t *testing.T) {
		assert.Equal(t, "CREATE TYPE ks.\"Point\" (\n    x int,\n    y int\n);", build(true))
	})

	t.Run("compact", func(t *testing.T) {
		assert.Equal(t, `CREATE TYPE ks."Point" ( x int, y int );`, build(false))
	})

	t.Run("compact never doubles spaces", func(t *testing.T) {
		got := NewScriptBuilder(false).Append("a").NewLine().NewLine().Append("b ").NewLine().Append("c").Build()
		assert.Equal(t, "a b c", got)
	})

	t.Run("nested indentation", func(t *testing.T) {
		got := NewScriptBuilder(true).
			Append("a").IncreaseIndent().NewLine().
			Append("b").IncreaseIndent().NewLine().
			Append("c").DecreaseIndent().DecreaseIndent().DecreaseIndent().NewLine().
			Append("d").
			Build()
		assert.Equal(t, "a\n    b\n        c\nd", got)
	})

	t.Run("custom quoter", func(t *testing.T) {
		upper := func(name string) string { return "[" + name + "]" }
		got := NewScriptBuilder(false, WithIdentifierQuoter(upper)).AppendIdentifier("x").Build()
		assert.Equal(t, "[x]", got)
	})

	t.Run("reports layout", func(t *testing.T) {
		assert.True(t, NewScriptBuilder(true).Pretty())
		assert.False(t, NewScriptBuilder(false).Pretty())
	})

	t.Run("unusable after build", func(t *testing.T) {
		b := NewScriptBuilder(false).Append("x")
		assert.Equal(t, "x", b.Build())

		assert.PanicsWithValue(t, ErrBuilderConsumed, func() { b.Build() })
		assert.PanicsWithValue(t, ErrBuilderConsumed, func() { b.Append("y") })
		assert.PanicsWithValue(t, ErrBuilderConsumed, func() { b.NewLine() })
		assert.PanicsWithValue(t, ErrBuilderConsumed, func() { b.IncreaseIndent() })
		assert.PanicsWithValue(t, ErrBuilderConsumed, func() { b.AppendIdentifier("z") })
	})
}
