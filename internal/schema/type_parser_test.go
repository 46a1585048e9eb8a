package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCQLType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Type
	}{
		// Primitive types
		{name: "simple text type", input: "text", expected: Text},
		{name: "simple int type", input: "int", expected: Int},
		{name: "uuid type", input: "uuid", expected: UUID},
		{name: "timestamp type", input: "timestamp", expected: Timestamp},
		{name: "upper case keyword", input: "BIGINT", expected: BigInt},
		{name: "surrounding whitespace", input: "  varint ", expected: Varint},

		// Frozen types
		{name: "frozen text", input: "frozen<text>", expected: Text},

		// Collections
		{name: "list of text", input: "list<text>", expected: ListOf(Text)},
		{name: "set of uuid", input: "set<uuid>", expected: SetOf(UUID)},
		{
			name:     "frozen list of int",
			input:    "frozen<list<int>>",
			expected: CollectionType{Kind: List, Elem: Int, Frozen: true},
		},
		{
			name:     "list of frozen list",
			input:    "list<frozen<list<text>>>",
			expected: ListOf(CollectionType{Kind: List, Elem: Text, Frozen: true}),
		},
		{name: "map of text to int", input: "map<text, int>", expected: MapOf(Text, Int)},
		{name: "map without spaces", input: "map<text,int>", expected: MapOf(Text, Int)},
		{
			name:     "frozen map of text to int",
			input:    "frozen<map<text, int>>",
			expected: CollectionType{Kind: Map, Key: Text, Elem: Int, Frozen: true},
		},
		{
			name:     "map of text to list of int",
			input:    "map<text, list<int>>",
			expected: MapOf(Text, ListOf(Int)),
		},
		{
			name:  "complex nested frozen",
			input: "frozen<map<text, frozen<list<frozen<set<uuid>>>>>>",
			expected: CollectionType{
				Kind: Map,
				Key:  Text,
				Elem: CollectionType{
					Kind:   List,
					Elem:   CollectionType{Kind: Set, Elem: UUID, Frozen: true},
					Frozen: true,
				},
				Frozen: true,
			},
		},

		// Tuples
		{name: "tuple", input: "tuple<text, int>", expected: TupleOf(Text, Int)},
		{name: "frozen tuple", input: "frozen<tuple<text, int>>", expected: TupleOf(Text, Int)},
		{
			name:     "tuple with nested collection",
			input:    "tuple<int, list<text>, map<int, blob>>",
			expected: TupleOf(Int, ListOf(Text), MapOf(Int, Blob)),
		},

		// Custom types
		{
			name:     "custom type",
			input:    "'org.apache.cassandra.db.marshal.DynamicCompositeType'",
			expected: CustomType{ClassName: "org.apache.cassandra.db.marshal.DynamicCompositeType"},
		},
		{
			name:     "custom type inside list",
			input:    "list<'com.example.Custom'>",
			expected: ListOf(CustomType{ClassName: "com.example.Custom"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []ParseMode{Eager, Shallow} {
				got, err := ParseCQLType(tt.input, "ks", nil, mode)
				require.NoError(t, err, "mode %s", mode)
				assert.True(t, Equal(tt.expected, got), "mode %s: expected %v, got %v", mode, tt.expected, got)
			}
		})
	}
}

func TestParseCQLTypeRendersCanonically(t *testing.T) {
	tests := []struct {
		input    string
		frozen   string
		unfrozen string
	}{
		{"frozen<map<text, int>>", "frozen<map<text, int>>", "map<text, int>"},
		{"map<text,frozen<list<int>>>", "map<text, frozen<list<int>>>", "map<text, frozen<list<int>>>"},
		{"tuple<int,text>", "frozen<tuple<int, text>>", "tuple<int, text>"},
		{"set<  timeuuid >", "set<timeuuid>", "set<timeuuid>"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCQLType(tt.input, "ks", nil, Eager)
			require.NoError(t, err)
			assert.Equal(t, tt.frozen, got.AsCQL(true))
			assert.Equal(t, tt.unfrozen, got.AsCQL(false))
		})
	}
}

func TestParseCQLTypeUserTypes(t *testing.T) {
	address := UserDefinedType{
		Keyspace: "ks",
		Name:     "address",
		Fields: []Field{
			{Name: "street", Type: Text},
			{Name: "zip", Type: Int},
		},
	}
	userTypes := map[string]UserDefinedType{"address": address}

	t.Run("shallow produces placeholders", func(t *testing.T) {
		got, err := ParseCQLType("frozen<address>", "ks", nil, Shallow)
		require.NoError(t, err)
		assert.Equal(t, ShallowUserType{Keyspace: "ks", Name: "address", Frozen: true}, got)
	})

	t.Run("shallow ignores known user types", func(t *testing.T) {
		got, err := ParseCQLType("address", "ks", userTypes, Shallow)
		require.NoError(t, err)
		assert.Equal(t, ShallowUserType{Keyspace: "ks", Name: "address"}, got)
	})

	t.Run("shallow keeps explicit keyspace", func(t *testing.T) {
		got, err := ParseCQLType("list<frozen<other.address>>", "ks", nil, Shallow)
		require.NoError(t, err)
		assert.Equal(t, ListOf(ShallowUserType{Keyspace: "other", Name: "address", Frozen: true}), got)
	})

	t.Run("shallow keeps quoted case", func(t *testing.T) {
		got, err := ParseCQLType(`frozen<"Ks"."My ""Type""">`, "ks", nil, Shallow)
		require.NoError(t, err)
		assert.Equal(t, ShallowUserType{Keyspace: "Ks", Name: `My "Type"`, Frozen: true}, got)
	})

	t.Run("quoted native name is a user type", func(t *testing.T) {
		got, err := ParseCQLType(`"text"`, "ks", nil, Shallow)
		require.NoError(t, err)
		assert.Equal(t, ShallowUserType{Keyspace: "ks", Name: "text"}, got)
	})

	t.Run("eager resolves from the given map", func(t *testing.T) {
		got, err := ParseCQLType("frozen<address>", "ks", userTypes, Eager)
		require.NoError(t, err)
		assert.True(t, Equal(address.WithFrozen(true), got))
		assert.False(t, ContainsShallow(got))
	})

	t.Run("eager resolves nested references", func(t *testing.T) {
		got, err := ParseCQLType("map<text, frozen<ks.address>>", "ks", userTypes, Eager)
		require.NoError(t, err)
		assert.True(t, Equal(MapOf(Text, address.WithFrozen(true)), got))
	})

	t.Run("eager fails on unknown user type", func(t *testing.T) {
		_, err := ParseCQLType("list<frozen<phone>>", "ks", userTypes, Eager)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownUserType))

		var unknown *UnknownUserTypeError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "ks", unknown.Keyspace)
		assert.Equal(t, "phone", unknown.Name)
	})

	t.Run("eager does not resolve across keyspaces", func(t *testing.T) {
		_, err := ParseCQLType("other.address", "ks", userTypes, Eager)
		assert.True(t, errors.Is(err, ErrUnknownUserType))
	})

	t.Run("eager with no user types", func(t *testing.T) {
		_, err := ParseCQLType("address", "ks", nil, Eager)
		assert.True(t, errors.Is(err, ErrUnknownUserType))
	})
}

func TestParseCQLTypeMalformed(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"list<int",
		"int>",
		"list<>",
		"map<int>",
		"map<int, text, blob>",
		"frozen",
		"frozen<>",
		"tuple<>",
		"tuple<int text>",
		"list<int> extra",
		"'unterminated",
		`"unterminated`,
		"''",
		"ks.",
		"<int>",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			for _, mode := range []ParseMode{Eager, Shallow} {
				got, err := ParseCQLType(input, "ks", nil, mode)
				require.Error(t, err, "mode %s", mode)
				assert.Nil(t, got)
				assert.True(t, errors.Is(err, ErrMalformedTypeString), "mode %s: %v", mode, err)
			}
		})
	}
}

func TestTypeSyntaxErrorPointsAtProblem(t *testing.T) {
	_, err := ParseCQLType("map<text; int>", "ks", nil, Shallow)
	require.Error(t, err)

	var syntax *TypeSyntaxError
	require.True(t, errors.As(err, &syntax))
	assert.Equal(t, "map<text; int>", syntax.Input)
	assert.Equal(t, 8, syntax.Pos)
	assert.Contains(t, err.Error(), "; int>")
}

func TestParseModeString(t *testing.T) {
	assert.Equal(t, "eager", Eager.String())
	assert.Equal(t, "shallow", Shallow.String())
}
