package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIfNecessary(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"users", "users"},
		{"user_2", "user_2"},
		{"Users", `"Users"`},
		{"2fast", `"2fast"`},
		{"_hidden", `"_hidden"`},
		{"with space", `"with space"`},
		{`say "hi"`, `"say ""hi"""`},
		{"select", `"select"`},
		{"keyspace", `"keyspace"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QuoteIfNecessary(tt.name), tt.name)
	}
}

func TestIsReservedKeyword(t *testing.T) {
	assert.True(t, IsReservedKeyword("SELECT"))
	assert.True(t, IsReservedKeyword("add"))
	assert.False(t, IsReservedKeyword("ttl"))
	assert.Equal(t, `"x"`, Quote("x"))
}
