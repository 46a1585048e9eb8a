package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/axonops/cqlschema/internal/config"
)

func TestNewManager(t *testing.T) {
	m := NewManager(nil)
	assert.Empty(t, m.CurrentKeyspace())
	assert.False(t, m.Pretty())
	assert.Equal(t, config.OutputFormatText, m.OutputFormat())

	m = NewManager(&config.Config{Keyspace: "shop", Pretty: true})
	assert.Equal(t, "shop", m.CurrentKeyspace())
	assert.True(t, m.Pretty())

	m.SetKeyspace("inventory")
	m.SetPretty(false)
	m.SetOutputFormat(config.OutputFormatYAML)
	assert.Equal(t, "inventory", m.CurrentKeyspace())
	assert.False(t, m.Pretty())
	assert.Equal(t, config.OutputFormatYAML, m.OutputFormat())
}

func TestQualifiedName(t *testing.T) {
	m := NewManager(&config.Config{Keyspace: "shop"})

	tests := []struct {
		ref      string
		keyspace string
		name     string
	}{
		{"address", "shop", "address"},
		{"other.address", "other", "address"},
		{`"My.Ks"."Addr"`, "My.Ks", "Addr"},
		{`ks."say ""hi"""`, "ks", `say "hi"`},
	}
	for _, tt := range tests {
		ks, name := m.QualifiedName(tt.ref)
		assert.Equal(t, tt.keyspace, ks, tt.ref)
		assert.Equal(t, tt.name, name, tt.ref)
	}
}
