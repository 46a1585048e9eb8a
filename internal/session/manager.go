package session

import (
	"strings"
	"sync"

	"github.com/axonops/cqlschema/internal/config"
)

// Manager handles application-level session state
// This is separate from the database session
type Manager struct {
	mu              sync.RWMutex
	currentKeyspace string
	pretty          bool
	outputFormat    config.OutputFormat
}

// NewManager creates a new session manager
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{outputFormat: config.OutputFormatText}
	if cfg != nil {
		m.currentKeyspace = cfg.Keyspace
		m.pretty = cfg.Pretty
	}
	return m
}

// CurrentKeyspace returns the current keyspace
func (m *Manager) CurrentKeyspace() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentKeyspace
}

// SetKeyspace sets the current keyspace
func (m *Manager) SetKeyspace(keyspace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentKeyspace = keyspace
}

// Pretty reports whether DDL is rendered across multiple indented lines.
func (m *Manager) Pretty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pretty
}

// SetPretty sets the DDL layout
func (m *Manager) SetPretty(pretty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pretty = pretty
}

// OutputFormat returns the current output format
func (m *Manager) OutputFormat() config.OutputFormat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outputFormat
}

// SetOutputFormat sets the output format
func (m *Manager) SetOutputFormat(format config.OutputFormat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputFormat = format
}

// QualifiedName splits a "[keyspace.]name" reference, falling back to the
// current keyspace when none is given. Double-quoted parts are unquoted.
func (m *Manager) QualifiedName(ref string) (keyspace, name string) {
	keyspace, name = splitQualified(ref)
	if keyspace == "" {
		keyspace = m.CurrentKeyspace()
	}
	return keyspace, name
}

func splitQualified(ref string) (string, string) {
	inQuotes := false
	for i, r := range ref {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == '.' && !inQuotes:
			return unquote(ref[:i]), unquote(ref[i+1:])
		}
	}
	return "", unquote(ref)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
