package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/axonops/cqlschema/internal/db"
)

// isolate keeps the user's cqlshrc, config files and environment out of a
// test run.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"CQLSCHEMA_HOST", "CQLSCHEMA_PORT", "CQLSCHEMA_KEYSPACE", "CQLSCHEMA_USERNAME",
		"CQLSCHEMA_PASSWORD", "CQLSCHEMA_CONSISTENCY", "CQLSCHEMA_DEBUG", "CQLSCHEMA_PRETTY",
		"CASSANDRA_HOST", "CASSANDRA_PORT", "CASSANDRA_KEYSPACE",
		"CASSANDRA_USERNAME", "CASSANDRA_PASSWORD",
	} {
		t.Setenv(name, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(home); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

type fakeReader struct {
	types      []db.TypeRow
	functions  []db.FunctionRow
	aggregates []db.AggregateRow
}

func (f *fakeReader) UserTypes(context.Context, string) ([]db.TypeRow, error) { return f.types, nil }
func (f *fakeReader) Functions(context.Context, string) ([]db.FunctionRow, error) {
	return f.functions, nil
}
func (f *fakeReader) Aggregates(context.Context, string) ([]db.AggregateRow, error) {
	return f.aggregates, nil
}

func testRoot(reader db.CatalogReader) *rootHarness {
	opts := &globalOptions{openCatalog: func(*state) (*catalog, error) {
		return &catalog{reader: reader}, nil
	}}
	return &rootHarness{cmd: newRootCommand(opts)}
}

type rootHarness struct {
	cmd *cobra.Command
}

func (h *rootHarness) run(args ...string) (string, error) {
	var out bytes.Buffer
	h.cmd.SetOut(&out)
	h.cmd.SetErr(&out)
	h.cmd.SetArgs(args)
	err := h.cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "cqlschema", cmd.Use)
	assert.True(t, cmd.SilenceUsage)

	for _, name := range []string{"version", "parse-type", "describe"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	for _, name := range []string{"function", "aggregate", "type", "keyspace"} {
		sub, _, err := cmd.Find([]string{"describe", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	for _, flag := range []string{"config", "host", "port", "keyspace", "debug", "pretty"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := testRoot(&fakeReader{}).run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "cqlschema version: ")
	assert.Contains(t, out, Version)
	assert.Contains(t, out, "Go version: ")
}

func TestParseTypeCommand(t *testing.T) {
	home := isolate(t)
	typesFile := filepath.Join(home, "types.yaml")
	require.NoError(t, os.WriteFile(typesFile, []byte(`
address:
  - {name: street, type: text}
  - {name: zip, type: int}
person:
  - {name: name, type: text}
  - {name: home, type: frozen<address>}
`), 0o600))

	t.Run("text", func(t *testing.T) {
		out, err := testRoot(&fakeReader{}).run("parse-type", "map<text,frozen<list<int>>>")
		require.NoError(t, err)
		assert.Equal(t, "map<text, frozen<list<int>>>\n", out)
	})

	t.Run("shallow json", func(t *testing.T) {
		out, err := testRoot(&fakeReader{}).run("parse-type", "-k", "shop", "--shallow", "-o", "json", "list<frozen<point>>")
		require.NoError(t, err)

		var node typeNode
		require.NoError(t, json.Unmarshal([]byte(out), &node))
		assert.Equal(t, "list", node.Kind)
		require.NotNil(t, node.Element)
		assert.Equal(t, "udt_ref", node.Element.Kind)
		assert.Equal(t, "shop", node.Element.Keyspace)
		assert.Equal(t, "point", node.Element.Name)
		assert.True(t, node.Element.Frozen)
	})

	t.Run("resolved yaml", func(t *testing.T) {
		out, err := testRoot(&fakeReader{}).run("parse-type", "-k", "shop", "--user-types", typesFile, "-o", "yaml", "frozen<person>")
		require.NoError(t, err)

		var node typeNode
		require.NoError(t, yaml.Unmarshal([]byte(out), &node))
		assert.Equal(t, "udt", node.Kind)
		assert.Equal(t, "frozen<shop.person>", node.CQL)
		require.Len(t, node.Fields, 2)
		home := node.Fields[1]
		assert.Equal(t, "home", home.Name)
		assert.Equal(t, "udt", home.Type.Kind)
		require.Len(t, home.Type.Fields, 2)
		assert.Equal(t, "zip", home.Type.Fields[1].Name)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want string
		}{
			{"unknown user type", []string{"parse-type", "-k", "shop", "frozen<point>"}, "point"},
			{"malformed", []string{"parse-type", "map<int"}, ""},
			{"bad output", []string{"parse-type", "-o", "xml", "int"}, "unknown output format"},
			{"missing types file", []string{"parse-type", "--user-types", filepath.Join(home, "nope.yaml"), "int"}, "reading user types"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := testRoot(&fakeReader{}).run(tt.args...)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.want)
			})
		}
	})
}

func shop() *fakeReader {
	initCond := "0"
	return &fakeReader{
		types: []db.TypeRow{
			{Keyspace: "shop", Name: "address", FieldNames: []string{"street", "zip"}, FieldTypes: []string{"text", "int"}},
		},
		functions: []db.FunctionRow{
			{Keyspace: "shop", Name: "double_it", ArgumentNames: []string{"x"}, ArgumentTypes: []string{"int"},
				ReturnType: "int", Language: "java", Body: "return x*2;"},
		},
		aggregates: []db.AggregateRow{
			{Keyspace: "shop", Name: "total", ArgumentTypes: []string{"int"}, StateFunc: "plus",
				StateType: "int", InitCond: &initCond, ReturnType: "int"},
		},
	}
}

func TestDescribeCommands(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "type",
			args: []string{"describe", "type", "shop.address"},
			want: "CREATE TYPE shop.address ( street text, zip int );\n",
		},
		{
			name: "type pretty with default keyspace",
			args: []string{"--pretty", "-k", "shop", "describe", "type", "address"},
			want: "CREATE TYPE shop.address (\n    street text,\n    zip int\n);\n",
		},
		{
			name: "function",
			args: []string{"desc", "function", "shop.double_it"},
			want: "CREATE FUNCTION shop.double_it(x int) RETURNS NULL ON NULL INPUT RETURNS int LANGUAGE java AS 'return x*2;';\n",
		},
		{
			name: "aggregate",
			args: []string{"describe", "aggregate", "shop.total"},
			want: "CREATE AGGREGATE shop.total(int) SFUNC plus STYPE int INITCOND 0;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := testRoot(shop()).run(tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("keyspace", func(t *testing.T) {
		out, err := testRoot(shop()).run("describe", "keyspace", "shop")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "CREATE TYPE"))
		assert.True(t, strings.HasPrefix(lines[1], "CREATE FUNCTION"))
		assert.True(t, strings.HasPrefix(lines[2], "CREATE AGGREGATE"))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := testRoot(shop()).run("describe", "function", "shop.missing")
		assert.EqualError(t, err, "function shop.missing not found")
	})

	t.Run("no keyspace", func(t *testing.T) {
		_, err := testRoot(shop()).run("describe", "type", "address")
		assert.ErrorContains(t, err, "no keyspace given")
	})

	t.Run("driver source without session", func(t *testing.T) {
		_, err := testRoot(shop()).run("describe", "type", "--source", "driver", "shop.address")
		assert.ErrorContains(t, err, "live session")
	})
}
