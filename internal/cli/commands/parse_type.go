package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/axonops/cqlschema/internal/config"
	"github.com/axonops/cqlschema/internal/schema"
)

// userTypeFile is the on-disk form of the user types a parse-type run can
// resolve against:
//
//	address:
//	  - {name: street, type: text}
//	  - {name: zip, type: int}
type userTypeFile map[string][]struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// typeNode is the tree printed for json and yaml output.
type typeNode struct {
	Kind      string      `json:"kind" yaml:"kind"`
	CQL       string      `json:"cql" yaml:"cql"`
	Frozen    bool        `json:"frozen,omitempty" yaml:"frozen,omitempty"`
	Keyspace  string      `json:"keyspace,omitempty" yaml:"keyspace,omitempty"`
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	ClassName string      `json:"className,omitempty" yaml:"class_name,omitempty"`
	Key       *typeNode   `json:"key,omitempty" yaml:"key,omitempty"`
	Element   *typeNode   `json:"element,omitempty" yaml:"element,omitempty"`
	Elements  []*typeNode `json:"elements,omitempty" yaml:"elements,omitempty"`
	Fields    []fieldNode `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type fieldNode struct {
	Name string    `json:"name" yaml:"name"`
	Type *typeNode `json:"type" yaml:"type"`
}

// NewParseTypeCommand creates the parse-type command
func NewParseTypeCommand(opts *globalOptions) *cobra.Command {
	var (
		shallow   bool
		output    string
		typesFile string
	)
	cmd := &cobra.Command{
		Use:   "parse-type <type>",
		Short: "Parse a CQL type string",
		Long: `Parse a type string as stored in the system_schema tables and print its
structure. User type references are resolved against --user-types unless
--shallow is given, in which case they are left as unresolved references.`,
		Example: `  cqlschema parse-type 'map<text, frozen<list<int>>>'
  cqlschema parse-type -k shop --user-types types.yaml 'frozen<address>' -o yaml
  cqlschema parse-type --shallow 'list<frozen<other_ks.point>>' -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := config.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			st, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			st.manager.SetOutputFormat(format)

			mode := schema.Eager
			if shallow {
				mode = schema.Shallow
			}
			keyspace := st.manager.CurrentKeyspace()

			var userTypes map[string]schema.UserDefinedType
			if typesFile != "" {
				if userTypes, err = loadUserTypeFile(typesFile, keyspace); err != nil {
					return err
				}
			}

			t, err := schema.ParseCQLType(args[0], keyspace, userTypes, mode)
			if err != nil {
				return err
			}
			st.log.Debug("Parsed type")
			return writeType(cmd.OutOrStdout(), t, st.manager.OutputFormat())
		},
	}

	cmd.Flags().BoolVar(&shallow, "shallow", false, "Leave user type references unresolved")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&typesFile, "user-types", "", "YAML file defining the keyspace's user types")
	return cmd
}

// loadUserTypeFile parses every field type of the file shallowly and then
// resolves the whole set.
func loadUserTypeFile(path, keyspace string) (map[string]schema.UserDefinedType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading user types")
	}
	var file userTypeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	shallow := make(map[string]schema.UserDefinedType, len(file))
	for name, fields := range file {
		udt := schema.UserDefinedType{Keyspace: keyspace, Name: name, Fields: make([]schema.Field, len(fields))}
		for i, f := range fields {
			t, err := schema.ParseCQLType(f.Type, keyspace, nil, schema.Shallow)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s of type %s", f.Name, name)
			}
			udt.Fields[i] = schema.Field{Name: f.Name, Type: t}
		}
		shallow[name] = udt
	}
	return schema.ResolveUserTypes(shallow)
}

func writeType(w io.Writer, t schema.Type, format config.OutputFormat) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newTypeNode(t))
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newTypeNode(t)); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, t.AsCQL(true))
		return err
	}
}

func newTypeNode(t schema.Type) *typeNode {
	node := &typeNode{CQL: t.AsCQL(true), Frozen: t.IsFrozen()}
	switch v := t.(type) {
	case schema.NativeType:
		node.Kind = "native"
	case schema.CollectionType:
		node.Kind = v.Kind.String()
		if v.Key != nil {
			node.Key = newTypeNode(v.Key)
		}
		node.Element = newTypeNode(v.Elem)
	case schema.TupleType:
		node.Kind = "tuple"
		for _, c := range v.Components {
			node.Elements = append(node.Elements, newTypeNode(c))
		}
	case schema.UserDefinedType:
		node.Kind = "udt"
		node.Keyspace, node.Name = v.Keyspace, v.Name
		for _, f := range v.Fields {
			node.Fields = append(node.Fields, fieldNode{Name: f.Name, Type: newTypeNode(f.Type)})
		}
	case schema.ShallowUserType:
		node.Kind = "udt_ref"
		node.Keyspace, node.Name = v.Keyspace, v.Name
	case schema.CustomType:
		node.Kind = "custom"
		node.ClassName = v.ClassName
	}
	return node
}
