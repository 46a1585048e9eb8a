package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axonops/cqlschema/internal/db"
	"github.com/axonops/cqlschema/internal/schema"
)

// catalog is an open source of schema rows. session is nil when the rows do
// not come from a live cluster.
type catalog struct {
	reader  db.CatalogReader
	session *db.Session
	close   func()
}

func connectCatalog(st *state) (*catalog, error) {
	s, err := db.Connect(st.cfg, st.log)
	if err != nil {
		return nil, err
	}
	st.log.Debug("Connected",
		zap.String("host", s.Host()),
		zap.Int("protocol", s.ProtocolVersion()),
		zap.String("version", s.CassandraVersion()))
	return &catalog{reader: db.NewSystemSchemaReader(s), session: s, close: s.Close}, nil
}

// NewDescribeCommand creates the describe command
func NewDescribeCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "describe",
		Aliases: []string{"desc"},
		Short:   "Render CREATE statements for schema objects",
		Long: `Read user types, functions and aggregates from system_schema and print the
CQL that recreates them. Names may be given as keyspace.name; a bare name
uses --keyspace.`,
	}

	cmd.AddCommand(newDescribeObjectCommand(opts, "function", "Describe every overload of a function",
		func(ks *db.Keyspace, name string) []schema.Describable {
			var out []schema.Describable
			for _, f := range ks.FunctionsNamed(name) {
				out = append(out, f)
			}
			return out
		}))
	cmd.AddCommand(newDescribeObjectCommand(opts, "aggregate", "Describe every overload of an aggregate",
		func(ks *db.Keyspace, name string) []schema.Describable {
			var out []schema.Describable
			for _, a := range ks.AggregatesNamed(name) {
				out = append(out, a)
			}
			return out
		}))
	cmd.AddCommand(newDescribeTypeCommand(opts))
	cmd.AddCommand(newDescribeKeyspaceCommand(opts))
	return cmd
}

// describeRun opens the catalog, loads keyspace and prints what pick selects.
func describeRun(cmd *cobra.Command, opts *globalOptions, ref string, kind string,
	pick func(st *state, c *catalog, keyspace, name string) ([]schema.Describable, error)) error {
	st, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	keyspace, name := st.manager.QualifiedName(ref)
	if keyspace == "" {
		return fmt.Errorf("no keyspace given for %s %q", kind, ref)
	}

	c, err := opts.openCatalog(st)
	if err != nil {
		return err
	}
	if c.close != nil {
		defer c.close()
	}

	objects, err := pick(st, c, keyspace, name)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		if name == "" {
			return fmt.Errorf("%s %s has no user types, functions or aggregates", kind, keyspace)
		}
		return fmt.Errorf("%s %s.%s not found", kind, keyspace, name)
	}
	return writeDescribed(cmd.OutOrStdout(), st, objects)
}

func writeDescribed(w io.Writer, st *state, objects []schema.Describable) error {
	describer := schema.NewDescriber(schema.WithLogger(st.log))
	pretty := st.manager.Pretty()
	statements := make([]string, len(objects))
	for i, obj := range objects {
		statements[i] = describer.Describe(obj, pretty)
	}
	sep := "\n"
	if pretty {
		sep = "\n\n"
	}
	_, err := fmt.Fprintln(w, strings.Join(statements, sep))
	return err
}

func loadKeyspace(ctx context.Context, st *state, c *catalog, keyspace string) (*db.Keyspace, error) {
	ks, err := db.NewKeyspaceLoader(c.reader, st.log).Load(ctx, keyspace)
	if err != nil {
		return nil, errors.Wrapf(err, "loading keyspace %s", keyspace)
	}
	return ks, nil
}

func newDescribeObjectCommand(opts *globalOptions, kind, short string,
	selectFn func(ks *db.Keyspace, name string) []schema.Describable) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <[keyspace.]name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return describeRun(cmd, opts, args[0], kind,
				func(st *state, c *catalog, keyspace, name string) ([]schema.Describable, error) {
					ks, err := loadKeyspace(cmd.Context(), st, c, keyspace)
					if err != nil {
						return nil, err
					}
					return selectFn(ks, name), nil
				})
		},
	}
}

func newDescribeTypeCommand(opts *globalOptions) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "type <[keyspace.]name>",
		Short: "Describe a user-defined type",
		Long: `Describe a user-defined type. With --source driver the type is built from
the driver's cached schema metadata instead of system_schema.types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if source != "catalog" && source != "driver" {
				return fmt.Errorf("unknown source %q: expected catalog or driver", source)
			}
			return describeRun(cmd, opts, args[0], "type",
				func(st *state, c *catalog, keyspace, name string) ([]schema.Describable, error) {
					var types map[string]schema.UserDefinedType
					if source == "driver" {
						if c.session == nil {
							return nil, fmt.Errorf("driver metadata needs a live session")
						}
						meta, err := c.session.DriverUserTypes(keyspace)
						if err != nil {
							return nil, err
						}
						if types, err = db.UserTypesFromDriver(meta); err != nil {
							return nil, err
						}
					} else {
						ks, err := loadKeyspace(cmd.Context(), st, c, keyspace)
						if err != nil {
							return nil, err
						}
						types = ks.UserTypes
					}
					udt, ok := types[name]
					if !ok {
						return nil, nil
					}
					return []schema.Describable{udt}, nil
				})
		},
	}
	cmd.Flags().StringVar(&source, "source", "catalog", "Where to read the type from: catalog or driver")
	return cmd
}

func newDescribeKeyspaceCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keyspace [name]",
		Short: "Describe every user type, function and aggregate of a keyspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				// A bare keyspace name, not a keyspace-qualified object.
				ref = args[0] + "."
			}
			return describeRun(cmd, opts, ref, "keyspace",
				func(st *state, c *catalog, keyspace, _ string) ([]schema.Describable, error) {
					ks, err := loadKeyspace(cmd.Context(), st, c, keyspace)
					if err != nil {
						return nil, err
					}
					return ks.Objects(), nil
				})
		},
	}
}
