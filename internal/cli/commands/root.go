package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axonops/cqlschema/internal/config"
	"github.com/axonops/cqlschema/internal/logger"
	"github.com/axonops/cqlschema/internal/session"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalOptions carries the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	host       string
	port       int
	keyspace   string
	username   string
	password   string
	debug      bool
	pretty     bool

	openCatalog func(*state) (*catalog, error)
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return newRootCommand(&globalOptions{openCatalog: connectCatalog})
}

func newRootCommand(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cqlschema",
		Short: "Parse CQL types and render schema DDL",
		Long: color.CyanString(`cqlschema - CQL schema catalog tooling

Parses the type strings stored in Cassandra's system_schema tables and
renders CREATE statements for user types, functions and aggregates.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a cqlschema config file")
	flags.StringVar(&opts.host, "host", "", "Cassandra host")
	flags.IntVar(&opts.port, "port", 0, "Cassandra native protocol port")
	flags.StringVarP(&opts.keyspace, "keyspace", "k", "", "Default keyspace")
	flags.StringVarP(&opts.username, "username", "u", "", "Username")
	flags.StringVarP(&opts.password, "password", "p", "", "Password")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.pretty, "pretty", false, "Render DDL across indented lines")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewParseTypeCommand(opts))
	rootCmd.AddCommand(NewDescribeCommand(opts))

	return rootCmd
}

// loadConfig reads the configuration and applies the flags that were set on
// the command line.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var paths []string
	if o.configPath != "" {
		paths = append(paths, o.configPath)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = o.host
	}
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("keyspace") {
		cfg.Keyspace = o.keyspace
	}
	if flags.Changed("username") {
		cfg.Username = o.username
	}
	if flags.Changed("password") {
		cfg.Password = o.password
	}
	if flags.Changed("debug") {
		cfg.Debug = o.debug
	}
	if flags.Changed("pretty") {
		cfg.Pretty = o.pretty
	}
	return cfg, cfg.Validate()
}

// state bundles what a subcommand needs once configuration is loaded.
type state struct {
	cfg     *config.Config
	log     *zap.Logger
	manager *session.Manager
}

func (o *globalOptions) setup(cmd *cobra.Command) (*state, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger.SetDebugEnabled(cfg.Debug)
	return &state{
		cfg:     cfg,
		log:     logger.New(cfg.Debug),
		manager: session.NewManager(cfg),
	}, nil
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the cqlschema version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "cqlschema version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
