package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/axonops/cqlschema/internal/logger"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "CQLSCHEMA"

// Config holds the application configuration
type Config struct {
	Host           string        `mapstructure:"host" json:"host" yaml:"host"`
	Port           int           `mapstructure:"port" json:"port" yaml:"port"`
	Keyspace       string        `mapstructure:"keyspace" json:"keyspace,omitempty" yaml:"keyspace,omitempty"`
	Username       string        `mapstructure:"username" json:"username,omitempty" yaml:"username,omitempty"`
	Password       string        `mapstructure:"password" json:"-" yaml:"-"`
	Consistency    string        `mapstructure:"consistency" json:"consistency,omitempty" yaml:"consistency,omitempty"`
	ConnectTimeout int           `mapstructure:"connect_timeout" json:"connectTimeout,omitempty" yaml:"connect_timeout,omitempty"` // seconds
	RequestTimeout int           `mapstructure:"request_timeout" json:"requestTimeout,omitempty" yaml:"request_timeout,omitempty"` // seconds
	Debug          bool          `mapstructure:"debug" json:"debug,omitempty" yaml:"debug,omitempty"`
	Pretty         bool          `mapstructure:"pretty" json:"pretty,omitempty" yaml:"pretty,omitempty"`
	SSL            *SSLConfig    `mapstructure:"ssl" json:"ssl,omitempty" yaml:"ssl,omitempty"`
	AuthProvider   *AuthProvider `mapstructure:"auth_provider" json:"authProvider,omitempty" yaml:"auth_provider,omitempty"`
}

// AuthProvider records the cqlsh authentication provider settings
type AuthProvider struct {
	Module    string `mapstructure:"module" json:"module,omitempty" yaml:"module,omitempty"`
	ClassName string `mapstructure:"class_name" json:"className,omitempty" yaml:"class_name,omitempty"`
}

// SSLConfig holds SSL/TLS configuration options
type SSLConfig struct {
	Enabled            bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	CertPath           string `mapstructure:"cert_path" json:"certPath,omitempty" yaml:"cert_path,omitempty"`
	KeyPath            string `mapstructure:"key_path" json:"keyPath,omitempty" yaml:"key_path,omitempty"`
	CAPath             string `mapstructure:"ca_path" json:"caPath,omitempty" yaml:"ca_path,omitempty"`
	HostVerification   bool   `mapstructure:"host_verification" json:"hostVerification,omitempty" yaml:"host_verification,omitempty"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" json:"insecureSkipVerify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	AllowLegacyCN      bool   `mapstructure:"allow_legacy_cn" json:"allowLegacyCN,omitempty" yaml:"allow_legacy_cn,omitempty"`
	ServerName         string `mapstructure:"server_name" json:"serverName,omitempty" yaml:"server_name,omitempty"`
}

// OutputFormat selects how parse-type prints a parsed type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat converts a string to OutputFormat
func ParseOutputFormat(format string) (OutputFormat, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return OutputFormatText, nil
	case "json":
		return OutputFormatJSON, nil
	case "yaml", "yml":
		return OutputFormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// consistencyLevels are the names accepted for Config.Consistency.
var consistencyLevels = map[string]bool{
	"ANY": true, "ONE": true, "TWO": true, "THREE": true, "QUORUM": true, "ALL": true,
	"LOCAL_QUORUM": true, "EACH_QUORUM": true, "LOCAL_ONE": true,
}

// envBindings maps config keys to the environment variables that set them,
// highest priority first. CASSANDRA_* names are kept for cqlsh compatibility.
var envBindings = map[string][]string{
	"host":            {EnvPrefix + "_HOST", "CASSANDRA_HOST"},
	"port":            {EnvPrefix + "_PORT", "CASSANDRA_PORT"},
	"keyspace":        {EnvPrefix + "_KEYSPACE", "CASSANDRA_KEYSPACE"},
	"username":        {EnvPrefix + "_USERNAME", "CASSANDRA_USERNAME"},
	"password":        {EnvPrefix + "_PASSWORD", "CASSANDRA_PASSWORD"},
	"consistency":     {EnvPrefix + "_CONSISTENCY"},
	"connect_timeout": {EnvPrefix + "_CONNECT_TIMEOUT"},
	"request_timeout": {EnvPrefix + "_REQUEST_TIMEOUT"},
	"debug":           {EnvPrefix + "_DEBUG"},
	"pretty":          {EnvPrefix + "_PRETTY"},
	"ssl.enabled":     {EnvPrefix + "_SSL_ENABLED"},
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Host:           "localhost",
		Port:           9042,
		Consistency:    "LOCAL_ONE",
		ConnectTimeout: 10,
		RequestTimeout: 10,
	}
}

// LoadConfig loads configuration in increasing order of precedence: built-in
// defaults, the cqlshrc file, a cqlschema.{json,yaml} config file, then
// environment variables. If customConfigPath is provided and not empty it
// replaces the config file search and must exist.
func LoadConfig(customConfigPath ...string) (*Config, error) {
	config := Default()

	home := os.Getenv("HOME")
	for _, path := range []string{
		filepath.Join(home, ".cassandra", "cqlshrc"),
		filepath.Join(home, ".cqlshrc"),
	} {
		if err := loadCQLSHRC(path, config); err == nil {
			logger.DebugfToFile("Config", "Loaded cqlshrc from %s", path)
			break
		} else {
			logger.DebugfToFile("Config", "No cqlshrc at %s: %v", path, err)
		}
	}

	v := viper.New()
	if len(customConfigPath) > 0 && customConfigPath[0] != "" {
		v.SetConfigFile(customConfigPath[0])
	} else {
		v.SetConfigName("cqlschema")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", "cqlschema"))
	}

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logger.DebugfToFile("Config", "No config file found, using cqlshrc and defaults")
	} else {
		logger.DebugfToFile("Config", "Loaded config file %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Consistency = strings.ToUpper(config.Consistency)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger.DebugfToFile("Config", "Final config: host=%s, port=%d, username=%s, keyspace=%s, hasPassword=%v",
		config.Host, config.Port, config.Username, config.Keyspace, config.Password != "")
	return config, nil
}

// Validate reports settings the session cannot be built from.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.ConnectTimeout < 0 || c.RequestTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Consistency != "" && !consistencyLevels[strings.ToUpper(c.Consistency)] {
		return fmt.Errorf("unknown consistency level: %s", c.Consistency)
	}
	return nil
}
