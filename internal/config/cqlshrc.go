package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/axonops/cqlschema/internal/logger"
)

// scanINI calls fn for every key = value line of a cqlsh style INI file,
// with the lower-cased section it appears in. Surrounding quotes on values
// are removed.
func scanINI(path string, fn func(section, key, value string)) error {
	file, err := os.Open(path) // #nosec G304 - path comes from the user's own configuration
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	section := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.Trim(line, "[]"))
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}
		fn(section, key, value)
	}
	return scanner.Err()
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		return filepath.Join(os.Getenv("HOME"), path[1:])
	}
	return path
}

// loadCQLSHRC applies the connection, authentication and ssl sections of a
// cqlshrc file to config.
func loadCQLSHRC(path string, config *Config) error {
	var credentialsPath string
	sslConfig := func() *SSLConfig {
		if config.SSL == nil {
			config.SSL = &SSLConfig{}
		}
		return config.SSL
	}

	err := scanINI(path, func(section, key, value string) {
		switch section {
		case "connection":
			switch key {
			case "hostname":
				config.Host = value
			case "port":
				if port, err := strconv.Atoi(value); err == nil {
					config.Port = port
				} else {
					logger.DebugfToFile("CQLSHRC", "Ignoring port value %q", value)
				}
			case "ssl":
				if value == "true" || value == "1" {
					sslConfig().Enabled = true
				}
			case "timeout", "connect_timeout":
				if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
					config.ConnectTimeout = secs
				}
			case "request_timeout":
				if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
					config.RequestTimeout = secs
				}
			}
		case "authentication":
			switch key {
			case "credentials":
				credentialsPath = value
			case "keyspace":
				config.Keyspace = value
			case "username":
				config.Username = value
			case "password":
				config.Password = value
			}
		case "auth_provider":
			if config.AuthProvider == nil {
				config.AuthProvider = &AuthProvider{}
			}
			switch key {
			case "module":
				config.AuthProvider.Module = value
			case "classname":
				config.AuthProvider.ClassName = value
			case "username":
				config.Username = value
			case "password":
				config.Password = value
			}
		case "ssl":
			// Any key in [ssl] turns SSL on.
			ssl := sslConfig()
			ssl.Enabled = true
			switch key {
			case "certfile":
				ssl.CAPath = expandHome(value)
			case "userkey":
				ssl.KeyPath = expandHome(value)
			case "usercert":
				ssl.CertPath = expandHome(value)
			case "validate":
				if value == "false" || value == "0" {
					ssl.InsecureSkipVerify = true
					ssl.HostVerification = false
				} else {
					ssl.HostVerification = true
					ssl.AllowLegacyCN = true
				}
			}
		}
	})
	if err != nil {
		return err
	}

	if credentialsPath != "" {
		if err := loadCredentialsFile(credentialsPath, config); err != nil {
			logger.DebugfToFile("CQLSHRC", "Failed to load credentials file %s: %v", credentialsPath, err)
		}
	}
	return nil
}

// loadCredentialsFile reads username and password from the auth provider
// section of a cqlsh credentials file:
//
//	[PlainTextAuthProvider]
//	username = user
//	password = pass
func loadCredentialsFile(path string, config *Config) error {
	return scanINI(expandHome(path), func(section, key, value string) {
		if !strings.Contains(section, "auth") {
			return
		}
		switch key {
		case "username":
			config.Username = value
		case "password":
			config.Password = value
		}
	})
}
