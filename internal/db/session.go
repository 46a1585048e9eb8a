package db

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"go.uber.org/zap"

	"github.com/axonops/cqlschema/internal/config"
	"github.com/axonops/cqlschema/internal/logger"
)

// Session is a wrapper around the gocql.Session used for catalog reads.
type Session struct {
	*gocql.Session
	cluster          *gocql.ClusterConfig
	consistency      gocql.Consistency
	username         string
	host             string
	cassandraVersion string
	protoVersion     int
}

// driverLogger routes gocql's own messages to the debug level of a zap
// logger so connection retries do not clutter the command output.
type driverLogger struct {
	l *zap.Logger
}

func (d driverLogger) Error(msg string, fields ...gocql.LogField)   { d.l.Debug(msg) }
func (d driverLogger) Warning(msg string, fields ...gocql.LogField) { d.l.Debug(msg) }
func (d driverLogger) Info(msg string, fields ...gocql.LogField)    { d.l.Debug(msg) }
func (d driverLogger) Debug(msg string, fields ...gocql.LogField)   { d.l.Debug(msg) }

// protocolVersions are tried in order until one connects.
// Protocol v5: Cassandra 4.0+, v4: Cassandra 3.0+, v3: Cassandra 2.1+.
var protocolVersions = []int{5, 4, 3}

// NewClusterConfig builds the driver configuration for cfg without
// connecting.
func NewClusterConfig(cfg *config.Config, log *zap.Logger) (*gocql.ClusterConfig, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cluster := gocql.NewCluster(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	cluster.Logger = driverLogger{l: log.Named("gocql")}
	cluster.DisableInitialHostLookup = true

	consistency, err := ParseConsistency(cfg.Consistency)
	if err != nil {
		return nil, err
	}
	cluster.Consistency = consistency

	cluster.Timeout = 10 * time.Second
	if cfg.RequestTimeout > 0 {
		cluster.Timeout = time.Duration(cfg.RequestTimeout) * time.Second
	}
	cluster.ConnectTimeout = 10 * time.Second
	if cfg.ConnectTimeout > 0 {
		cluster.ConnectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second
	}

	if cfg.Keyspace != "" {
		cluster.Keyspace = cfg.Keyspace
	}

	if cfg.Username != "" && cfg.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	if cfg.SSL != nil && cfg.SSL.Enabled {
		tlsConfig, err := createTLSConfig(cfg.SSL, cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
		cluster.SslOpts = &gocql.SslOptions{
			Config: tlsConfig,
		}
	}
	return cluster, nil
}

// Connect opens a session, falling back to older protocol versions when the
// server rejects newer ones.
func Connect(cfg *config.Config, log *zap.Logger) (*Session, error) {
	cluster, err := NewClusterConfig(cfg, log)
	if err != nil {
		return nil, err
	}

	var session *gocql.Session
	var used int
	for _, protoVer := range protocolVersions {
		cluster.ProtoVersion = protoVer
		session, err = cluster.CreateSession()
		if err == nil {
			used = protoVer
			logger.DebugfToFile("Session", "Connected to %s:%d with protocol version %d", cfg.Host, cfg.Port, protoVer)
			break
		}
		logger.DebugfToFile("Session", "Failed to connect with protocol version %d: %v", protoVer, err)
	}
	if session == nil {
		return nil, fmt.Errorf("failed to connect to Cassandra with any supported protocol version: %w", err)
	}

	var releaseVersion string
	iter := session.Query("SELECT release_version FROM system.local").Iter()
	iter.Scan(&releaseVersion)
	if err := iter.Close(); err != nil {
		logger.DebugfToFile("Session", "Reading release_version failed: %v", err)
	}

	return &Session{
		Session:          session,
		cluster:          cluster,
		consistency:      cluster.Consistency,
		username:         cfg.Username,
		host:             cfg.Host,
		cassandraVersion: releaseVersion,
		protoVersion:     used,
	}, nil
}

// ParseConsistency converts a consistency level name to the driver's value.
// An empty name selects LOCAL_ONE.
func ParseConsistency(level string) (gocql.Consistency, error) {
	switch strings.ToUpper(level) {
	case "", "LOCAL_ONE":
		return gocql.LocalOne, nil
	case "ANY":
		return gocql.Any, nil
	case "ONE":
		return gocql.One, nil
	case "TWO":
		return gocql.Two, nil
	case "THREE":
		return gocql.Three, nil
	case "QUORUM":
		return gocql.Quorum, nil
	case "ALL":
		return gocql.All, nil
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum, nil
	case "EACH_QUORUM":
		return gocql.EachQuorum, nil
	default:
		return 0, fmt.Errorf("invalid consistency level: %s", level)
	}
}

// Query creates a new query with session defaults applied
func (s *Session) Query(stmt string, values ...interface{}) *gocql.Query {
	return s.Session.Query(stmt, values...).Consistency(s.consistency)
}

// iter runs stmt bound to ctx.
func (s *Session) iter(ctx context.Context, stmt string, values ...interface{}) *gocql.Iter {
	return s.Query(stmt, values...).IterContext(ctx)
}

// Username returns the current connection username
func (s *Session) Username() string { return s.username }

// Host returns the connection host
func (s *Session) Host() string { return s.host }

// ProtocolVersion returns the native protocol version negotiated by Connect.
func (s *Session) ProtocolVersion() int { return s.protoVersion }

// CassandraVersion returns the Cassandra version
func (s *Session) CassandraVersion() string {
	if s.cassandraVersion == "" {
		return "unknown"
	}
	return s.cassandraVersion
}

// MajorVersion returns the leading component of the server release version,
// or 0 when it is unknown.
func (s *Session) MajorVersion() int {
	major, _, _ := strings.Cut(s.cassandraVersion, ".")
	v, err := strconv.Atoi(major)
	if err != nil {
		return 0
	}
	return v
}

// DriverUserTypes returns the user types of keyspace as reported by the
// driver's own schema metadata.
func (s *Session) DriverUserTypes(keyspace string) (*gocql.KeyspaceMetadata, error) {
	ks, err := s.Session.KeyspaceMetadata(keyspace)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyspace metadata: %w", err)
	}
	return ks, nil
}

// createTLSConfig creates a TLS configuration based on the SSL settings
func createTLSConfig(sslConfig *config.SSLConfig, hostname string) (*tls.Config, error) {
	// An explicit ServerName is used for SNI routing; otherwise the host
	// without its port.
	serverName := sslConfig.ServerName
	if serverName == "" {
		serverName = hostname
		if colonIdx := strings.LastIndex(hostname, ":"); colonIdx > 0 {
			serverName = hostname[:colonIdx]
		}
	}

	// Legacy CN checking replaces the standard verification below.
	legacyCN := sslConfig.AllowLegacyCN && sslConfig.HostVerification
	tlsConfig := &tls.Config{
		InsecureSkipVerify: sslConfig.InsecureSkipVerify || legacyCN, // #nosec G402 - Configurable TLS verification
	}
	if sslConfig.HostVerification && !sslConfig.AllowLegacyCN && serverName != "" {
		tlsConfig.ServerName = serverName
	}

	if sslConfig.CertPath != "" && sslConfig.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(sslConfig.CertPath, sslConfig.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if sslConfig.CAPath != "" {
		caCert, err := os.ReadFile(sslConfig.CAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = pool
	}

	if legacyCN {
		tlsConfig.VerifyConnection = func(cs tls.ConnectionState) error {
			return verifyLegacyCN(cs, serverName, tlsConfig.RootCAs)
		}
	}
	return tlsConfig, nil
}

// verifyLegacyCN accepts a peer whose chain is valid and whose SANs or,
// failing that, Common Name match serverName.
func verifyLegacyCN(cs tls.ConnectionState, serverName string, roots *x509.CertPool) error {
	if len(cs.PeerCertificates) == 0 {
		return fmt.Errorf("no peer certificates")
	}
	intermediates := x509.NewCertPool()
	for _, cert := range cs.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}
	leaf := cs.PeerCertificates[0]

	if _, err := leaf.Verify(x509.VerifyOptions{DNSName: serverName, Intermediates: intermediates, Roots: roots}); err == nil {
		return nil
	}
	if _, err := leaf.Verify(x509.VerifyOptions{Intermediates: intermediates, Roots: roots}); err != nil {
		return fmt.Errorf("certificate verification failed: %w", err)
	}
	if leaf.Subject.CommonName == serverName {
		return nil
	}
	return fmt.Errorf("certificate CN %q doesn't match expected hostname %q", leaf.Subject.CommonName, serverName)
}
