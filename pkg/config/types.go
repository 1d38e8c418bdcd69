// Package config provides the haystackd settings file format, loading,
// and validation. Settings are read once at startup and treated as
// immutable afterwards.
package config

// Settings is the root of the haystackd configuration file.
type Settings struct {
	Server  ServerSettings  `yaml:"server"`
	Search  SearchSettings  `yaml:"search"`
	TLS     TLSSettings     `yaml:"tls"`
	Logging LoggingSettings `yaml:"logging"`
}

// ServerSettings configures the TCP listener and worker pool.
type ServerSettings struct {
	// Port is the TCP port to listen on. Required.
	Port int `yaml:"port"`
	// MaxWorkers caps the number of concurrently handled connections.
	// Connections beyond the cap queue at the OS backlog.
	MaxWorkers int `yaml:"maxWorkers"`
	// MaxQueryTimeMs is the per-query latency ceiling in milliseconds.
	// Queries exceeding it are answered normally but logged as slow.
	MaxQueryTimeMs int `yaml:"maxQueryTimeMs"`
}

// SearchSettings configures the search engine.
type SearchSettings struct {
	// Path is the line-oriented dataset file. Required.
	Path string `yaml:"path"`
	// Algorithm selects "linear" or "binary" matching.
	Algorithm string `yaml:"algorithm"`
	// RereadOnQuery re-derives the dataset from the file on every
	// query instead of loading it once at startup.
	RereadOnQuery bool `yaml:"rereadOnQuery"`
	// UseMmap scans a memory-mapped view of the file in reread mode
	// where the platform supports it. Results are identical either way.
	UseMmap bool `yaml:"useMmap"`
}

// TLSSettings configures the encrypted transport.
type TLSSettings struct {
	// Enabled wraps every accepted connection in TLS.
	Enabled bool `yaml:"enabled"`
	// CertFile is the server certificate (PEM). Required when enabled.
	CertFile string `yaml:"certFile"`
	// KeyFile is the server private key (PEM). Required when enabled.
	KeyFile string `yaml:"keyFile"`
	// CAFile, when set, requires and verifies client certificates
	// against this trust anchor (mutual TLS).
	CAFile string `yaml:"caFile"`
}

// LoggingSettings configures log output.
type LoggingSettings struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default values applied by ApplyDefaults.
const (
	DefaultMaxWorkers     = 20
	DefaultMaxQueryTimeMs = 40
	DefaultAlgorithm      = "linear"
)

// ApplyDefaults fills in unset optional fields. Required fields are
// left alone so validation can report them.
func (s *Settings) ApplyDefaults() {
	if s.Server.MaxWorkers <= 0 {
		s.Server.MaxWorkers = DefaultMaxWorkers
	}
	if s.Server.MaxQueryTimeMs <= 0 {
		s.Server.MaxQueryTimeMs = DefaultMaxQueryTimeMs
	}
	if s.Search.Algorithm == "" {
		s.Search.Algorithm = DefaultAlgorithm
	}
	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
	if s.Logging.Format == "" {
		s.Logging.Format = "text"
	}
}
