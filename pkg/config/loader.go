package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading and validation.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrMissingField     = errors.New("missing required configuration field")
	ErrInvalidValue     = errors.New("invalid configuration value")
)

// Load reads, parses, defaults, and validates a settings file.
func Load(path string) (*Settings, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path is a directory: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	return Parse(data)
}

// Parse decodes YAML settings, applies defaults, and validates.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks required fields and value ranges. Every violation is
// wrapped in ErrMissingField or ErrInvalidValue so callers can refuse
// to start before binding any socket.
func (s *Settings) Validate() error {
	if s.Server.Port == 0 {
		return fmt.Errorf("%w: server.port", ErrMissingField)
	}
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidValue, s.Server.Port)
	}
	if s.Search.Path == "" {
		return fmt.Errorf("%w: search.path", ErrMissingField)
	}
	switch s.Search.Algorithm {
	case "linear", "binary":
	default:
		return fmt.Errorf("%w: search.algorithm %q (want linear or binary)", ErrInvalidValue, s.Search.Algorithm)
	}
	if s.TLS.Enabled {
		if s.TLS.CertFile == "" {
			return fmt.Errorf("%w: tls.certFile", ErrMissingField)
		}
		if s.TLS.KeyFile == "" {
			return fmt.Errorf("%w: tls.keyFile", ErrMissingField)
		}
	}
	return nil
}
