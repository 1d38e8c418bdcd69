package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"
)

// Errors distinguishing the ways server context construction can fail.
// Each one prevents the listener from binding.
var (
	ErrCertNotFound    = errors.New("certificate file not found")
	ErrKeyNotFound     = errors.New("key file not found")
	ErrCertInvalid     = errors.New("certificate is not valid PEM/DER")
	ErrCertExpired     = errors.New("certificate has expired")
	ErrCertNotYetValid = errors.New("certificate is not yet valid")
	ErrKeyMismatch     = errors.New("certificate and key do not match")
	ErrBadTrustAnchor  = errors.New("trust anchor contains no usable certificates")
)

// BuildServerConfig constructs the server-side TLS context. The
// certificate and key files must exist, the certificate's validity
// window must contain the current time, and the pair must match. Legacy
// protocol versions below TLS 1.2 are disabled. When caFile is
// non-empty, client certificates are required and verified against it;
// a peer presenting no certificate or an unverifiable one fails the
// handshake and never reaches a session.
func BuildServerConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	if _, err := os.Stat(certFile); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCertNotFound, certFile)
	}
	if _, err := os.Stat(keyFile); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyFile)
	}

	if err := checkValidityWindow(certFile, time.Now()); err != nil {
		return nil, err
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMismatch, err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if caFile != "" {
		caPEM, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read trust anchor %s: %w", caFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("%w: %s", ErrBadTrustAnchor, caFile)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg, nil
}

// checkValidityWindow parses the leaf certificate and verifies that now
// falls inside its NotBefore/NotAfter window.
func checkValidityWindow(certFile string, now time.Time) error {
	data, err := os.ReadFile(certFile)
	if err != nil {
		return fmt.Errorf("failed to read certificate %s: %w", certFile, err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return fmt.Errorf("%w: %s", ErrCertInvalid, certFile)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCertInvalid, certFile, err)
	}

	if now.Before(cert.NotBefore) {
		return fmt.Errorf("%w: valid from %s", ErrCertNotYetValid, cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("%w: expired %s", ErrCertExpired, cert.NotAfter.Format(time.RFC3339))
	}
	return nil
}
