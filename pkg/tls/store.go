package tls

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SaveCertToFiles writes a certificate and its private key as PEM
// files, creating parent directories as needed. The key file is written
// with owner-only permissions.
func SaveCertToFiles(cert *GeneratedCertificate, certPath, keyPath string) error {
	if cert == nil {
		return errors.New("certificate cannot be nil")
	}

	if err := os.MkdirAll(filepath.Dir(certPath), 0755); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	if err := os.WriteFile(certPath, cert.CertPEM, 0644); err != nil {
		return fmt.Errorf("failed to write certificate file: %w", err)
	}
	if err := os.WriteFile(keyPath, cert.KeyPEM, 0600); err != nil {
		_ = os.Remove(certPath)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// GenerateAndSave generates a self-signed certificate and writes it to
// the given paths.
func GenerateAndSave(cfg *CertificateConfig, certPath, keyPath string) (*GeneratedCertificate, error) {
	cert, err := GenerateSelfSignedCert(cfg)
	if err != nil {
		return nil, err
	}
	if err := SaveCertToFiles(cert, certPath, keyPath); err != nil {
		return nil, err
	}
	return cert, nil
}
