package tls

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateCertFiles(t *testing.T, cfg *CertificateConfig) (certPath, keyPath string) {
	t.Helper()
	dir := t.TempDir()
	certPath = filepath.Join(dir, "server.pem")
	keyPath = filepath.Join(dir, "server.key")
	_, err := GenerateAndSave(cfg, certPath, keyPath)
	require.NoError(t, err)
	return certPath, keyPath
}

func TestBuildServerConfig(t *testing.T) {
	certPath, keyPath := generateCertFiles(t, nil)

	cfg, err := BuildServerConfig(certPath, keyPath, "")
	require.NoError(t, err)

	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Equal(t, tls.NoClientCert, cfg.ClientAuth)
	assert.Nil(t, cfg.ClientCAs)
}

func TestBuildServerConfigMutualAuth(t *testing.T) {
	certPath, keyPath := generateCertFiles(t, nil)

	ca, err := GenerateSelfSignedCert(&CertificateConfig{
		Organization: "clients",
		CommonName:   "client-ca",
		ValidFor:     time.Hour,
		ClientAuth:   true,
	})
	require.NoError(t, err)
	caPath := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caPath, ca.CertPEM, 0644))

	cfg, err := BuildServerConfig(certPath, keyPath, caPath)
	require.NoError(t, err)

	assert.Equal(t, tls.RequireAndVerifyClientCert, cfg.ClientAuth)
	assert.NotNil(t, cfg.ClientCAs)
}

func TestBuildServerConfigMissingCert(t *testing.T) {
	_, keyPath := generateCertFiles(t, nil)

	_, err := BuildServerConfig(filepath.Join(t.TempDir(), "nope.pem"), keyPath, "")
	require.ErrorIs(t, err, ErrCertNotFound)
	assert.Contains(t, err.Error(), "nope.pem")
}

func TestBuildServerConfigMissingKey(t *testing.T) {
	certPath, _ := generateCertFiles(t, nil)

	_, err := BuildServerConfig(certPath, filepath.Join(t.TempDir(), "nope.key"), "")
	require.ErrorIs(t, err, ErrKeyNotFound)
	assert.Contains(t, err.Error(), "nope.key")
}

func TestBuildServerConfigExpiredCert(t *testing.T) {
	certPath, keyPath := generateCertFiles(t, &CertificateConfig{
		CommonName: "localhost",
		NotBefore:  time.Now().Add(-48 * time.Hour),
		ValidFor:   time.Hour,
	})

	_, err := BuildServerConfig(certPath, keyPath, "")
	assert.ErrorIs(t, err, ErrCertExpired)
}

func TestBuildServerConfigNotYetValidCert(t *testing.T) {
	certPath, keyPath := generateCertFiles(t, &CertificateConfig{
		CommonName: "localhost",
		NotBefore:  time.Now().Add(24 * time.Hour),
		ValidFor:   time.Hour,
	})

	_, err := BuildServerConfig(certPath, keyPath, "")
	assert.ErrorIs(t, err, ErrCertNotYetValid)
}

func TestBuildServerConfigMismatchedKey(t *testing.T) {
	certPath, _ := generateCertFiles(t, nil)
	_, otherKeyPath := generateCertFiles(t, nil)

	_, err := BuildServerConfig(certPath, otherKeyPath, "")
	assert.ErrorIs(t, err, ErrKeyMismatch)
}

func TestBuildServerConfigGarbageCert(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "garbage.pem")
	keyPath := filepath.Join(dir, "garbage.key")
	require.NoError(t, os.WriteFile(certPath, []byte("not a certificate"), 0644))
	require.NoError(t, os.WriteFile(keyPath, []byte("not a key"), 0600))

	_, err := BuildServerConfig(certPath, keyPath, "")
	assert.ErrorIs(t, err, ErrCertInvalid)
}

func TestBuildServerConfigBadTrustAnchor(t *testing.T) {
	certPath, keyPath := generateCertFiles(t, nil)
	caPath := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caPath, []byte("no certs here"), 0644))

	_, err := BuildServerConfig(certPath, keyPath, caPath)
	assert.ErrorIs(t, err, ErrBadTrustAnchor)
}

func TestGenerateSelfSignedCert(t *testing.T) {
	cert, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cert.Certificate.Subject.CommonName)
	assert.True(t, cert.Certificate.IsCA)
	assert.NotEmpty(t, cert.CertPEM)
	assert.NotEmpty(t, cert.KeyPEM)
}

func TestSaveCertToFilesPermissions(t *testing.T) {
	cert, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "a", "cert.pem")
	keyPath := filepath.Join(dir, "b", "key.pem")
	require.NoError(t, SaveCertToFiles(cert, certPath, keyPath))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveCertToFilesNil(t *testing.T) {
	err := SaveCertToFiles(nil, "cert.pem", "key.pem")
	assert.Error(t, err)
}
