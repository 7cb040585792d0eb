package tls

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCredentialExists is returned by WriteFiles when a target file is already
// present and overwriting was not requested.
var ErrCredentialExists = errors.New("credential file already exists")

// WriteFiles stores the pair as PEM files, the certificate world-readable and
// the key owner-only. Each file is renamed into place after being written in
// full. Existing files are replaced only when overwrite is set.
func (g *GeneratedCertificate) WriteFiles(certPath, keyPath string, overwrite bool) error {
	if !overwrite {
		for _, p := range []string{certPath, keyPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%w: %s", ErrCredentialExists, p)
			}
		}
	}

	if err := writeFileAtomic(certPath, g.CertPEM, 0o644); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	if err := writeFileAtomic(keyPath, g.KeyPEM, 0o600); err != nil {
		_ = os.Remove(certPath)
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}

// GenerateFiles creates a self-signed pair from cfg, or from
// DefaultCertificateConfig when cfg is nil, and writes it with WriteFiles.
func GenerateFiles(cfg *CertificateConfig, certPath, keyPath string, overwrite bool) (*GeneratedCertificate, error) {
	gen, err := GenerateSelfSignedCert(cfg)
	if err != nil {
		return nil, err
	}
	if err := gen.WriteFiles(certPath, keyPath, overwrite); err != nil {
		return nil, err
	}
	return gen, nil
}

// LoadCertPool reads the PEM certificates in path into a pool. Clients use it
// to trust a server running with a generated certificate.
func LoadCertPool(path string) (*x509.CertPool, error) {
	//nolint:gosec // G304: path is chosen by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("%w: no PEM certificates in %s", ErrInvalidCredential, path)
	}
	return pool, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
