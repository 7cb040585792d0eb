package tls

import (
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePrivateKey(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	require.NotNil(t, key)

	assert.Equal(t, elliptic.P256(), key.Curve)
}

func TestCreateCertificateTemplate(t *testing.T) {
	cfg := &CertificateConfig{
		Organization: "Test Org",
		CommonName:   "test.local",
		DNSNames:     []string{"test.local", "localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		ValidFor:     24 * time.Hour,
		IsCA:         true,
	}

	template, err := CreateCertificateTemplate(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Test Org", template.Subject.Organization[0])
	assert.Equal(t, "test.local", template.Subject.CommonName)
	assert.Contains(t, template.DNSNames, "localhost")
	assert.True(t, template.IsCA)
	assert.NotZero(t, template.KeyUsage&x509.KeyUsageCertSign)
	assert.NotNil(t, template.SerialNumber)
}

func TestCreateCertificateTemplate_NilConfig(t *testing.T) {
	template, err := CreateCertificateTemplate(nil)
	require.NoError(t, err)

	assert.Equal(t, "mockserver", template.Subject.Organization[0])
	assert.Equal(t, "localhost", template.Subject.CommonName)
	assert.False(t, template.IsCA)
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, template.ExtKeyUsage)
}

func TestGenerateSelfSignedCert(t *testing.T) {
	cert, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cert.Certificate.Subject.CommonName)
	assert.Contains(t, cert.Certificate.DNSNames, "localhost")
	assert.True(t, cert.Certificate.NotBefore.Before(time.Now()))
	assert.True(t, cert.Certificate.NotAfter.After(time.Now().Add(364*24*time.Hour)))

	certBlock, _ := pem.Decode(cert.CertPEM)
	require.NotNil(t, certBlock)
	assert.Equal(t, "CERTIFICATE", certBlock.Type)

	keyBlock, _ := pem.Decode(cert.KeyPEM)
	require.NotNil(t, keyBlock)
	assert.Equal(t, "EC PRIVATE KEY", keyBlock.Type)
}

func TestGenerateSelfSignedCert_VerifiesAgainstItself(t *testing.T) {
	cert, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(cert.Certificate)

	_, err = cert.Certificate.Verify(x509.VerifyOptions{
		Roots:   pool,
		DNSName: "localhost",
	})
	assert.NoError(t, err)
}

func TestGenerateMultipleCerts(t *testing.T) {
	a, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)
	b, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Certificate.SerialNumber, b.Certificate.SerialNumber)
	assert.NotEqual(t, a.KeyPEM, b.KeyPEM)
}

func TestGeneratedCertificate_TLSCertificate(t *testing.T) {
	cert, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	tlsCert, err := cert.TLSCertificate()
	require.NoError(t, err)
	assert.Len(t, tlsCert.Certificate, 1)
	assert.NotNil(t, tlsCert.PrivateKey)
}
