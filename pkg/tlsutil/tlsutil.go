// Package tlsutil builds the mutual-TLS HTTP client used to talk to Nomad
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	apperrors "github.com/muman613/nomad-helper/pkg/errors"
)

// Fixed file names expected inside the cert directory.
const (
	CAFileName   = "ca.pem"
	CertFileName = "client.crt"
	KeyFileName  = "client.key"
)

// Bundle holds the paths of the three PEM files making up the client identity.
type Bundle struct {
	CAFile   string
	CertFile string
	KeyFile  string
}

// BundleFromDir returns the bundle for dir. Files are not checked here;
// problems surface when the TLS config is built.
func BundleFromDir(dir string) Bundle {
	return Bundle{
		CAFile:   filepath.Join(dir, CAFileName),
		CertFile: filepath.Join(dir, CertFileName),
		KeyFile:  filepath.Join(dir, KeyFileName),
	}
}

// TLSConfig loads the bundle into a client TLS config. serverName overrides
// the name verified on the server certificate when non-empty.
func (b Bundle) TLSConfig(serverName string) (*tls.Config, error) {
	caData, err := os.ReadFile(b.CAFile)
	if err != nil {
		return nil, apperrors.NewCertificateError(b.CAFile, "cannot read CA bundle", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caData) {
		return nil, apperrors.NewCertificateError(b.CAFile, "no certificates found in CA bundle", nil)
	}

	if _, err := os.Stat(b.CertFile); err != nil {
		return nil, apperrors.NewCertificateError(b.CertFile, "cannot read client certificate", err)
	}
	if _, err := os.Stat(b.KeyFile); err != nil {
		return nil, apperrors.NewCertificateError(b.KeyFile, "cannot read client key", err)
	}
	pair, err := tls.LoadX509KeyPair(b.CertFile, b.KeyFile)
	if err != nil {
		return nil, apperrors.NewCertificateError(b.CertFile, "invalid client key pair", err)
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		RootCAs:      pool,
		Certificates: []tls.Certificate{pair},
		ServerName:   serverName,
	}, nil
}

// NewHTTPClient creates an HTTP client presenting the bundle's client
// certificate and trusting only its CA.
func NewHTTPClient(b Bundle, serverName string, timeout time.Duration) (*http.Client, error) {
	tlsConfig, err := b.TLSConfig(serverName)
	if err != nil {
		return nil, err
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = tlsConfig

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
