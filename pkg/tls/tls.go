// Package tls builds mutual-TLS configurations for the service's HTTP
// surface and for the connection to the legacy calculator sidecar.
//
// All configurations enforce TLS 1.3 with AEAD cipher suites and verify
// the peer certificate against a configured CA.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// Config holds TLS certificate file paths for client or server
// configuration. The zero value disables TLS.
type Config struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// Validate checks the configuration: when TLS is enabled every file must
// be specified and exist.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.CertFile == "" || c.KeyFile == "" || c.CAFile == "" {
		return errors.New("tls enabled but cert/key/ca files not specified")
	}

	for _, path := range []string{c.CertFile, c.KeyFile, c.CAFile} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("tls file %q: %w", path, err)
		}
	}
	return nil
}

var cipherSuites = []uint16{
	tls.TLS_AES_128_GCM_SHA256,
	tls.TLS_AES_256_GCM_SHA384,
	tls.TLS_CHACHA20_POLY1305_SHA256,
}

// NewServerTLSConfig creates a server configuration that requires and
// verifies client certificates against the CA in caFile.
func NewServerTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	pool, err := caPool(certFile, keyFile, caFile)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
		CipherSuites: cipherSuites,
	}, nil
}

// NewClientTLSConfig creates a client configuration that presents the
// certificate in certFile/keyFile and verifies the server against caFile.
func NewClientTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	pool, err := caPool(certFile, keyFile, caFile)
	if err != nil {
		return nil, err
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS13,
		CipherSuites: cipherSuites,
	}, nil
}

func caPool(certFile, keyFile, caFile string) (*x509.CertPool, error) {
	for name, path := range map[string]string{"certificate": certFile, "key": keyFile, "CA certificate": caFile} {
		if path == "" {
			return nil, fmt.Errorf("%s file path cannot be empty", name)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s file %q: %w", name, path, err)
		}
	}

	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA certificate")
	}
	return pool, nil
}
