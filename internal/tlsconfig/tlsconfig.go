// Package tlsconfig builds a *tls.Config from a PKCS#12 keystore, the
// same keystore format SSLTCPServer.createSSLFactory loads via Java's
// KeyStore/KeyManagerFactory. Go has no built-in PKCS#12 decoder, so the
// keystore is decoded with golang.org/x/crypto/pkcs12, grounded on its
// presence in wisefido-data's dependency closure.
package tlsconfig

import (
	"crypto/tls"
	"os"

	"golang.org/x/crypto/pkcs12"

	"bioguard/internal/errs"
)

// Load decodes the PKCS#12 keystore at keystorePath (protected by
// password) and returns a server-side *tls.Config presenting its leaf
// certificate and private key.
func Load(keystorePath, password string) (*tls.Config, error) {
	data, err := os.ReadFile(keystorePath)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "no se pudo leer el keystore TLS", err)
	}

	privateKey, certificate, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "no se pudo decodificar el keystore TLS", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{certificate.Raw},
		PrivateKey:  privateKey,
		Leaf:        certificate,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
