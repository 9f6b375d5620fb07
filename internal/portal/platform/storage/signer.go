package storage

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

// Signer signs certificate download URLs on behalf of a service account.
type Signer interface {
	Email() string
	SignBytes(ctx context.Context, payload []byte) ([]byte, error)
}

var errSignerUnset = errors.New("storage: signer has no key")

// KeySigner signs with the RSA key of a downloaded service account key file.
type KeySigner struct {
	email string
	key   *rsa.PrivateKey
}

// LoadKeySigner reads a service account key file from path.
func LoadKeySigner(path string) (*KeySigner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read key file: %w", err)
	}
	return ParseKeySigner(raw)
}

// ParseKeySigner builds a KeySigner from service account key JSON.
func ParseKeySigner(raw []byte) (*KeySigner, error) {
	if len(raw) == 0 {
		return nil, errors.New("storage: key file is empty")
	}
	jwt, err := google.JWTConfigFromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("storage: parse key file: %w", err)
	}
	if jwt.Email == "" {
		return nil, errors.New("storage: key file has no client_email")
	}
	key, err := decodeRSAKey(jwt.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &KeySigner{email: jwt.Email, key: key}, nil
}

// Email is used as the GoogleAccessID of signed URLs.
func (s *KeySigner) Email() string {
	if s == nil {
		return ""
	}
	return s.email
}

// SignBytes returns an RSA-SHA256 signature of payload.
func (s *KeySigner) SignBytes(ctx context.Context, payload []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, errSignerUnset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errors.New("storage: nothing to sign")
	}
	sum := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, sum[:])
	if err != nil {
		return nil, fmt.Errorf("storage: sign: %w", err)
	}
	return sig, nil
}

// decodeRSAKey accepts PKCS#8 (what Google issues) and PKCS#1 PEM blocks.
func decodeRSAKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("storage: key file private_key is not PEM")
	}
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("storage: key file private_key is not RSA")
		}
		return key, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("storage: decode private_key: %w", err)
	}
	return key, nil
}
