package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *KeySigner {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	raw, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": "profile-portal@demo.iam.gserviceaccount.com",
		"private_key":  string(pemBytes),
	})
	require.NoError(t, err)

	signer, err := ParseKeySigner(raw)
	require.NoError(t, err)
	return signer
}

func TestDownloadURLIsSignedForBucketObject(t *testing.T) {
	t.Parallel()

	downloads, err := NewDownloads("certs-bucket", newTestSigner(t), WithExpiry(10*time.Minute))
	require.NoError(t, err)

	raw, err := downloads.DownloadURL(context.Background(), "/learners/staff/seal-carving.pdf")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(u.Path, "/certs-bucket/learners/staff/seal-carving.pdf"), u.Path)

	query := u.Query()
	require.Equal(t, "GOOG4-RSA-SHA256", query.Get("X-Goog-Algorithm"))
	require.NotEmpty(t, query.Get("X-Goog-Expires"))
	require.NotEmpty(t, query.Get("X-Goog-Signature"))
	require.True(t, strings.HasPrefix(query.Get("X-Goog-Credential"), "profile-portal@demo.iam.gserviceaccount.com/"))
}

func TestDownloadsValidatesInput(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)

	_, err := NewDownloads(" ", signer)
	require.ErrorIs(t, err, errInvalidBucket)

	_, err = NewDownloads("bucket", nil)
	require.ErrorIs(t, err, errNoSigner)

	_, err = NewDownloads("bucket", signer, WithExpiry(8*24*time.Hour))
	require.ErrorIs(t, err, errExpiryTooLong)

	downloads, err := NewDownloads("bucket", signer)
	require.NoError(t, err)
	_, err = downloads.DownloadURL(context.Background(), "  ")
	require.ErrorIs(t, err, errInvalidObject)
}

func TestParseKeySignerRejectsIncompleteKeys(t *testing.T) {
	t.Parallel()

	_, err := ParseKeySigner(nil)
	require.ErrorContains(t, err, "empty")

	_, err = ParseKeySigner([]byte(`{"type":"authorized_user"}`))
	require.ErrorContains(t, err, "parse key file")

	_, err = ParseKeySigner([]byte(`{"type":"service_account","private_key":"x"}`))
	require.ErrorContains(t, err, "client_email")

	_, err = ParseKeySigner([]byte(`{"type":"service_account","client_email":"a@b","private_key":"not-pem"}`))
	require.ErrorContains(t, err, "not PEM")

	var unset *KeySigner
	_, err = unset.SignBytes(context.Background(), []byte("payload"))
	require.ErrorIs(t, err, errSignerUnset)
}
