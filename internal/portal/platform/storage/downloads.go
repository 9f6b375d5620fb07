package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const (
	defaultDownloadExpiry = 15 * time.Minute
	maxDownloadExpiry     = 7 * 24 * time.Hour
)

var (
	errNoSigner      = errors.New("storage: signer is required")
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
	errExpiryTooLong = errors.New("storage: expiry exceeds permitted maximum")
)

// Downloads issues time-limited GET URLs for objects in a single bucket.
type Downloads struct {
	bucket string
	signer Signer
	expiry time.Duration
}

// DownloadsOption customises Downloads.
type DownloadsOption func(*Downloads)

// WithExpiry overrides how long issued URLs stay valid.
func WithExpiry(expiry time.Duration) DownloadsOption {
	return func(d *Downloads) {
		if expiry > 0 {
			d.expiry = expiry
		}
	}
}

// NewDownloads constructs a signed download URL issuer for bucket.
func NewDownloads(bucket string, signer Signer, opts ...DownloadsOption) (*Downloads, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	d := &Downloads{
		bucket: bucket,
		signer: signer,
		expiry: defaultDownloadExpiry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.expiry > maxDownloadExpiry {
		return nil, errExpiryTooLong
	}
	return d, nil
}

// DownloadURL returns a V4 signed GET URL for object.
func (d *Downloads) DownloadURL(ctx context.Context, object string) (string, error) {
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errInvalidObject
	}
	return storage.SignedURL(d.bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: d.signer.Email(),
		SignBytes: func(payload []byte) ([]byte, error) {
			return d.signer.SignBytes(ctx, payload)
		},
		Method:  http.MethodGet,
		Expires: time.Now().Add(d.expiry),
		Scheme:  storage.SigningSchemeV4,
	})
}
