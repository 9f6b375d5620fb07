package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "finitefield.org/profile-portal/internal/portal/platform/firestore"
)

const defaultCollection = "certificates"

// DownloadSigner issues download URLs for stored certificate objects.
type DownloadSigner interface {
	DownloadURL(ctx context.Context, object string) (string, error)
}

type certificateDocument struct {
	Username        string    `firestore:"username"`
	CertificateType string    `firestore:"certificateType"`
	CourseTitle     string    `firestore:"courseTitle"`
	Organization    string    `firestore:"organization"`
	DownloadURL     string    `firestore:"downloadUrl,omitempty"`
	ObjectPath      string    `firestore:"objectPath,omitempty"`
	CreatedAt       time.Time `firestore:"createdAt"`
}

// FirestoreService implements Service over a Firestore collection of issued
// certificates.
type FirestoreService struct {
	repo   *pfirestore.Repository[certificateDocument]
	signer DownloadSigner
}

// NewFirestoreService binds the service to collection (defaults to
// "certificates"). signer may be nil when every document carries a download URL.
func NewFirestoreService(provider *pfirestore.Provider, collection string, signer DownloadSigner) (*FirestoreService, error) {
	if provider == nil {
		return nil, errors.New("certificates: firestore provider is required")
	}
	if strings.TrimSpace(collection) == "" {
		collection = defaultCollection
	}
	return &FirestoreService{
		repo:   pfirestore.NewRepository[certificateDocument](provider, collection),
		signer: signer,
	}, nil
}

// Certificates queries the learner's certificates, newest first.
func (s *FirestoreService) Certificates(ctx context.Context, _ string, username string) ([]Certificate, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("certificates: username is required")
	}

	docs, err := s.repo.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("username", "==", username).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, fmt.Errorf("certificates: query: %w", err)
	}

	list := make([]Certificate, 0, len(docs))
	for _, doc := range docs {
		url, err := s.downloadURL(ctx, doc.Data)
		if err != nil {
			return nil, fmt.Errorf("certificates: sign %s: %w", doc.ID, err)
		}
		list = append(list, Certificate{
			Type:         CertificateType{Name: TypeName(doc.Data.CertificateType)},
			Title:        doc.Data.CourseTitle,
			Organization: doc.Data.Organization,
			DownloadURL:  url,
		})
	}
	return Normalize(list), nil
}

func (s *FirestoreService) downloadURL(ctx context.Context, doc certificateDocument) (string, error) {
	if url := strings.TrimSpace(doc.DownloadURL); url != "" {
		return url, nil
	}
	if strings.TrimSpace(doc.ObjectPath) == "" || s.signer == nil {
		return "", nil
	}
	return s.signer.DownloadURL(ctx, doc.ObjectPath)
}
