package certificates

import (
	"context"
	"errors"
	"sync"
)

// ErrNotConfigured indicates that no certificate source has been wired.
var ErrNotConfigured = errors.New("certificates service not configured")

// Service loads the certificates earned by a learner.
type Service interface {
	// Certificates returns the learner's certificates in display order. The
	// token is the caller's credential and may be empty for anonymous viewers.
	Certificates(ctx context.Context, token, username string) ([]Certificate, error)
}

// StaticService serves fixed certificates from memory. It backs local
// development and tests.
type StaticService struct {
	mu     sync.RWMutex
	byUser map[string][]Certificate
}

// NewStaticService constructs a StaticService seeded with the provided data.
// A nil map yields the built-in demo fixtures.
func NewStaticService(seed map[string][]Certificate) *StaticService {
	if seed == nil {
		seed = demoCertificates()
	}
	byUser := make(map[string][]Certificate, len(seed))
	for user, list := range seed {
		byUser[user] = Normalize(list)
	}
	return &StaticService{byUser: byUser}
}

// Certificates returns a copy of the seeded certificates. Unknown users have none.
func (s *StaticService) Certificates(ctx context.Context, _ string, username string) ([]Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.byUser[username]
	if !ok {
		return []Certificate{}, nil
	}
	return append([]Certificate(nil), list...), nil
}

// Put replaces the certificates stored for username.
func (s *StaticService) Put(username string, list []Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[username] = Normalize(list)
}

func demoCertificates() map[string][]Certificate {
	return map[string][]Certificate{
		"staff": {
			{
				Type:         CertificateType{Name: "Verified Certificate"},
				Title:        "Introduction to Seal Carving",
				Organization: "Hanko Field Academy",
				DownloadURL:  "/certificates/staff/seal-carving-101.pdf",
			},
			{
				Type:         CertificateType{Name: "Professional Certificate"},
				Title:        "Calligraphy for Designers",
				Organization: "Finite Field Institute",
				DownloadURL:  "/certificates/staff/calligraphy-201.pdf",
			},
		},
	}
}
