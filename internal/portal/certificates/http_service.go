package certificates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"
)

// HTTPClient matches the subset of http.Client used by HTTPService.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPService implements Service backed by the learning platform's
// certificates REST endpoint.
type HTTPService struct {
	base   *url.URL
	client HTTPClient
}

// NewHTTPService constructs a Service that talks to the certificates API.
func NewHTTPService(baseURL string, client HTTPClient) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("certificates: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("certificates: parse base URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService{
		base:   parsed,
		client: client,
	}, nil
}

type apiCertificate struct {
	Username          string    `json:"username"`
	CourseID          string    `json:"course_id"`
	CertificateType   string    `json:"certificate_type"`
	CourseDisplayName string    `json:"course_display_name"`
	CourseOrg         string    `json:"course_organization"`
	DownloadURL       string    `json:"download_url"`
	CreatedDate       time.Time `json:"created_date"`
}

// Certificates fetches and normalises the learner's certificates, newest first.
func (s *HTTPService) Certificates(ctx context.Context, token, username string) ([]Certificate, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("certificates: username is required")
	}

	endpoint := "/api/certificates/v0/certificates/" + url.PathEscape(username) + "/"
	req, err := s.newRequest(ctx, http.MethodGet, endpoint, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("certificates: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []Certificate{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.errorFromResponse(resp)
	}

	var payload []apiCertificate
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("certificates: decode response: %w", err)
	}

	sort.SliceStable(payload, func(i, j int) bool {
		return payload[i].CreatedDate.After(payload[j].CreatedDate)
	})

	list := make([]Certificate, 0, len(payload))
	for _, item := range payload {
		list = append(list, Certificate{
			Type:         CertificateType{Name: TypeName(item.CertificateType)},
			Title:        item.CourseDisplayName,
			Organization: item.CourseOrg,
			DownloadURL:  s.resolveURL(item.DownloadURL),
		})
	}
	return Normalize(list), nil
}

// TypeName maps a certificate mode to its display name.
func TypeName(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "verified":
		return "Verified Certificate"
	case "professional", "no-id-professional":
		return "Professional Certificate"
	case "honor":
		return "Honor Code Certificate"
	case "audit":
		return "Audit Certificate"
	case "":
		return ""
	default:
		return "Certificate"
	}
}

func (s *HTTPService) resolveURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return s.base.ResolveReference(ref).String()
}

func (s *HTTPService) newRequest(ctx context.Context, method, endpoint, token string) (*http.Request, error) {
	u := *s.base
	u.Path = path.Join(s.base.Path, endpoint)
	if strings.HasSuffix(endpoint, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("certificates: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (s *HTTPService) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("certificates: backend returned %d: %s", resp.StatusCode, msg)
}
