package certificates_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/profile-portal/internal/portal/certificates"
)

func TestHTTPServiceCertificates(t *testing.T) {
	t.Parallel()

	var receivedAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/certificates/v0/certificates/staff/", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		receivedAuth = r.Header.Get("Authorization")

		payload := []map[string]any{
			{
				"username":            "staff",
				"certificate_type":    "honor",
				"course_display_name": "Older Course",
				"course_organization": "FFX",
				"download_url":        "/certificates/older",
				"created_date":        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			{
				"username":            "staff",
				"certificate_type":    "verified",
				"course_display_name": "Newer Course",
				"course_organization": "HFA",
				"download_url":        "https://cdn.example.com/newer.pdf",
				"created_date":        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(ts.Close)

	svc, err := certificates.NewHTTPService(ts.URL, ts.Client())
	require.NoError(t, err)

	list, err := svc.Certificates(context.Background(), "test-token", "staff")
	require.NoError(t, err)
	require.Equal(t, "Bearer test-token", receivedAuth)
	require.Len(t, list, 2)

	require.Equal(t, "Newer Course", list[0].Title)
	require.Equal(t, "Verified Certificate", list[0].Type.Name)
	require.Equal(t, "https://cdn.example.com/newer.pdf", list[0].DownloadURL)

	require.Equal(t, "Older Course", list[1].Title)
	require.Equal(t, "FFX", list[1].Organization)
	require.Equal(t, ts.URL+"/certificates/older", list[1].DownloadURL)
}

func TestHTTPServiceTreatsNotFoundAsEmpty(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		http.NotFound(w, r)
	}))
	t.Cleanup(ts.Close)

	svc, err := certificates.NewHTTPService(ts.URL, ts.Client())
	require.NoError(t, err)

	list, err := svc.Certificates(context.Background(), "", "ghost")
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestHTTPServiceSurfacesBackendErrors(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	svc, err := certificates.NewHTTPService(ts.URL, ts.Client())
	require.NoError(t, err)

	_, err = svc.Certificates(context.Background(), "token", "staff")
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "upstream exploded")
}

func TestNewHTTPServiceRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := certificates.NewHTTPService("  ", nil)
	require.Error(t, err)
}
