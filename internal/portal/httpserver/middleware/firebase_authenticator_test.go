package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubFirebaseVerifier struct {
	token *firebaseauth.Token
	err   error
}

func (s *stubFirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	return s.token, s.err
}

func TestFirebaseAuthenticatorSuccess(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]interface{}
		want   string
	}{
		{name: "username claim", claims: map[string]interface{}{"username": "staff", "email": "ops@example.com"}, want: "staff"},
		{name: "preferred username", claims: map[string]interface{}{"preferred_username": "learner"}, want: "learner"},
		{name: "email local part", claims: map[string]interface{}{"email": "ada@example.com"}, want: "ada"},
	}

	for _, tc := range tests {
		auth, err := NewFirebaseAuthenticator(&stubFirebaseVerifier{
			token: &firebaseauth.Token{UID: "user-123", Claims: tc.claims},
		})
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		req, _ := http.NewRequest(http.MethodGet, "/", nil)

		user, err := auth.Authenticate(req, "good-token")
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", tc.name, err)
		}
		if user.UID != "user-123" || user.Username != tc.want || user.Token != "good-token" {
			t.Fatalf("%s: unexpected user %#v", tc.name, user)
		}
	}
}

func TestFirebaseAuthenticatorRejectsTokenWithoutUsername(t *testing.T) {
	auth, _ := NewFirebaseAuthenticator(&stubFirebaseVerifier{
		token: &firebaseauth.Token{UID: "user-123", Claims: map[string]interface{}{}},
	})
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.Authenticate(req, "good-token")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != ReasonTokenInvalid {
		t.Fatalf("expected token_invalid, got %v", err)
	}
}

func TestFirebaseAuthenticatorHandlesExpiredToken(t *testing.T) {
	auth, _ := NewFirebaseAuthenticator(&stubFirebaseVerifier{err: ErrTokenExpired})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.Authenticate(req, "expired")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if authErr.Reason != ReasonTokenExpired {
		t.Fatalf("expected token_expired, got %s", authErr.Reason)
	}
}

func TestFirebaseAuthenticatorRejectsMissingToken(t *testing.T) {
	auth, _ := NewFirebaseAuthenticator(&stubFirebaseVerifier{})
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.Authenticate(req, "  ")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != ReasonMissingToken {
		t.Fatalf("expected missing_token, got %v", err)
	}
}

func TestNewFirebaseAuthenticatorRequiresVerifier(t *testing.T) {
	if _, err := NewFirebaseAuthenticator(nil); err == nil {
		t.Fatalf("expected error")
	}
}
