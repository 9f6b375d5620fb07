package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/profile-portal/internal/portal/observability"
	"finitefield.org/profile-portal/internal/portal/profile"
)

type authContextKey string

const userContextKey authContextKey = "auth.user"

// User is a signed-in learner.
type User struct {
	UID      string
	Username string
	Email    string
	Token    string
}

// Viewer converts the user into the profile viewer identity.
func (u *User) Viewer() profile.Viewer {
	if u == nil {
		return profile.Viewer{}
	}
	return profile.Viewer{Username: u.Username, Token: u.Token}
}

// Authenticator resolves a bearer token into a User.
type Authenticator interface {
	Authenticate(r *http.Request, token string) (*User, error)
}

// ErrUnauthorized is returned when authentication fails.
var ErrUnauthorized = errors.New("unauthorized")

// AuthError contains reason codes for failed authentication attempts.
type AuthError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError constructs an AuthError with the provided reason.
func NewAuthError(reason string, err error) error {
	return &AuthError{Reason: reason, Err: err}
}

const (
	// ReasonMissingToken indicates an auth attempt without credentials.
	ReasonMissingToken = "missing_token"
	// ReasonTokenInvalid indicates a malformed or invalid token.
	ReasonTokenInvalid = "token_invalid"
	// ReasonTokenExpired indicates an expired token which may be recoverable.
	ReasonTokenExpired = "token_expired"
)

// DevAuthenticator treats the bearer token as the username. It is meant for
// local development only.
func DevAuthenticator() Authenticator {
	return devAuthenticator{}
}

// OptionalAuth attaches the user when the request carries a valid token.
// Profiles are public, so failures continue anonymously; the reason is kept
// for RequireUser.
func OptionalAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	if authenticator == nil {
		authenticator = DevAuthenticator()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := requestToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authenticator.Authenticate(r, token)
			if err != nil || user == nil {
				reason := ReasonTokenInvalid
				var authErr *AuthError
				if errors.As(err, &authErr) && authErr.Reason != "" {
					reason = authErr.Reason
				}
				observability.FromContext(r.Context()).Info("auth failure", zap.String("reason", reason), zap.Error(err))
				ctx := context.WithValue(r.Context(), authFailureKey, reason)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

const authFailureKey authContextKey = "auth.failure"

// RequireUser rejects anonymous requests. htmx requests get 401 with an
// HX-Redirect (or HX-Refresh for expired tokens); others are redirected.
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = "/login"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			reason, _ := r.Context().Value(authFailureKey).(string)
			if reason == "" {
				reason = ReasonMissingToken
			}
			handleUnauthorized(w, r, loginPath, reason)
		})
	}
}

// ContextWithUser stores user on ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user if present.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok && user != nil
}

func requestToken(r *http.Request) string {
	if token := parseBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return cookieToken(r)
}

func parseBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func cookieToken(r *http.Request) string {
	for _, name := range []string{"__session", "idToken"} {
		c, err := r.Cookie(name)
		if err != nil {
			continue
		}
		if val := strings.TrimSpace(c.Value); val != "" {
			return val
		}
	}
	return ""
}

func handleUnauthorized(w http.ResponseWriter, r *http.Request, loginPath, reason string) {
	if IsHTMXRequest(r.Context()) {
		if reason == ReasonTokenExpired {
			w.Header().Set("HX-Refresh", "true")
		} else {
			w.Header().Set("HX-Redirect", loginPath)
		}
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusFound)
}

type devAuthenticator struct{}

func (devAuthenticator) Authenticate(_ *http.Request, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewAuthError(ReasonMissingToken, ErrUnauthorized)
	}
	return &User{UID: token, Username: token, Token: token}, nil
}
