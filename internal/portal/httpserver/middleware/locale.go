package middleware

import (
	"context"
	"net/http"
	"strings"

	"finitefield.org/profile-portal/internal/portal/i18n"
)

const localeCookie = "hl"

type localeContextKey struct{}

// Locale resolves the viewer's language from the hl query parameter, the hl
// cookie or Accept-Language, in that order, and stores a Localizer on the
// request context. An explicit hl choice is remembered in the cookie.
func Locale(bundle *i18n.Bundle, siteName string) func(http.Handler) http.Handler {
	vars := map[string]string{"siteName": siteName}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var lang string
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("hl"))); q != "" && bundle.IsSupported(q) {
				lang = q
				http.SetCookie(w, &http.Cookie{Name: localeCookie, Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if c, err := r.Cookie(localeCookie); err == nil && bundle.IsSupported(c.Value) {
				lang = strings.ToLower(c.Value)
			} else {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}

			w.Header().Set("Content-Language", lang)
			ctx := context.WithValue(r.Context(), localeContextKey{}, bundle.Localizer(lang, vars))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocalizerFromContext returns the request Localizer, if Locale ran.
func LocalizerFromContext(ctx context.Context) (*i18n.Localizer, bool) {
	l, ok := ctx.Value(localeContextKey{}).(*i18n.Localizer)
	return l, ok && l != nil
}
