package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie holds the operator session token.
const AuthCookie = "authenticated"

// operatorPrefixes need a logged-in operator. The kiosk page, its
// websocket and /api/status stay open so the display never asks for a password.
var operatorPrefixes = []string{"/admin", "/logs/", "/api/stats"}

// AuthToken derives the cookie value from the operator password.
func AuthToken(password string) string {
	sum := sha256.Sum256([]byte("lyricmirror:" + password))
	return hex.EncodeToString(sum[:])
}

// AuthMiddleware checks the auth cookie on operator routes.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	token := AuthToken(password)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isOperatorPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(token)) != 1 {
			// API calls get 401, pages are sent to the login form
			if r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" ||
				strings.HasPrefix(r.URL.Path, "/api/") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isOperatorPath(path string) bool {
	for _, prefix := range operatorPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
