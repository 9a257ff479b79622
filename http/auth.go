package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

const bearerPrefix = "Bearer "

// VerifyToken returns a handler that requires requests to carry the given
// bearer token. An empty token disables the check.
func VerifyToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) ||
			subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(auth, bearerPrefix)), []byte(token)) != 1 {
			err := errors.New("invalid authorization token").
				WithType(ErrTypeUnauthorized).
				WithTag("path", r.URL.Path)

			logs.WithTag("remote_addr", r.RemoteAddr).Warn(err)
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
