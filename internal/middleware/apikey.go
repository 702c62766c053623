// AngelaMos | 2026
// apikey.go

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/Favourez/loope/internal/core"
)

const (
	APIKeyHeader     = "X-API-Key"
	APIKeyQueryParam = "api_key"
)

// APIKey rejects requests that do not carry the shared REST secret. The
// header wins over the query parameter. There is one key for every
// caller and no rotation.
func APIKey(key string) func(http.Handler) http.Handler {
	expected := []byte(key)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				provided = r.URL.Query().Get(APIKeyQueryParam)
			}

			if provided == "" ||
				subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				core.JSONError(w, core.NewAppError(
					core.ErrUnauthorized,
					"invalid or missing API key",
					http.StatusUnauthorized,
					"INVALID_API_KEY",
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
