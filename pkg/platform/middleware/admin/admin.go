// Package admin guards moderation endpoints with a shared moderator token.
//
// Moderator identity and authorization are owned by the upstream gateway; this
// check only keeps the moderation surface closed to direct worker traffic.
package admin

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog"

	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

const HeaderModeratorToken = "X-Moderator-Token"

// RequireModeratorToken rejects requests whose token does not match. An empty
// expected token rejects every request.
func RequireModeratorToken(expectedToken string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderModeratorToken)
			// Constant-time comparison; an empty configured token never matches.
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.Warn().
					Str("request_id", requestcontext.RequestID(ctx)).
					Str("path", r.URL.Path).
					Msg("moderator token mismatch")
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "moderator token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
