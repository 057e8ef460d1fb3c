// Package auth resolves the calling worker from the trusted gateway header.
//
// Authentication happens upstream; the gateway forwards the authenticated
// worker's ID in X-Worker-ID. This middleware only parses it into the request
// context.
package auth

import (
	"net/http"

	"github.com/rs/zerolog"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

const HeaderWorkerID = "X-Worker-ID"

// RequireWorker rejects requests without a valid worker ID header.
func RequireWorker(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			workerID, err := id.ParseWorkerID(r.Header.Get(HeaderWorkerID))
			if err != nil {
				logger.Warn().
					Str("request_id", requestcontext.RequestID(ctx)).
					Msg("unauthorized access - missing or invalid worker id")
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "worker identity required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithWorkerID(ctx, workerID)))
		})
	}
}
