package testutil

import (
	"net/http"

	adminmw "vouch/pkg/platform/middleware/admin"
	authmw "vouch/pkg/platform/middleware/auth"
)

// WithWorkerHeader sets the caller header the upstream gateway would add.
func WithWorkerHeader(req *http.Request, workerID string) *http.Request {
	req.Header.Set(authmw.HeaderWorkerID, workerID)
	return req
}

// WithModeratorToken sets the shared moderation token header.
func WithModeratorToken(req *http.Request, token string) *http.Request {
	req.Header.Set(adminmw.HeaderModeratorToken, token)
	return req
}
