package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequireModeratorToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	run := func(expected, presented string) int {
		h := RequireModeratorToken(expected, zerolog.Nop())(ok)
		r := httptest.NewRequest(http.MethodPost, "/reviews/x/moderation", nil)
		if presented != "" {
			r.Header.Set(HeaderModeratorToken, presented)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, run("s3cret", "s3cret"))
	assert.Equal(t, http.StatusUnauthorized, run("s3cret", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, run("s3cret", ""))
	assert.Equal(t, http.StatusUnauthorized, run("", ""))
}
