package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/queue"
)

// InternalOnly admits only requests carrying the marker header set by the
// queue worker, the scheduler or the mail relay, together with the shared
// secret. An empty secret rejects everything.
func InternalOnly(log *logger.Logger, marker, secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(marker) == "" {
				log.Warn("internal endpoint called without marker", "path", r.URL.Path, "marker", marker)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			if secret == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(queue.HeaderSecret)), []byte(secret)) != 1 {
				log.Warn("internal endpoint called with bad secret", "path", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
