package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware returns a middleware that recovers from panics, logs
// them with the stack and answers 500.
func RecoveryMiddleware(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Recovered from panic", map[string]interface{}{
					"error":  fmt.Sprintf("%v", rec),
					"stack":  string(debug.Stack()),
					"method": r.Method,
					"path":   r.URL.Path,
					"query":  r.URL.RawQuery,
				})

				writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
					"error": http.StatusText(http.StatusInternalServerError),
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
