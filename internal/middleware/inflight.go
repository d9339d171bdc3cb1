package middleware

import (
	"net/http"

	"golang.org/x/sync/semaphore"
)

// Exclusive lets at most n requests through at once. Requests arriving while
// all slots are taken are refused with 409 instead of queueing.
func Exclusive(n int64) func(http.Handler) http.Handler {
	if n <= 0 {
		n = 1
	}
	sem := semaphore.NewWeighted(n)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sem.TryAcquire(1) {
				writeError(w, http.StatusConflict, "busy", "A video is already being generated. Please wait for it to finish.")
				return
			}
			defer sem.Release(1)
			next.ServeHTTP(w, r)
		})
	}
}
