package http

import "net/http"

// HealthHandler answers liveness checks with a plain "ok". It touches no
// dependencies so a slow database never fails the check.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
