// Package middleware provides HTTP middlewares for sessions, logging and rate limiting.
package middleware

import (
	"net/http"
)

// SessionResolver yields the logged-in user.
type SessionResolver interface {
	CurrentUserID() (int64, bool)
}

// RequireSession rejects requests with 401 while nobody is logged in.
//
// The launcher has a single local session shared by the CLI and the daemon, so
// the user is taken from the session record rather than from the request, and
// the services behind the handlers resolve it the same way.
func RequireSession(users SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := users.CurrentUserID(); !ok {
				http.Error(w, "not logged in", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
