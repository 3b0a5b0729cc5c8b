package auth

import (
	"context"
	"net/http"
	"strings"

	"ephemeral-chat/contract"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// UserIDFromContext returns the user id injected by Middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// Middleware validates the "Authorization: Bearer <token>" header
// and injects the user identity into the request context.
// onFailure writes the rejection, keeping the response format in the caller's hands.
func Middleware(verifier contract.TokenVerifier, onFailure func(w http.ResponseWriter, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				tokenStr = ""
			}
			userID, err := verifier.Verify(strings.TrimSpace(tokenStr))
			if err != nil {
				onFailure(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
