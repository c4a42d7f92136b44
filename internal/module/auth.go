package module

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	authorization = "Authorization"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("authorization token not found")
)

// TokenService resolves an access token to the user it was issued for.
type TokenService interface {
	VerifyToken(ctx context.Context, token string) (userID string, err error)
}

type userKey struct{}

// WithUser stores the user id in the context.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the user id stored by the auth middleware.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok && userID != ""
}

// AuthTokenMiddleware verifies the bearer token of every request and injects
// the user into the request context.
func AuthTokenMiddleware(verifyToken TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, err := accessTokenFromHeader(r, authorization)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			userID, err := verifyToken.VerifyToken(r.Context(), accessToken)
			if err != nil {
				http.Error(w, "access token verification failed", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

func accessTokenFromHeader(r *http.Request, header string) (string, error) {
	authToken := r.Header.Get(header)
	if authToken == "" {
		// event streams cannot set headers from the browser
		authToken = r.URL.Query().Get("access_token")
		if authToken == "" {
			return "", ErrMissingToken
		}
		return authToken, nil
	}

	// remove prefix Bearer
	token, ok := strings.CutPrefix(authToken, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}

	return strings.TrimSpace(token), nil
}
