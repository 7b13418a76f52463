// Package api implements the DevFlow REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth modes.
const (
	AuthDisabled = "disabled"
	AuthToken    = "token"
	AuthJWT      = "jwt"
)

// AuthConfig selects how requests are authenticated.
type AuthConfig struct {
	Mode      string
	Token     string
	JWTSecret string
	// UserID is the identity of requests in disabled and token mode.
	UserID string
}

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user ID stored by AuthMiddleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// AuthMiddleware returns middleware that resolves the request's user.
// In disabled mode every request is cfg.UserID. In token mode the request
// must carry "Authorization: Bearer <token>". In jwt mode the bearer must be
// an HS256 JWT signed with cfg.JWTSecret whose subject becomes the user ID.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := cfg.UserID
			switch cfg.Mode {
			case AuthToken:
				if bearer(r) != cfg.Token {
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
			case AuthJWT:
				sub, err := jwtSubject(bearer(r), cfg.JWTSecret)
				if err != nil {
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
				userID = sub
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func jwtSubject(raw, secret string) (string, error) {
	if raw == "" {
		return "", jwt.ErrTokenMalformed
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}
