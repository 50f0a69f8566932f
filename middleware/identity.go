package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserIDHeader    = "X-User-Id"
	ActorContextKey = contextKey("actor")
)

// Identity resolves the caller's user id and stores it in the request
// context. Identity is established upstream: with an empty secret the id is
// taken from the X-User-Id header, otherwise from the subject of an HS256
// bearer token signed with secret. Requests without a usable identity get 401.
func Identity(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var actor string
			if len(secret) == 0 {
				actor = strings.TrimSpace(r.Header.Get(UserIDHeader))
				if actor == "" {
					unauthorized(w, r, "User ID required in X-User-Id header")
					return
				}
			} else {
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					unauthorized(w, r, "Authorization header is required")
					return
				}
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
					unauthorized(w, r, "Authorization header format must be Bearer {token}")
					return
				}
				subject, err := ParseToken(secret, parts[1])
				if err != nil {
					Log(r).WithError(err).Debug("Rejected bearer token")
					unauthorized(w, r, "Invalid token")
					return
				}
				actor = subject
			}

			ctx := context.WithValue(r.Context(), ActorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor returns the caller identity stored by Identity.
func Actor(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(ActorContextKey).(string)
	return actor, ok && actor != ""
}

// ParseToken validates an HS256 token and returns its subject.
func ParseToken(secret []byte, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"error": msg})
}
