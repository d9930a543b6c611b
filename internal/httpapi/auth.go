package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Context key for client data
type contextKey string

const clientContextKey contextKey = "client"

// JWTClaims represents the claims in a client token. The subject identifies
// the client device or user.
type JWTClaims struct {
	jwt.RegisteredClaims
}

// withAuth is middleware that requires a valid HS256 token when a JWT secret
// is configured. Browsers cannot set headers on websocket upgrades, so the
// token is also accepted from the access_token query parameter.
func (r *Router) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if r.cfg.JWTSecret == "" {
			next.ServeHTTP(w, req)
			return
		}

		tokenString := req.URL.Query().Get("access_token")
		if authHeader := req.Header.Get("Authorization"); authHeader != "" {
			// Expect "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				http.Error(w, `{"error": "invalid authorization format"}`, http.StatusUnauthorized)
				return
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			http.Error(w, `{"error": "missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(r.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			http.Error(w, `{"error": "invalid token claims"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(req.Context(), clientContextKey, claims.Subject)
		next.ServeHTTP(w, req.WithContext(ctx))
	}
}

// getClientID returns the authenticated token subject, or "" when auth is off.
func getClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientContextKey).(string)
	return id
}
