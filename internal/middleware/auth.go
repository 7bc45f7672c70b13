package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aula-lms/internal/observability"
)

type contextKey string

const UserIDKey contextKey = "user_id"

var (
	errMissingToken = errors.New("missing bearer token")
	errExpiredToken = errors.New("token expired")
)

// Auth admits requests carrying a backend-issued JWT, either as a bearer
// header or, for browser websockets, a token query parameter. With a
// secret the signature is checked; without one only expiry is, which is
// for local development against a backend whose key is unknown.
func Auth(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verify(parser, secret, tokenFrom(r), time.Now())
			if err != nil {
				observability.FromContext(r.Context()).Debug("rejected request", "error", err)
				WriteError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			userID, _ := claims.GetSubject()
			ctx := WithUserID(r.Context(), userID)
			ctx = observability.WithUserID(ctx, userID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func verify(parser *jwt.Parser, secret []byte, token string, now time.Time) (jwt.MapClaims, error) {
	if token == "" {
		return nil, errMissingToken
	}

	claims := jwt.MapClaims{}
	if len(secret) > 0 {
		_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		return claims, err
	}

	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	if exp != nil && !now.Before(exp.Time) {
		return nil, errExpiredToken
	}
	return claims, nil
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WriteError answers with the backend's error envelope, so clients decode
// proxy and backend failures alike.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"message":    message,
		"error":      http.StatusText(status),
	})
}
