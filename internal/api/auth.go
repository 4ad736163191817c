package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github-repo-tracker/internal/model"
)

type contextKey string

const userContextKey contextKey = "user"

// Claims carried by a session token. GithubToken is the access token of
// the user's linked GitHub identity, empty when none is linked.
type Claims struct {
	GithubToken string `json:"github_token,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies bearer session tokens and resolves the
// authenticated identity. Token issuance belongs to the identity
// provider; IssueToken exists for tests and local tooling.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken signs a session token for the given identity.
func (a *Authenticator) IssueToken(user model.User, expiry time.Time) (string, error) {
	claims := &Claims{
		GithubToken: user.AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireAuth rejects requests without a valid bearer token and stashes
// the resolved identity in the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided")
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return a.secret, nil
		})
		if err != nil || !parsed.Valid {
			respondWithError(w, http.StatusUnauthorized, "Invalid authentication token")
			return
		}

		user := model.User{Username: claims.Subject, AccessToken: claims.GithubToken}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the identity stashed by RequireAuth.
func userFrom(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userContextKey).(model.User)
	return u, ok
}
