package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Verifier turns a raw token into a principal.
type Verifier interface {
	Parse(token string) (*Principal, error)
}

// Authenticate resolves the caller of r. It returns false for a missing or
// malformed Authorization header and for any token the verifier rejects. The
// reason is not reported.
func Authenticate(r *http.Request, v Verifier) (*Principal, bool) {
	tok, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, false
	}
	p, err := v.Parse(tok)
	if err != nil {
		return nil, false
	}
	return p, true
}

// Middleware rejects unauthenticated requests with 401 and injects the
// Principal into the request context for everything downstream.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := Authenticate(r, v)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized")
	}
	return p, nil
}
