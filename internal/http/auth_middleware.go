package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type authContextKey string

const contextKeyOwner authContextKey = "ledger-owner"

// ownerInfo is the resolved caller identity handlers operate on. Handlers
// never see the raw token and never accept an owner id from request input.
type ownerInfo struct {
	UserID   string
	Username string
}

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth resolves the bearer token once and stores the owner identity
// in the request context before invoking the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth validates the Authorization header and enriches the context.
// Every failure mode produces the same 401 body.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, ownerInfo, bool) {
	raw, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return req.Context(), ownerInfo{}, false
	}
	user, err := r.auth.ResolveToken(req.Context(), raw)
	if err != nil {
		r.logger.Warn("token resolution failed", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return req.Context(), ownerInfo{}, false
	}
	info := ownerInfo{UserID: user.ID, Username: user.Username}
	ctx := context.WithValue(req.Context(), contextKeyOwner, info)
	return ctx, info, true
}

// ownerFromContext extracts the resolved caller identity.
func ownerFromContext(ctx context.Context) (ownerInfo, bool) {
	value := ctx.Value(contextKeyOwner)
	if value == nil {
		return ownerInfo{}, false
	}
	info, ok := value.(ownerInfo)
	return info, ok
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", errors.New("empty bearer token")
	}
	return tok, nil
}
