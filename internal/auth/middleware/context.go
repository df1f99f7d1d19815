package auth

import (
	"context"
	"net/http"
)

type ctxKey struct{}

var ctxKeySub = ctxKey{}

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeySub).(string); ok {
		return s
	}
	return ""
}

// Subject returns the authenticated user id, writing a 401 when there is none.
func Subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	sub := SubjectFromContext(r.Context())
	if sub == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return sub, true
}
