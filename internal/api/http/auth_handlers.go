package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-testprep/internal/auth"
	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/rbac"
)

// POST /auth/register  { "username": "...", "password": "..." }
func RegisterHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c auth.Credentials
		if err := decodeJSON(r, &c); err != nil {
			writeErr(w, err)
			return
		}
		sess, err := svc.Register(r.Context(), c)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c auth.Credentials
		if err := decodeJSON(r, &c); err != nil {
			writeErr(w, err)
			return
		}
		sess, err := svc.Login(r.Context(), c)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// GET /auth/verify  (Authorization: Bearer ...)
func VerifyHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, err := authmw.BearerToken(r)
		if err != nil {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		u, err := svc.Verify(r.Context(), tok)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"valid":       true,
			"user":        u,
			"permissions": rbac.Permissions(u.Role),
		})
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /account/password
func ChangePasswordHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		var req changePasswordReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if err := svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /admin/users
func ListUsersHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.Users(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}
