package http

import (
	"net/http"
	"strings"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
)

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(user *core.SessionUser) userResponse {
	return userResponse{ID: user.ID, Name: user.Name, Email: user.Email}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.sessions.Login(r.Context(), store.Credentials{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "login failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldError, err.Error())
		writeStoreError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "user signed in",
		applog.FieldOperation, applog.OpLogin,
		applog.FieldUserID, user.ID)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.sessions.Register(r.Context(), store.Registration{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "registration failed",
			applog.FieldOperation, applog.OpRegister,
			applog.FieldError, err.Error())
		writeStoreError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "user registered",
		applog.FieldOperation, applog.OpRegister,
		applog.FieldUserID, user.ID)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(r.Context())
	// Cached record lists belong to the departing session.
	s.listCache.Purge()

	applog.FromContext(r.Context()).InfoContext(r.Context(), "user signed out",
		applog.FieldOperation, applog.OpLogout)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := s.sessions.Current(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
