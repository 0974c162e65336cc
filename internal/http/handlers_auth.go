package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/log"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := s.identity.SignUp(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	s.setSessionCookie(w, session.AccessToken)
	s.logger.InfoContext(r.Context(), "User signed up", log.FieldUserID, session.User.ID)
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := s.identity.SignIn(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	s.setSessionCookie(w, session.AccessToken)
	s.logger.InfoContext(r.Context(), "User signed in", log.FieldUserID, session.User.ID)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	token, ok := identity.TokenFrom(r.Context())
	if !ok {
		writeError(w, core.ErrAuthenticationRequired)
		return
	}

	// The cached admin verdict dies with the session.
	if user, err := s.identity.UserFromToken(r.Context(), token); err == nil {
		s.gate.Reset(user.ID)
	}

	if err := s.identity.SignOut(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	token, ok := identity.TokenFrom(r.Context())
	if !ok {
		writeError(w, core.ErrAuthenticationRequired)
		return
	}
	user, err := s.identity.UserFromToken(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		User    userResponse `json:"user"`
		IsAdmin bool         `json:"is_admin"`
	}{
		User:    userResponse{ID: user.ID, Email: user.Email},
		IsAdmin: s.gate.IsAdmin(r.Context(), user.ID),
	})
}

// handleAuthorize returns the federation redirect URL for a provider.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	provider := sanitizeInput(r.URL.Query().Get("provider"))
	redirectTo := sanitizeInput(r.URL.Query().Get("redirect_to"))
	if provider == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing provider"})
		return
	}

	url, err := s.identity.AuthorizeURL(provider, redirectTo)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		URL string `json:"url"`
	}{URL: url})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(7 * 24 * time.Hour),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func toSessionResponse(session identity.Session) sessionResponse {
	return sessionResponse{
		AccessToken: session.AccessToken,
		User:        userResponse{ID: session.User.ID, Email: session.User.Email},
	}
}
