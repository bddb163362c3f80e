package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"authkit"
	"authkit/jobs"
)

type credentialsRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentSecret string `json:"currentSecret"`
	NewSecret     string `json:"newSecret"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	latency, err := s.engine.Ping(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"latency": latency.String(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := s.engine.Register(r.Context(), authkit.RegisterInput{
		Identifier: req.Identifier,
		Secret:     req.Secret,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := s.engine.Login(r.Context(), req.Identifier, req.Secret)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	tokens, err := s.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	// Best-effort by contract, so logout always succeeds.
	s.engine.Logout(r.Context(), req.RefreshToken)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	user := s.engine.VerifyAccess(r.Context(), bearerToken(r))
	if user == nil {
		s.writeError(w, authkit.ErrInvalidCredentials)
		return
	}
	if err := s.engine.LogoutAll(r.Context(), user.ID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user := s.engine.VerifyAccess(r.Context(), bearerToken(r))
	if user == nil {
		s.writeError(w, authkit.ErrInvalidCredentials)
		return
	}

	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.engine.ChangePassword(r.Context(), user.ID, req.CurrentSecret, req.NewSecret); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := s.engine.VerifyAccess(r.Context(), bearerToken(r))
	if user == nil {
		s.writeError(w, authkit.ErrInvalidCredentials)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type enqueueRequest struct {
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload"`
	DelayMS  int64           `json:"delayMs"`
	Priority int             `json:"priority"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := s.dispatcher.Enqueue(r.Context(), r.PathValue("queue"), req.Name, req.Payload, jobs.Options{
		Delay:    millis(req.DelayMS),
		Priority: req.Priority,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": id})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.dispatcher.Status(r.Context(), r.PathValue("queue"), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dispatcher.Stats(r.Context(), r.PathValue("queue"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown queue"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeError maps engine and dispatcher errors to HTTP statuses.
// Anything unmapped is a 500 with the detail kept out of the response
// body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authkit.ErrInvalidCredentials), errors.Is(err, authkit.ErrRefreshInvalid):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, authkit.ErrSecretTooShort):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "secret too short"})
	case errors.Is(err, authkit.ErrAccountExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "account already exists"})
	case errors.Is(err, authkit.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
	case errors.Is(err, jobs.ErrUnknownQueue):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown queue"})
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return token
}

func millis(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
