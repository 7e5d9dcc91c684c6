package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/session"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/user/entity"
)

// SessionResolver finds the session of the current request.
type SessionResolver interface {
	Current(r *http.Request) (*session.Session, error)
}

// Reader is the part of UserService the profile page needs.
type Reader interface {
	Get(ctx context.Context, userID int64) (*entity.User, error)
}

// Handler exposes the signed-in user's record.
type Handler struct {
	svc       Reader
	sessions  SessionResolver
	loginPath string
	logger    *zap.SugaredLogger
}

func NewHandler(svc Reader, sessions SessionResolver, loginPath string, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, sessions: sessions, loginPath: loginPath, logger: logger}
}

// Profile returns the session user's record. Requests without a session are
// sent to the login flow.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Current(r)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			h.logger.Warnw("resolve session", "err", err)
		}
		http.Redirect(w, r, h.loginPath, http.StatusFound)
		return
	}

	u, err := h.svc.Get(r.Context(), s.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			h.logger.Debugw("session user has no record", "user_id", s.UserID)
			http.Redirect(w, r, h.loginPath, http.StatusFound)
		case errors.Is(err, ErrStorageUnavailable):
			h.logger.Errorw("profile read failed", "user_id", s.UserID, "err", err)
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		default:
			h.logger.Errorw("profile read failed", "user_id", s.UserID, "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "profile unavailable"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
