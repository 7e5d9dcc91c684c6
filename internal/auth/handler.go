package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/discord"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/session"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/user"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/user/entity"
)

const (
	PathLogin    = "/auth/discord"
	PathCallback = "/auth/discord/callback"
	PathFailed   = "/auth/failed"
	PathNoSteam  = "/auth/no-steam"
	PathProfile  = "/profile"
)

// errStateMismatch covers a missing or forged state, a missing verifier and
// a callback without a code.
var errStateMismatch = errors.New("oauth state mismatch")

type Provider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*discord.Profile, error)
}

type Linker interface {
	Link(ctx context.Context, userID int64, steamID *int64) (*entity.User, error)
}

type Sessions interface {
	Issue(ctx context.Context, w http.ResponseWriter, userID int64) (*session.Session, error)
	Destroy(w http.ResponseWriter, r *http.Request) error
}

// Handler runs the Discord login flow.
type Handler struct {
	provider     Provider
	linker       Linker
	sessions     Sessions
	policy       Policy
	secureCookie bool
	logger       *zap.SugaredLogger
}

func NewHandler(p Provider, l Linker, s Sessions, policy Policy, secureCookie bool, logger *zap.SugaredLogger) *Handler {
	return &Handler{provider: p, linker: l, sessions: s, policy: policy, secureCookie: secureCookie, logger: logger}
}

// Login redirects to the Discord consent screen.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state, verifier := beginFlow(w, h.secureCookie)
	http.Redirect(w, r, h.provider.AuthCodeURL(state, verifier), http.StatusFound)
}

// Callback completes the flow: verify, decide, upsert, open a session.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verifier, ok := endFlow(w, r, h.secureCookie)

	if e := q.Get("error"); e != "" {
		h.logger.Infow("discord denied authorization", "error", e, "description", q.Get("error_description"))
		http.Redirect(w, r, PathFailed, http.StatusFound)
		return
	}
	code := q.Get("code")
	if !ok || code == "" {
		h.fail(w, r, errStateMismatch)
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code, verifier)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	decision, err := Receive(profile, h.policy)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.linker.Link(r.Context(), decision.UserID, decision.SteamID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.sessions.Issue(r.Context(), w, u.UserID); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Infow("user linked", "user_id", u.UserID, "has_steam", u.HasSteam(), "policy", h.policy.String())
	http.Redirect(w, r, PathProfile, http.StatusFound)
}

// Logout ends the session and returns to the landing page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		h.logger.Warnw("destroy session", "err", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoLinkedAccount):
		h.logger.Infow("login refused", "err", err, "policy", h.policy.String())
		http.Redirect(w, r, PathNoSteam, http.StatusFound)
		return
	case errors.Is(err, errStateMismatch), errors.Is(err, discord.ErrProviderAuth), errors.Is(err, ErrInvalidProfile):
		h.logger.Warnw("discord authentication failed", "err", err)
	case errors.Is(err, user.ErrStorageUnavailable):
		h.logger.Errorw("storage unavailable", "err", err)
	case errors.Is(err, user.ErrStorageWrite), errors.Is(err, user.ErrStorageRead), errors.Is(err, user.ErrInvalidUserID):
		h.logger.Errorw("link user failed", "err", err)
	default:
		h.logger.Errorw("login failed", "err", err)
	}
	http.Redirect(w, r, PathFailed, http.StatusFound)
}
