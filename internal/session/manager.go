package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-steamlink/pkg/utilities"
)

const CookieName = "steamlink_session"

// ErrNoSession means the request carries no valid session.
var ErrNoSession = errors.New("no session")

// Manager issues, resolves and destroys sessions. The cookie holds an HS256
// token naming the session; the session itself lives in the Store.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Issue creates a session for userID and sets the cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, userID int64) (*Session, error) {
	now := m.now()
	s := Session{
		ID:        utilities.NewKSUID(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	token, err := m.sign(s)
	if err != nil {
		return nil, err
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return &s, nil
}

// Current resolves the request's session. It returns ErrNoSession when the
// cookie is missing, forged, expired or points at a deleted session; other
// errors come from the store.
func (m *Manager) Current(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	claims, err := m.parse(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	s, err := m.store.Get(r.Context(), claims.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	if strconv.FormatInt(s.UserID, 10) != claims.Subject || !s.ExpiresAt.After(m.now()) {
		return nil, ErrNoSession
	}
	return s, nil
}

// Destroy deletes the session, if any, and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	var err error
	if cookie, cerr := r.Cookie(CookieName); cerr == nil && cookie.Value != "" {
		if claims, perr := m.parse(cookie.Value); perr == nil {
			err = m.store.Delete(r.Context(), claims.ID)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

func (m *Manager) sign(s Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   strconv.FormatInt(s.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("token without session id")
	}
	return claims, nil
}
