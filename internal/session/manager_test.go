package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestWith copies the cookies set on rec onto a new request.
func requestWith(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestManager_IssueAndCurrent(t *testing.T) {
	m := NewManager(NewMemoryStore(), "test-secret", time.Hour, true)

	rec := httptest.NewRecorder()
	s, err := m.Issue(context.Background(), rec, 1189532475468533811)
	require.NoError(t, err)
	assert.Len(t, s.ID, 27)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	got, err := m.Current(requestWith(rec))
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, int64(1189532475468533811), got.UserID)
}

func TestManager_CurrentWithoutCookie(t *testing.T) {
	m := NewManager(NewMemoryStore(), "test-secret", time.Hour, false)
	_, err := m.Current(httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	store := NewMemoryStore()
	issuer := NewManager(store, "other-secret", time.Hour, false)
	rec := httptest.NewRecorder()
	_, err := issuer.Issue(context.Background(), rec, 42)
	require.NoError(t, err)

	m := NewManager(store, "test-secret", time.Hour, false)
	_, err = m.Current(requestWith(rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager(NewMemoryStore(), "test-secret", time.Minute, false)
	rec := httptest.NewRecorder()
	_, err := m.Issue(context.Background(), rec, 42)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Current(requestWith(rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_Destroy(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, "test-secret", time.Hour, false)
	rec := httptest.NewRecorder()
	s, err := m.Issue(context.Background(), rec, 42)
	require.NoError(t, err)

	out := httptest.NewRecorder()
	require.NoError(t, m.Destroy(out, requestWith(rec)))

	_, err = store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	_, err = m.Current(requestWith(rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_DestroyWithoutSession(t *testing.T) {
	m := NewManager(NewMemoryStore(), "test-secret", time.Hour, false)
	out := httptest.NewRecorder()
	assert.NoError(t, m.Destroy(out, httptest.NewRequest(http.MethodGet, "/logout", nil)))
	assert.Len(t, out.Result().Cookies(), 1)
}
