package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	stateCookieName = "__oauth_state"
	pkceCookieName  = "__oauth_pkce"
	flowTTL         = 5 * time.Minute
)

// beginFlow sets the state and PKCE verifier cookies and returns their values.
func beginFlow(w http.ResponseWriter, secure bool) (state, verifier string) {
	state = oauth2.GenerateVerifier()
	verifier = oauth2.GenerateVerifier()
	setFlowCookie(w, stateCookieName, state, int(flowTTL.Seconds()), secure)
	setFlowCookie(w, pkceCookieName, verifier, int(flowTTL.Seconds()), secure)
	return state, verifier
}

// endFlow reads the verifier if the state query matches its cookie. The
// cookies are cleared either way so a callback URL cannot be replayed.
func endFlow(w http.ResponseWriter, r *http.Request, secure bool) (verifier string, ok bool) {
	defer func() {
		setFlowCookie(w, stateCookieName, "", -1, secure)
		setFlowCookie(w, pkceCookieName, "", -1, secure)
	}()

	state := r.URL.Query().Get("state")
	if state == "" {
		return "", false
	}
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		return "", false
	}
	pkce, err := r.Cookie(pkceCookieName)
	if err != nil || pkce.Value == "" {
		return "", false
	}
	return pkce.Value, true
}

func setFlowCookie(w http.ResponseWriter, name, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
