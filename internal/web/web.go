package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"
)

//go:embed pages
var pagesFS embed.FS

type page struct {
	Title       string
	Message     string
	Action      string
	ActionLabel string
}

var (
	landing = page{
		Title:       "Welcome to Discord Steam Auth",
		Message:     "Sign in with Discord to link your Steam account.",
		Action:      "/auth/discord",
		ActionLabel: "Sign in with Discord",
	}
	failed = page{
		Title:       "Sign-in failed",
		Message:     "We could not complete the Discord sign-in. Please try again.",
		Action:      "/auth/discord",
		ActionLabel: "Try again",
	}
	noSteam = page{
		Title:       "No Steam account linked",
		Message:     "Connect your Steam account in Discord under User Settings, Connections, then sign in again.",
		Action:      "/auth/discord",
		ActionLabel: "Sign in again",
	}
)

// Pages serves the embedded HTML pages and static assets.
type Pages struct {
	tmpl   *template.Template
	static http.Handler
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) (*Pages, error) {
	tmpl, err := template.ParseFS(pagesFS, "pages/layout.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(pagesFS, "pages/static")
	if err != nil {
		return nil, err
	}
	return &Pages{
		tmpl:   tmpl,
		static: http.StripPrefix("/static/", http.FileServerFS(static)),
		logger: logger,
	}, nil
}

func (p *Pages) Landing(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusOK, landing)
}

func (p *Pages) Failed(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusBadRequest, failed)
}

func (p *Pages) NoSteam(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusBadRequest, noSteam)
}

func (p *Pages) Static(w http.ResponseWriter, r *http.Request) {
	p.static.ServeHTTP(w, r)
}

func (p *Pages) render(w http.ResponseWriter, status int, pg page) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout", pg); err != nil {
		p.logger.Errorw("render page", "title", pg.Title, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
