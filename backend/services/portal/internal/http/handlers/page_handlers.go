package handlers

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"utilitypay/backend/services/portal/internal/web"
)

const flashCookie = "portal_flash"

// PageHandlers serves the static pages of the portal.
type PageHandlers struct {
	renderer *web.Renderer
	logger   *zap.Logger
}

// NewPageHandlers returns handler.
func NewPageHandlers(renderer *web.Renderer, logger *zap.Logger) *PageHandlers {
	return &PageHandlers{renderer: renderer, logger: logger}
}

// Login handles GET / and GET /login.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.renderer, h.logger, http.StatusOK, web.PageLogin, nil)
}

// Register handles GET /register.
func (h *PageHandlers) Register(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.renderer, h.logger, http.StatusOK, web.PageRegister, nil)
}

// Admin handles GET /admin.
func (h *PageHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.renderer, h.logger, http.StatusOK, web.PageAdmin, nil)
}

// Home handles GET /home and shows (then clears) the flash notice.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) {
	notice := takeFlash(w, r)
	renderPage(w, h.renderer, h.logger, http.StatusOK, web.PageHome, struct{ Notice string }{Notice: notice})
}

func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	message, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return message
}
