package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"utilitypay/backend/services/portal/internal/http/middleware"
	"utilitypay/backend/services/portal/internal/service"
	"utilitypay/backend/services/portal/internal/web"
)

const maxFormBytes = 64 << 10

// EnrollmentHandlers serves the add-service form.
type EnrollmentHandlers struct {
	svc      *service.EnrollmentService
	renderer *web.Renderer
	logger   *zap.Logger
	newToken func() string
}

// NewEnrollmentHandlers returns handler.
func NewEnrollmentHandlers(svc *service.EnrollmentService, renderer *web.Renderer, logger *zap.Logger) *EnrollmentHandlers {
	return &EnrollmentHandlers{
		svc:      svc,
		renderer: renderer,
		logger:   logger,
		newToken: uuid.NewString,
	}
}

type enrollmentPage struct {
	Form  service.EnrollmentForm
	Error string
	Alert string
}

// Form handles GET /add_service with an empty form and a fresh submission token.
func (h *EnrollmentHandlers) Form(w http.ResponseWriter, r *http.Request) {
	page := enrollmentPage{Form: service.EnrollmentForm{Token: h.newToken()}}
	renderPage(w, h.renderer, h.logger, http.StatusOK, web.PageAddService, page)
}

// Submit handles POST /add_service. Success redirects to /home with a notice; any
// failure re-renders the form with the entered values and the error message.
func (h *EnrollmentHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	form := service.EnrollmentForm{
		Name:         r.PostForm.Get("name"),
		Description:  r.PostForm.Get("description"),
		ProviderName: r.PostForm.Get("provider_name"),
		Amount:       r.PostForm.Get("amount"),
		DueDate:      r.PostForm.Get("due_date"),
		Token:        r.PostForm.Get("submission_token"),
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	outcome, err := h.svc.Submit(r.Context(), userID, form)
	if err != nil {
		message := service.UserMessage(err)
		h.logger.Warn("enrollment failed",
			zap.Int64("user_id", userID),
			zap.String("state", string(outcome.State())),
			zap.String("message", message),
			zap.Error(err),
		)
		if form.Token == "" {
			form.Token = h.newToken()
		}
		page := enrollmentPage{Form: form, Error: message, Alert: "Error: " + message}
		renderPage(w, h.renderer, h.logger, statusForEnrollmentError(err), web.PageAddService, page)
		return
	}

	setFlash(w, outcome.Notice)
	outcome.Navigated()
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func statusForEnrollmentError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDuplicateSubmission):
		return http.StatusConflict
	case errors.Is(err, service.ErrEncoding):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
