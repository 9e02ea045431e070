package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"utilitypay/backend/services/portal/internal/models"
	"utilitypay/backend/services/portal/internal/service"
	"utilitypay/backend/services/portal/internal/web"
)

const receiptCurrency = "Rs."

// ReceiptHandlers serves /payment-success.
type ReceiptHandlers struct {
	svc      *service.ReceiptService
	renderer *web.Renderer
	logger   *zap.Logger
}

// NewReceiptHandlers returns handler.
func NewReceiptHandlers(svc *service.ReceiptService, renderer *web.Renderer, logger *zap.Logger) *ReceiptHandlers {
	return &ReceiptHandlers{svc: svc, renderer: renderer, logger: logger}
}

type receiptPage struct {
	models.ReceiptView
	Currency string
}

// Show handles GET (no payload) and POST (payload as form or JSON) /payment-success.
func (h *ReceiptHandlers) Show(w http.ResponseWriter, r *http.Request) {
	var payload *models.ReceiptPayload
	if r.Method == http.MethodPost {
		p, err := readReceiptPayload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid receipt payload")
			return
		}
		payload = p
	}

	view := h.svc.Resolve(payload)
	if view.Demo {
		h.logger.Debug("rendering demo receipt", zap.String("transaction_id", view.TransactionID))
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	renderPage(w, h.renderer, h.logger, http.StatusOK, web.PagePaymentSuccess, receiptPage{ReceiptView: view, Currency: receiptCurrency})
}

func readReceiptPayload(w http.ResponseWriter, r *http.Request) (*models.ReceiptPayload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if isJSONBody(r) {
		var p models.ReceiptPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &models.ReceiptPayload{
		Amount:        models.FlexString(r.PostForm.Get("amount")),
		Date:          models.FlexString(r.PostForm.Get("date")),
		TransactionID: models.FlexString(r.PostForm.Get("transactionId")),
	}, nil
}
