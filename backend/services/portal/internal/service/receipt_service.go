package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"utilitypay/backend/services/portal/internal/models"
)

const (
	demoAmount          = "N/A"
	transactionIDPrefix = "TXN"
	transactionIDLength = 9
	defaultDateLayout   = "2006-01-02"
)

// ReceiptService turns a navigation payload into the receipt shown on /payment-success.
type ReceiptService struct {
	dateLayout string
	now        func() time.Time
	newID      func() string
}

// NewReceiptService returns service formatting demo dates with dateLayout.
func NewReceiptService(dateLayout string) *ReceiptService {
	if strings.TrimSpace(dateLayout) == "" {
		dateLayout = defaultDateLayout
	}
	return &ReceiptService{
		dateLayout: dateLayout,
		now:        time.Now,
		newID:      newTransactionID,
	}
}

// Resolve renders a supplied payload unchanged. Without one it synthesizes a demo
// receipt dated today; that receipt is display filler, never a transaction record.
// A partial payload keeps the supplied fields, fills the blank ones with demo values
// and is marked as demo.
func (s *ReceiptService) Resolve(payload *models.ReceiptPayload) models.ReceiptView {
	if payload == nil || payload.Empty() {
		return models.ReceiptView{
			Amount:        demoAmount,
			Date:          s.now().Format(s.dateLayout),
			TransactionID: s.newID(),
			Demo:          true,
		}
	}

	view := models.ReceiptView{
		Amount:        string(payload.Amount),
		Date:          string(payload.Date),
		TransactionID: string(payload.TransactionID),
	}
	if view.Amount == "" {
		view.Amount, view.Demo = demoAmount, true
	}
	if view.Date == "" {
		view.Date, view.Demo = s.now().Format(s.dateLayout), true
	}
	if view.TransactionID == "" {
		view.TransactionID, view.Demo = s.newID(), true
	}
	return view
}

func newTransactionID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return transactionIDPrefix + strings.ToUpper(raw[:transactionIDLength])
}
