package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"utilitypay/backend/services/portal/internal/clients"
	"utilitypay/backend/services/portal/internal/models"
)

// User-facing messages.
const (
	MsgRequiredFields     = "Service Name, Provider, Bill Amount, and Due Date are required."
	MsgInvalidAmount      = "Bill Amount must be a positive number."
	MsgInvalidDueDate     = "Due Date must be a valid date (YYYY-MM-DD)."
	MsgMissingUser        = "A signed-in user is required to add a bill."
	MsgDuplicate          = "This enrollment is already being submitted."
	MsgUtilityFailed      = "Failed to create Utility Service."
	MsgMissingUtilityID   = "Utility created but no utility_id was returned by the server."
	MsgBillFailed         = "Failed to create initial Bill."
	MsgOperationFailed    = "Operation failed. Please try again later."
	dueDateLayout         = "2006-01-02"
	successNoticeTemplate = "Utility Service %q and initial Bill added successfully!"
	noticeNameLimit       = 80
)

// State is a step of the enrollment state machine.
type State string

const (
	StateIdle              State = "idle"
	StateValidating        State = "validating"
	StateInvalid           State = "invalid"
	StateSubmittingUtility State = "submitting_utility"
	StateUtilitySubmitted  State = "utility_submitted"
	StateSubmittingBill    State = "submitting_bill"
	StateFailed            State = "failed"
	StateComplete          State = "complete"
	StateNavigated         State = "navigated"
)

// BillingAPI is the subset of the billing API used by enrollment.
type BillingAPI interface {
	CreateUtility(ctx context.Context, draft models.UtilityServiceDraft) (models.UtilityID, error)
	CreateBill(ctx context.Context, draft models.BillDraft) error
}

// EnrollmentForm holds the raw form fields as entered.
type EnrollmentForm struct {
	Name         string
	Description  string
	ProviderName string
	Amount       string
	DueDate      string
	// Token identifies one rendered form; empty disables the submission guard.
	Token string
}

// Outcome records how a submission travelled through the state machine.
type Outcome struct {
	States        []State
	UtilityID     models.UtilityID
	ReusedUtility bool
	Notice        string
}

// State returns the current state.
func (o *Outcome) State() State {
	if len(o.States) == 0 {
		return StateIdle
	}
	return o.States[len(o.States)-1]
}

// Navigated records that the caller moved the user to the home view.
func (o *Outcome) Navigated() {
	if o.State() == StateComplete {
		o.advance(StateNavigated)
	}
}

func (o *Outcome) advance(s State) {
	o.States = append(o.States, s)
}

// EnrollmentService runs the utility-then-bill enrollment workflow.
type EnrollmentService struct {
	api    BillingAPI
	ledger SubmissionLedger
	logger *zap.Logger
}

// NewEnrollmentService builds service. A nil ledger disables duplicate guarding.
func NewEnrollmentService(api BillingAPI, ledger SubmissionLedger, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{api: api, ledger: ledger, logger: logger}
}

type validatedForm struct {
	utility models.UtilityServiceDraft
	amount  float64
	dueDate string
}

// Submit validates the form, creates the utility and then its first bill for userID.
// The bill request is never sent unless the utility step returned an id. On failure
// the returned error is an *EnrollmentError; the outcome is always non-nil.
func (s *EnrollmentService) Submit(ctx context.Context, userID int64, form EnrollmentForm) (*Outcome, error) {
	out := &Outcome{States: []State{StateIdle, StateValidating}}

	valid, err := validate(userID, form)
	if err != nil {
		out.advance(StateInvalid)
		out.advance(StateIdle)
		return out, err
	}

	token := strings.TrimSpace(form.Token)
	guarded, err := s.acquire(ctx, token)
	if err != nil {
		out.advance(StateIdle)
		return out, err
	}

	completed := false
	defer func() {
		if guarded {
			s.settle(token, completed)
		}
	}()

	utilityID, reused, err := s.createUtility(ctx, out, token, guarded, valid.utility)
	if err != nil {
		out.advance(StateFailed)
		out.advance(StateIdle)
		return out, err
	}
	out.UtilityID = utilityID
	out.ReusedUtility = reused
	out.advance(StateUtilitySubmitted)

	out.advance(StateSubmittingBill)
	bill := models.BillDraft{
		UserID:    userID,
		UtilityID: utilityID,
		Amount:    valid.amount,
		DueDate:   valid.dueDate,
	}
	if err := s.api.CreateBill(ctx, bill); err != nil {
		if guarded {
			s.rememberUtility(ctx, token, valid.utility, utilityID)
		}
		s.logger.Warn("initial bill not created, utility left without bill",
			zap.String("utility_id", utilityID.String()),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		out.advance(StateFailed)
		out.advance(StateIdle)
		return out, remoteError(StageBill, ErrBillRejected, MsgBillFailed, err)
	}

	completed = true
	out.advance(StateComplete)
	out.Notice = fmt.Sprintf(successNoticeTemplate, shorten(valid.utility.Name, noticeNameLimit))
	s.logger.Info("utility enrolled",
		zap.String("utility_id", utilityID.String()),
		zap.Int64("user_id", userID),
		zap.Bool("reused_utility", reused),
		zap.Float64("amount", valid.amount),
	)
	return out, nil
}

func (s *EnrollmentService) createUtility(ctx context.Context, out *Outcome, token string, guarded bool, draft models.UtilityServiceDraft) (models.UtilityID, bool, error) {
	if guarded {
		rec, err := s.ledger.Utility(ctx, token)
		if err != nil {
			s.logger.Warn("submission ledger lookup failed", zap.Error(err))
		} else if rec != nil && rec.Fingerprint == draft.Fingerprint() && rec.UtilityID != "" {
			s.logger.Info("reusing utility from previous attempt", zap.String("utility_id", rec.UtilityID))
			return models.UtilityID(rec.UtilityID), true, nil
		}
	}

	out.advance(StateSubmittingUtility)
	id, err := s.api.CreateUtility(ctx, draft)
	if err != nil {
		s.logger.Warn("utility not created", zap.String("name", draft.Name), zap.Error(err))
		return "", false, remoteError(StageUtility, ErrUtilityRejected, MsgUtilityFailed, err)
	}
	if id.Empty() {
		s.logger.Warn("utility created without id", zap.String("name", draft.Name))
		return "", false, &EnrollmentError{Stage: StageUtility, Kind: ErrMissingUtilityID, Message: MsgMissingUtilityID}
	}
	return id, false, nil
}

func (s *EnrollmentService) acquire(ctx context.Context, token string) (bool, error) {
	if token == "" || s.ledger == nil {
		return false, nil
	}
	ok, err := s.ledger.Acquire(ctx, token)
	if err != nil {
		// ledger outage: continue unguarded
		s.logger.Warn("submission ledger unavailable", zap.Error(err))
		return false, nil
	}
	if !ok {
		return false, &EnrollmentError{Stage: StageGuard, Kind: ErrDuplicateSubmission, Message: MsgDuplicate}
	}
	return true, nil
}

// settle runs after the request context may be gone, so it uses its own deadline.
func (s *EnrollmentService) settle(token string, completed bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var err error
	if completed {
		err = s.ledger.Complete(ctx, token)
	} else {
		err = s.ledger.Release(ctx, token)
	}
	if err != nil {
		s.logger.Warn("submission ledger update failed", zap.Bool("completed", completed), zap.Error(err))
	}
}

func (s *EnrollmentService) rememberUtility(ctx context.Context, token string, draft models.UtilityServiceDraft, id models.UtilityID) {
	rec := UtilityRecord{UtilityID: id.String(), Fingerprint: draft.Fingerprint()}
	if err := s.ledger.SaveUtility(ctx, token, rec); err != nil {
		s.logger.Warn("failed to remember created utility", zap.String("utility_id", id.String()), zap.Error(err))
	}
}

func validate(userID int64, form EnrollmentForm) (*validatedForm, error) {
	name := strings.TrimSpace(form.Name)
	provider := strings.TrimSpace(form.ProviderName)
	rawAmount := strings.TrimSpace(form.Amount)
	rawDue := strings.TrimSpace(form.DueDate)

	if name == "" || provider == "" || rawAmount == "" || rawDue == "" {
		return nil, invalid(MsgRequiredFields)
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil || !amount.IsPositive() {
		return nil, invalid(MsgInvalidAmount)
	}
	// the bill carries a JSON number; its float form must stay finite and positive
	value := amount.InexactFloat64()
	if value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return nil, invalid(MsgInvalidAmount)
	}

	due, err := time.Parse(dueDateLayout, rawDue)
	if err != nil {
		return nil, invalid(MsgInvalidDueDate)
	}

	if userID <= 0 {
		return nil, invalid(MsgMissingUser)
	}

	return &validatedForm{
		utility: models.UtilityServiceDraft{
			Name:         name,
			Description:  strings.TrimSpace(form.Description),
			ProviderName: provider,
		},
		amount:  value,
		dueDate: due.Format(dueDateLayout),
	}, nil
}

// shorten cuts s to at most limit runes, marking the cut with an ellipsis.
func shorten(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

func invalid(message string) error {
	return &EnrollmentError{Stage: StageValidation, Kind: ErrValidation, Message: message}
}

// remoteError resolves the message for a failed billing API call: the server
// message or raw body when present, the step fallback otherwise.
func remoteError(stage Stage, kind error, fallback string, err error) error {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.UserMessage()
		if msg == "" {
			msg = fallback
		}
		return &EnrollmentError{Stage: stage, Kind: kind, Message: msg, Err: err}
	}

	var encodeErr *clients.EncodeError
	if errors.As(err, &encodeErr) {
		return &EnrollmentError{Stage: stage, Kind: ErrEncoding, Message: MsgOperationFailed, Err: fmt.Errorf("%w: %w", kind, err)}
	}

	var transportErr *clients.TransportError
	if errors.As(err, &transportErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &EnrollmentError{Stage: stage, Kind: ErrTransport, Message: MsgOperationFailed, Err: fmt.Errorf("%w: %w", kind, err)}
	}

	return &EnrollmentError{Stage: stage, Kind: kind, Message: fallback, Err: err}
}
