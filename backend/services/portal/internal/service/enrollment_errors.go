package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a form that failed local checks; no request was sent.
	ErrValidation = errors.New("enrollment: invalid form")
	// ErrDuplicateSubmission is returned while the same form is being submitted or after it completed.
	ErrDuplicateSubmission = errors.New("enrollment: duplicate submission")
	// ErrUtilityRejected means the create-utility call failed; no bill was attempted.
	ErrUtilityRejected = errors.New("enrollment: utility not created")
	// ErrMissingUtilityID means the utility call succeeded without returning an id.
	ErrMissingUtilityID = errors.New("enrollment: utility id missing")
	// ErrBillRejected means the utility exists remotely but its bill was not created.
	ErrBillRejected = errors.New("enrollment: bill not created")
	// ErrTransport marks a request that never produced a response.
	ErrTransport = errors.New("enrollment: billing api unreachable")
	// ErrEncoding marks a request body that could not be encoded; nothing was sent for that step.
	ErrEncoding = errors.New("enrollment: request not encodable")
)

// Stage names the enrollment step an error belongs to.
type Stage string

const (
	StageValidation Stage = "validation"
	StageGuard      Stage = "guard"
	StageUtility    Stage = "utility"
	StageBill       Stage = "bill"
)

// EnrollmentError carries the user-facing message of a failed enrollment.
type EnrollmentError struct {
	Stage   Stage
	Kind    error
	Message string
	Err     error
}

func (e *EnrollmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *EnrollmentError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UserMessage extracts the message to show for err, falling back to a generic text.
func UserMessage(err error) string {
	var enrollErr *EnrollmentError
	if errors.As(err, &enrollErr) && enrollErr.Message != "" {
		return enrollErr.Message
	}
	return MsgOperationFailed
}
