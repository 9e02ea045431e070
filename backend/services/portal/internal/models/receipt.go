package models

import "fmt"

// ReceiptPayload is the navigation payload handed to /payment-success.
type ReceiptPayload struct {
	Amount        FlexString `json:"amount"`
	Date          FlexString `json:"date"`
	TransactionID FlexString `json:"transactionId"`
}

// Empty reports whether none of the receipt fields were supplied.
func (p ReceiptPayload) Empty() bool {
	return p.Amount == "" && p.Date == "" && p.TransactionID == ""
}

// ReceiptView is what the payment-success page renders. Demo marks a locally
// synthesized placeholder that must not be treated as a transaction record.
type ReceiptView struct {
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	TransactionID string `json:"transactionId"`
	Demo          bool   `json:"demo"`
}

// FlexString decodes a JSON string or number into text, keeping numbers as written.
type FlexString string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	s, err := decodeScalar(data)
	if err != nil {
		return fmt.Errorf("receipt field: %w", err)
	}
	*f = FlexString(s)
	return nil
}
