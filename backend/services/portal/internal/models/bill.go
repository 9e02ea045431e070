package models

// BillDraft is the payload of POST /api/bills. Status and creation time are set by the
// billing API.
type BillDraft struct {
	UserID    int64     `json:"user_id"`
	UtilityID UtilityID `json:"utility_id"`
	Amount    float64   `json:"amount"`
	DueDate   string    `json:"due_date"`
}
