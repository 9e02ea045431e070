package clients

import (
	"context"
	"encoding/json"
	"fmt"

	"utilitypay/backend/services/portal/internal/models"
)

const (
	utilitiesPath = "/api/utilities"
	billsPath     = "/api/bills"
)

// BillingClient talks to the external billing API.
type BillingClient struct {
	base *BaseClient
}

// NewBillingClient returns client instance.
func NewBillingClient(baseURL string, httpClient HTTPDoer) *BillingClient {
	return &BillingClient{base: NewBaseClient(baseURL, httpClient)}
}

// CreateUtility registers a utility service. Only 200 and 201 count as success; the
// returned id may be empty if the API omitted it, which callers must check.
func (c *BillingClient) CreateUtility(ctx context.Context, draft models.UtilityServiceDraft) (models.UtilityID, error) {
	status, body, err := c.base.PostJSON(ctx, utilitiesPath, draft)
	if err != nil {
		return "", err
	}
	if !isCreated(status) {
		return "", newAPIError("create utility", status, body)
	}

	var created models.UtilityCreated
	if len(body) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			return "", fmt.Errorf("create utility: decode response: %w", err)
		}
	}
	return created.UtilityID, nil
}

// CreateBill records a bill for an existing utility.
func (c *BillingClient) CreateBill(ctx context.Context, draft models.BillDraft) error {
	status, body, err := c.base.PostJSON(ctx, billsPath, draft)
	if err != nil {
		return err
	}
	if !isCreated(status) {
		return newAPIError("create bill", status, body)
	}
	return nil
}
