package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UtilityServiceDraft is the payload of POST /api/utilities.
type UtilityServiceDraft struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ProviderName string `json:"provider_name"`
}

// Fingerprint identifies the draft contents so a remembered utility id is only
// reused for the same service definition.
func (d UtilityServiceDraft) Fingerprint() string {
	return strings.Join([]string{d.Name, d.Description, d.ProviderName}, "\x1f")
}

// UtilityCreated mirrors the create-utility response body.
type UtilityCreated struct {
	UtilityID UtilityID `json:"utility_id"`
}

// UtilityID is the server-assigned utility identifier. The billing API may send it as
// a number or a string; null, "" and 0 decode to the empty (missing) id.
type UtilityID string

// Empty reports whether no identifier was returned.
func (id UtilityID) Empty() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id UtilityID) String() string {
	return string(id)
}

// UnmarshalJSON accepts numbers, strings and null.
func (id *UtilityID) UnmarshalJSON(data []byte) error {
	s, err := decodeScalar(data)
	if err != nil {
		return fmt.Errorf("utility_id: %w", err)
	}
	if s == "0" {
		s = ""
	}
	*id = UtilityID(s)
	return nil
}

// MarshalJSON writes canonical integer ids as JSON numbers and anything else, such as
// "007" or "+7", as a string.
func (id UtilityID) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(id))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// decodeScalar renders a JSON string, number, bool or null as plain text.
func decodeScalar(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	case '{', '[':
		return "", fmt.Errorf("unexpected JSON value %s", string(data))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			return n.String(), nil
		}
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	}
}
