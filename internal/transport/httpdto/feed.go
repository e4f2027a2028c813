package httpdto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ParseTokenMap decodes the ?tokens= query parameter shared by the SSE and
// websocket feed endpoints: a JSON object of meetingID -> raw credential. An
// empty value is a valid anonymous subscription.
func ParseTokenMap(raw string) (map[uuid.UUID]string, error) {
	credentials := make(map[uuid.UUID]string)
	if raw == "" {
		return credentials, nil
	}
	var byString map[string]string
	if err := json.Unmarshal([]byte(raw), &byString); err != nil {
		return nil, err
	}
	for key, value := range byString {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, err
		}
		credentials[id] = value
	}
	return credentials, nil
}
