package reconcile

import (
	"encoding/json"
	"fmt"
)

// Payload is the validated, sanitized shape of an inbound notification.
// Parsing fails closed: a payload missing id, reference or status is rejected
// instead of producing a value with a missing field.
type Payload struct {
	ID            string
	Reference     string
	Status        string
	CryptoNetwork string
}

func parsePayload(body []byte) (*Payload, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("payload is not a JSON object")
	}

	obj = sanitizeValue(obj).(map[string]interface{})

	p := &Payload{
		ID:        stringField(obj, "id"),
		Reference: stringField(obj, "reference"),
		Status:    stringField(obj, "status"),
	}

	if crypto, ok := obj["crypto"].(map[string]interface{}); ok {
		p.CryptoNetwork = stringField(crypto, "network")
	}

	switch {
	case p.ID == "":
		return nil, fmt.Errorf("payload missing id")
	case p.Reference == "":
		return nil, fmt.Errorf("payload missing reference")
	case p.Status == "":
		return nil, fmt.Errorf("payload missing status")
	}

	return p, nil
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}
