package events

import "encoding/json"

// Ack statuses returned to the bus after processing an event.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusIgnored = "ignored"
)

type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Envelope is the CloudEvent wrapper the bus sidecar puts around the
// application event. Only the fields we actually read are declared.
type Envelope struct {
	SpecVersion string          `json:"specversion,omitempty"`
	Type        string          `json:"type,omitempty"`
	Source      string          `json:"source,omitempty"`
	ID          string          `json:"id,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// UnwrapData extracts the application event from a raw delivery. When the
// body carries a CloudEvent with a data field, that field is returned;
// otherwise the whole body is treated as the event (direct broker
// deliveries arrive unwrapped).
func UnwrapData(body []byte) (json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if len(env.Data) > 0 {
		return env.Data, nil
	}
	return body, nil
}
