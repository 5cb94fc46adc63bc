// Package transport subscribes to the telemetry topic and turns raw messages
// into validated ledger events. Malformed or incomplete payloads never reach
// the ledger.
package transport

import (
	"encoding/json"
	"fmt"

	"drone-flight-tracker/internal/ledger"
)

// DecodeError reports a payload that is not valid JSON. Dropped, logged, never retried.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode telemetry payload: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError reports a payload missing a required field. Dropped, logged, never retried.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("telemetry event missing required field %q", e.Field)
}

// payload is the wire shape of one telemetry message. Pointer fields
// distinguish absent from zero-valued.
type payload struct {
	ID                *string  `json:"id"`
	PilotID           *string  `json:"pilot_id"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	Altitude          *float64 `json:"altitude"`
	BarometerAltitude *float64 `json:"barometer_altitude"`
	Speed             *float64 `json:"speed"`
}

// Decode parses and validates one raw message. requirePilot enables the
// operator-aware deployment variant, where pilot_id is a required field.
// The returned event has no ReceivedAt; the consumer stamps it.
func Decode(raw []byte, requirePilot bool) (*ledger.Event, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if p.ID == nil || *p.ID == "" {
		return nil, &ValidationError{Field: "id"}
	}
	if p.Latitude == nil {
		return nil, &ValidationError{Field: "latitude"}
	}
	if p.Longitude == nil {
		return nil, &ValidationError{Field: "longitude"}
	}
	if p.Altitude == nil {
		return nil, &ValidationError{Field: "altitude"}
	}
	if requirePilot && (p.PilotID == nil || *p.PilotID == "") {
		return nil, &ValidationError{Field: "pilot_id"}
	}

	ev := &ledger.Event{
		VehicleExternalID: *p.ID,
		Latitude:          *p.Latitude,
		Longitude:         *p.Longitude,
		Altitude:          *p.Altitude,
		BarometerAltitude: p.BarometerAltitude,
		Speed:             p.Speed,
	}
	if p.PilotID != nil {
		ev.OperatorID = *p.PilotID
	}
	return ev, nil
}
