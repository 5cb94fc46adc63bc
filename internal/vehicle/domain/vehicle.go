package domain

import "time"

// Status is a vehicle's reporting state. A vehicle is active exactly while
// it has an open flight session.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Vehicle is a tracked airborne unit identified by an external string id
// (the "id" field of the telemetry payload). The operator link is optional
// metadata and never load-bearing for session or liveness logic.
type Vehicle struct {
	ID           string
	ExternalID   string
	Status       Status
	LastActiveAt *time.Time // nil until the first sample arrives
	OperatorID   *string    // nil when no operator is known
	CreatedAt    time.Time
}
