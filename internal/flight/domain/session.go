package domain

import "time"

// Session is one contiguous interval of reporting activity for a vehicle.
// At most one session per vehicle is active at any instant; a closed session
// is never reopened, a later sample starts a new one.
type Session struct {
	ID        string
	VehicleID string
	StartedAt time.Time
	EndedAt   *time.Time // nil while the session is open
	IsActive  bool
}
