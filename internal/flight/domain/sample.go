package domain

import "time"

// Sample is one timestamped positional reading within a session. Samples are
// append-only: once written they are never updated or deleted.
type Sample struct {
	ID                int64
	SessionID         string
	Latitude          float64
	Longitude         float64
	Altitude          float64
	BarometerAltitude *float64
	Speed             *float64
	RecordedAt        time.Time
}
