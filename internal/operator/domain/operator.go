package domain

import "time"

// Operator is a human controller optionally associated with vehicles.
// Created lazily the first time an event references its id; the display
// name defaults to the id until something better is known.
type Operator struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
