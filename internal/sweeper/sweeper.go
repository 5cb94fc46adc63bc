// Package sweeper runs the periodic liveness check: vehicles that stopped
// reporting get their sessions closed through the ledger. It runs fully
// independently of the transport and touches shared state only via the
// ledger's lock-guarded interface.
package sweeper

import (
	"context"
	"log"
	"time"

	vehiclerepo "drone-flight-tracker/internal/vehicle/repository"
)

// SessionCloser is the slice of the ledger the sweeper needs.
type SessionCloser interface {
	CloseStale(ctx context.Context, vehicleExternalID string, threshold time.Duration, now time.Time) error
}

// Sweeper closes sessions of vehicles whose last activity is older than
// Threshold, checking every Period. A session may close up to one period late.
type Sweeper struct {
	vehicles  vehiclerepo.Repository
	ledger    SessionCloser
	period    time.Duration
	threshold time.Duration

	now func() time.Time
}

// New returns a sweeper over the given vehicle repository and ledger.
func New(vehicles vehiclerepo.Repository, ledger SessionCloser, period, threshold time.Duration) *Sweeper {
	return &Sweeper{
		vehicles:  vehicles,
		ledger:    ledger,
		period:    period,
		threshold: threshold,
		now:       time.Now,
	}
}

// Run sweeps every period until ctx is cancelled. The in-progress sweep
// finishes before Run returns, so callers can release the store afterwards.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep closes every stale vehicle's session. Failures are logged per vehicle
// and never abort the pass; the next cycle retries naturally.
func (s *Sweeper) sweep(ctx context.Context) {
	now := s.now().UTC()
	stale, err := s.vehicles.ListStale(ctx, now.Add(-s.threshold))
	if err != nil {
		log.Printf("sweeper: list stale vehicles: %v", err)
		return
	}
	for _, v := range stale {
		if err := s.ledger.CloseStale(ctx, v.ExternalID, s.threshold, now); err != nil {
			log.Printf("sweeper: close %s: %v", v.ExternalID, err)
			continue
		}
		log.Printf("sweeper: marked %s inactive", v.ExternalID)
	}
}
