// Package ledger owns the vehicle→active-session mapping and the append-only
// sample log. All mutations for a given vehicle run under a per-vehicle lock,
// so inbound ingestion and the liveness sweeper can never race a session into
// an inconsistent state.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	flightdomain "drone-flight-tracker/internal/flight/domain"
	flightrepo "drone-flight-tracker/internal/flight/repository"
	"drone-flight-tracker/internal/identity"
	"drone-flight-tracker/internal/telemetry"
	vehicledomain "drone-flight-tracker/internal/vehicle/domain"
	vehiclerepo "drone-flight-tracker/internal/vehicle/repository"
)

// Event is one validated telemetry reading bound for the ledger.
type Event struct {
	VehicleExternalID string
	OperatorID        string // empty when the deployment omits pilot ids
	Latitude          float64
	Longitude         float64
	Altitude          float64
	BarometerAltitude *float64
	Speed             *float64
	// ReceivedAt is when the transport handed the event over; it becomes the
	// sample timestamp and the vehicle's last-active time.
	ReceivedAt time.Time
}

// Ledger serializes all per-vehicle mutations. Unrelated vehicles never block
// each other; the map of locks grows with the fleet and is never pruned.
type Ledger struct {
	resolver *identity.Resolver
	vehicles vehiclerepo.Repository
	flights  flightrepo.Repository

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// New returns a ledger over the given resolver and repositories.
func New(resolver *identity.Resolver, vehicles vehiclerepo.Repository, flights flightrepo.Repository) *Ledger {
	return &Ledger{
		resolver: resolver,
		vehicles: vehicles,
		flights:  flights,
		locks:    map[string]*sync.Mutex{},
		now:      time.Now,
	}
}

func (l *Ledger) lockVehicle(externalID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[externalID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[externalID] = m
	}
	return m
}

// Ingest records one telemetry event: resolve identity, find or open the
// vehicle's session, append the sample, and advance last-active. The whole
// sequence holds the vehicle's lock, so two concurrent ingests can never both
// open a session.
func (l *Ledger) Ingest(ctx context.Context, ev Event) error {
	m := l.lockVehicle(ev.VehicleExternalID)
	m.Lock()
	defer m.Unlock()

	at := ev.ReceivedAt
	if at.IsZero() {
		at = l.now().UTC()
	}

	v, _, err := l.resolver.Resolve(ctx, ev.VehicleExternalID, ev.OperatorID, at)
	if err != nil {
		return err
	}

	sess, err := l.flights.GetActiveByVehicle(ctx, v.ID)
	if err != nil {
		return fmt.Errorf("lookup active session for %s: %w", ev.VehicleExternalID, err)
	}
	if sess == nil {
		sess = &flightdomain.Session{
			ID:        uuid.NewString(),
			VehicleID: v.ID,
			StartedAt: at,
			IsActive:  true,
		}
		if err := l.flights.CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("open session for %s: %w", ev.VehicleExternalID, err)
		}
		telemetry.SessionOpened(ctx)
	}

	sample := &flightdomain.Sample{
		SessionID:         sess.ID,
		Latitude:          ev.Latitude,
		Longitude:         ev.Longitude,
		Altitude:          ev.Altitude,
		BarometerAltitude: ev.BarometerAltitude,
		Speed:             ev.Speed,
		RecordedAt:        at,
	}
	if err := l.flights.AppendSample(ctx, sample); err != nil {
		// The open session stays behind; the sweeper closes it once stale.
		return fmt.Errorf("append sample for %s: %w", ev.VehicleExternalID, err)
	}
	telemetry.SampleAppended(ctx)
	return nil
}

// Close ends the vehicle's active session at the given time and deactivates the
// vehicle. It is a no-op (not an error) when the vehicle is unknown or already
// has no active session, which makes races with a concurrent ingest harmless.
func (l *Ledger) Close(ctx context.Context, vehicleExternalID string, at time.Time) error {
	m := l.lockVehicle(vehicleExternalID)
	m.Lock()
	defer m.Unlock()

	v, err := l.vehicles.GetByExternalID(ctx, vehicleExternalID)
	if err != nil {
		return fmt.Errorf("lookup vehicle %s: %w", vehicleExternalID, err)
	}
	if v == nil {
		return nil
	}
	return l.closeLocked(ctx, v, at)
}

// CloseStale is Close with a freshness re-check under the vehicle's lock: when
// an ingest slipped in between the sweeper's scan and this call, the vehicle's
// last-active is fresh again and nothing is closed.
func (l *Ledger) CloseStale(ctx context.Context, vehicleExternalID string, threshold time.Duration, now time.Time) error {
	m := l.lockVehicle(vehicleExternalID)
	m.Lock()
	defer m.Unlock()

	v, err := l.vehicles.GetByExternalID(ctx, vehicleExternalID)
	if err != nil {
		return fmt.Errorf("lookup vehicle %s: %w", vehicleExternalID, err)
	}
	if v == nil || v.Status != vehicledomain.StatusActive {
		return nil
	}
	if v.LastActiveAt != nil && now.Sub(*v.LastActiveAt) <= threshold {
		return nil
	}
	return l.closeLocked(ctx, v, now)
}

// closeLocked performs the close steps. Caller holds the vehicle's lock.
func (l *Ledger) closeLocked(ctx context.Context, v *vehicledomain.Vehicle, at time.Time) error {
	sess, err := l.flights.GetActiveByVehicle(ctx, v.ID)
	if err != nil {
		return fmt.Errorf("lookup active session for %s: %w", v.ExternalID, err)
	}
	if sess != nil {
		if err := l.flights.CloseSession(ctx, sess.ID, at); err != nil {
			return fmt.Errorf("close session for %s: %w", v.ExternalID, err)
		}
		telemetry.SessionClosed(ctx)
	}
	if v.Status == vehicledomain.StatusActive {
		if err := l.vehicles.Deactivate(ctx, v.ID); err != nil {
			return fmt.Errorf("deactivate vehicle %s: %w", v.ExternalID, err)
		}
	}
	return nil
}
