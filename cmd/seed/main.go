// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the demo vehicle (drone_demo) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"drone-flight-tracker/internal/config"
	"drone-flight-tracker/internal/db"
	flightdomain "drone-flight-tracker/internal/flight/domain"
	flightrepo "drone-flight-tracker/internal/flight/repository"
	operatordomain "drone-flight-tracker/internal/operator/domain"
	operatorrepo "drone-flight-tracker/internal/operator/repository"
	vehicledomain "drone-flight-tracker/internal/vehicle/domain"
	vehiclerepo "drone-flight-tracker/internal/vehicle/repository"
)

const (
	demoOperatorID   = "pilot_demo"
	demoOperatorName = "Demo Pilot"
	demoVehicleID    = "drone_demo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	vehicles := vehiclerepo.NewPostgresRepository(conn)
	operators := operatorrepo.NewPostgresRepository(conn)
	flights := flightrepo.NewPostgresRepository(conn)

	if existing, err := vehicles.GetByExternalID(ctx, demoVehicleID); err != nil {
		log.Fatalf("seed: %v", err)
	} else if existing != nil {
		log.Println("seed: demo data already present, nothing to do")
		return
	}

	now := time.Now().UTC()
	if err := operators.Create(ctx, &operatordomain.Operator{
		ID:        demoOperatorID,
		Name:      demoOperatorName,
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("seed operator: %v", err)
	}

	opID := demoOperatorID
	lastActive := now.Add(-time.Hour)
	vehicle := &vehicledomain.Vehicle{
		ID:           uuid.NewString(),
		ExternalID:   demoVehicleID,
		Status:       vehicledomain.StatusInactive,
		LastActiveAt: &lastActive,
		OperatorID:   &opID,
		CreatedAt:    now.Add(-2 * time.Hour),
	}
	if err := vehicles.Create(ctx, vehicle); err != nil {
		log.Fatalf("seed vehicle: %v", err)
	}

	// One finished flight an hour ago with a short arc of samples.
	start := now.Add(-70 * time.Minute)
	session := &flightdomain.Session{
		ID:        uuid.NewString(),
		VehicleID: vehicle.ID,
		StartedAt: start,
		IsActive:  true,
	}
	if err := flights.CreateSession(ctx, session); err != nil {
		log.Fatalf("seed session: %v", err)
	}
	for i := 0; i < 10; i++ {
		baro := 45.0
		speed := 5.0
		sample := &flightdomain.Sample{
			SessionID:         session.ID,
			Latitude:          -6.914744 + float64(i)*0.0001,
			Longitude:         107.609810 + float64(i)*0.0001,
			Altitude:          50,
			BarometerAltitude: &baro,
			Speed:             &speed,
			RecordedAt:        start.Add(time.Duration(i) * time.Second),
		}
		if err := flights.AppendSample(ctx, sample); err != nil {
			log.Fatalf("seed sample: %v", err)
		}
	}
	if err := flights.CloseSession(ctx, session.ID, start.Add(10*time.Minute)); err != nil {
		log.Fatalf("seed close session: %v", err)
	}

	log.Println("seed: inserted demo operator, vehicle, and one closed flight session")
}
