// dronesim publishes simulated telemetry for one or more drones flying
// circular paths, for exercising the tracker end to end.
// Set KAFKA_BROKERS; flags control fleet size and flight geometry.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"drone-flight-tracker/internal/config"
	"drone-flight-tracker/internal/sim"
)

type telemetryPayload struct {
	ID                string  `json:"id"`
	PilotID           string  `json:"pilot_id,omitempty"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Altitude          float64 `json:"altitude"`
	BarometerAltitude float64 `json:"barometer_altitude"`
	Speed             float64 `json:"speed"`
}

func main() {
	var (
		drones     = flag.Int("drones", 1, "number of simulated drones")
		withPilots = flag.Bool("pilots", true, "attach a pilot id to each drone")
		centerLat  = flag.Float64("lat", -6.200, "circle center latitude")
		centerLon  = flag.Float64("lon", 106.800, "circle center longitude")
		radius     = flag.Float64("radius", 0.001, "circle radius in degrees")
		altitude   = flag.Float64("altitude", 100, "flight altitude in meters")
		speed      = flag.Float64("speed", 10, "speed in m/s")
		points     = flag.Int("points", 36, "positions per lap")
		interval   = flag.Duration("interval", 0, "publish interval; 0 derives it from speed")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("dronesim: KAFKA_BROKERS is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	defer writer.Close()

	path := sim.Path{
		CenterLat: *centerLat,
		CenterLon: *centerLon,
		Radius:    *radius,
		Altitude:  *altitude,
		Speed:     *speed,
		Points:    *points,
	}
	tick := *interval
	if tick <= 0 {
		tick = path.Interval()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fleet := *drones
	if fleet < 1 {
		fleet = 1
	}
	log.Printf("dronesim: %d drone(s) on %s every %s", fleet, cfg.KafkaTopic, tick)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			log.Println("dronesim: stopped")
			return
		case <-ticker.C:
		}

		for d := 0; d < fleet; d++ {
			// Each drone starts at a different phase of the same circle.
			lat, lon := path.Position(step + d*path.Points/fleet)
			payload := telemetryPayload{
				ID:                fmt.Sprintf("drone_%02d", d+1),
				Latitude:          lat,
				Longitude:         lon,
				Altitude:          path.Altitude,
				BarometerAltitude: path.BarometerAltitude(),
				Speed:             path.Speed,
			}
			if *withPilots {
				payload.PilotID = fmt.Sprintf("pilot_%02d", d+1)
			}
			value, err := json.Marshal(payload)
			if err != nil {
				log.Fatalf("dronesim: marshal: %v", err)
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = writer.WriteMessages(writeCtx, kafka.Message{Value: value})
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("dronesim: publish %s: %v", payload.ID, err)
			}
		}
	}
}
