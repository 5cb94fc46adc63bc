// Server is the tracker core: it consumes telemetry from Kafka, maintains
// flight sessions, sweeps stale vehicles, and serves the read-only query API.
// Set DATABASE_URL and KAFKA_BROKERS; see internal/config for the rest.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"drone-flight-tracker/internal/api"
	apirepo "drone-flight-tracker/internal/api/repository"
	"drone-flight-tracker/internal/config"
	"drone-flight-tracker/internal/db"
	flightrepo "drone-flight-tracker/internal/flight/repository"
	"drone-flight-tracker/internal/identity"
	"drone-flight-tracker/internal/ledger"
	operatorrepo "drone-flight-tracker/internal/operator/repository"
	"drone-flight-tracker/internal/sweeper"
	otelsetup "drone-flight-tracker/internal/telemetry/otel"
	"drone-flight-tracker/internal/transport"
	vehiclerepo "drone-flight-tracker/internal/vehicle/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("server: DATABASE_URL is required")
	}
	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("server: KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "drone-flight-tracker", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	operators := operatorrepo.NewPostgresRepository(conn)
	vehicles := vehiclerepo.NewPostgresRepository(conn)
	flights := flightrepo.NewPostgresRepository(conn)

	resolver := identity.NewResolver(operators, vehicles)
	sessions := ledger.New(resolver, vehicles, flights)
	sweep := sweeper.New(vehicles, sessions, cfg.SweepInterval(), cfg.StaleAfter())

	reader := transport.NewReader(brokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	consumer := transport.NewConsumer(reader, sessions, cfg.RequirePilotID)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		log.Printf("consumer: reading %s (group %s)", cfg.KafkaTopic, cfg.KafkaGroupID)
		consumer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		log.Printf("sweeper: every %s, stale after %s", cfg.SweepInterval(), cfg.StaleAfter())
		sweep.Run(ctx)
	}()

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewHandler(apirepo.NewPostgresStore(conn), conn),
	}
	go func() {
		log.Printf("api: listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api: serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("server: shutting down...")

	// Unsubscribe and stop the sweep timer before releasing the store.
	if err := reader.Close(); err != nil {
		log.Printf("server: close reader: %v", err)
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: http shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: telemetry shutdown: %v", err)
	}
	if err := conn.Close(); err != nil {
		log.Printf("server: close db: %v", err)
	}
	log.Println("server: stopped")
}
