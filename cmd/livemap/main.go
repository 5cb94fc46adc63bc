// livemap serves the live map page and proxies the tracker's query API.
// Set UPSTREAM_API_URL to the query surface (default http://localhost:5000).
package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"drone-flight-tracker/internal/config"
	"drone-flight-tracker/internal/livemap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	upstream, err := url.Parse(cfg.UpstreamAPIURL)
	if err != nil || upstream.Host == "" {
		log.Fatalf("livemap: invalid UPSTREAM_API_URL %q", cfg.UpstreamAPIURL)
	}

	srv := &http.Server{
		Addr:    cfg.LivemapAddr,
		Handler: livemap.NewHandler(upstream),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("livemap: listening on %s, proxying %s", cfg.LivemapAddr, upstream)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("livemap: serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("livemap: shutdown: %v", err)
	}
	log.Println("livemap: stopped")
}
