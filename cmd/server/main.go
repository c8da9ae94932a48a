/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the availability engine server: configuration,
  store, ERP source, router, graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load YAML configuration (flags win for port/database)
  3. Initialize SQLite store and seed holidays from configuration
  4. Wire the ERP source (demo fixtures unless a real adapter is plugged in)
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default from config, 8080)
  -db      SQLite database path (":memory:" for in-memory)
  -config  Path to YAML configuration file
  -demo    Serve the built-in demo catalog as the ERP source

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait for active
  requests (30s timeout), close the database, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration surface
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forge/availability-engine/api"
	"github.com/forge/availability-engine/config"
	"github.com/forge/availability-engine/erp"
	"github.com/forge/availability-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	configPath := flag.String("config", "", "Path to YAML configuration file")
	demo := flag.Bool("demo", false, "Serve the built-in demo catalog")
	flag.Parse()

	// Configuration
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}

	// Store
	store, err := sqlite.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if err := seedHolidays(context.Background(), store, cfg); err != nil {
		log.Fatalf("Failed to seed holidays: %v", err)
	}

	// ERP source
	var source erp.Source = erp.NewMemorySource(nil, nil)
	if *demo {
		source = erp.DemoSource()
		log.Println("Serving built-in demo catalog")
	}

	// Router
	handler := api.NewHandler(store, source, cfg)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Availability engine listening on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// seedHolidays copies configured holiday dates into the store without
// clobbering dates an operator already added or renamed there.
func seedHolidays(ctx context.Context, store *sqlite.Store, cfg config.Config) error {
	existing, err := store.ListHolidays(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, h := range existing {
		seen[h.Date.Format("2006-01-02")] = true
	}

	dates, err := cfg.Holidays()
	if err != nil {
		return err
	}
	for _, d := range dates {
		if seen[d.Format("2006-01-02")] {
			continue
		}
		if err := store.SaveHoliday(ctx, sqlite.Holiday{Date: d}); err != nil {
			return err
		}
	}
	return nil
}
