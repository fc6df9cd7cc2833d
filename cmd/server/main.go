/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Payday Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite store
  3. Build jurisdiction configuration (defaults or -config file)
  4. Create API handler with dependencies
  5. Start the period scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: payday.db)
           Use ":memory:" for in-memory database
  -config  Optional jurisdiction JSON file overriding the default
           tax brackets, rate multipliers and geofence thresholds

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Stop the period scheduler
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payday.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with a custom jurisdiction
  ./server -config="./jurisdictions/th.json"

ENVIRONMENT:
  PORT and DB_PATH override the flag defaults; a .env file in the working
  directory is loaded if present.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
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
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/payday-engine/api"
	"github.com/warp/payday-engine/factory"
	"github.com/warp/payday-engine/store/sqlite"
)

func main() {
	// .env is optional; flags still win over it.
	_ = godotenv.Load()

	defaultPort := 8080
	if v := os.Getenv("PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			defaultPort = parsed
		}
	}
	defaultDB := "payday.db"
	if v := os.Getenv("DB_PATH"); v != "" {
		defaultDB = v
	}

	// Flags
	port := flag.Int("port", defaultPort, "HTTP server port")
	dbPath := flag.String("db", defaultDB, "SQLite database path")
	configPath := flag.String("config", "", "jurisdiction JSON file (optional)")
	flag.Parse()

	// Initialize store
	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	// Jurisdiction configuration
	cfgFactory := factory.NewConfigFactory()
	configs := cfgFactory.Defaults()
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to read config file: %v", err)
		}
		configs, err = cfgFactory.Parse(string(raw))
		if err != nil {
			log.Fatalf("Failed to parse config file: %v", err)
		}
		log.Printf("Loaded jurisdiction %q from %s", configs.Name, *configPath)
	}

	// Initialize handler
	handler := api.NewHandler(st, configs)

	// Start the period scheduler
	scheduler := api.NewPeriodScheduler(st)
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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
