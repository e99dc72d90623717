package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/solmeter/solmeter/pkg/config"
	"github.com/solmeter/solmeter/pkg/export"
	"github.com/solmeter/solmeter/pkg/httpx"
	"github.com/solmeter/solmeter/pkg/readings"
	"github.com/solmeter/solmeter/pkg/storage/badger"
	"github.com/solmeter/solmeter/pkg/trends"
)

const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 30 * time.Second
	shutdownTimeout    = 30 * time.Second
)

var startTime = time.Now()

func main() {
	log.Println("Starting solmeter server...")

	dataDir := getEnvString("SOLMETER_DATA_DIR", config.DefaultDataDir)
	maxMemoryMB := getEnvInt64("SOLMETER_MAX_MEMORY_MB", config.DefaultMaxMemoryMB)
	port := getEnvString("PORT", config.DefaultPort)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	log.Printf("Data directory: %s", dataDir)

	store, err := badger.New(badger.Config{
		Path:        dataDir,
		MaxMemoryMB: maxMemoryMB,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()
	log.Println("BadgerDB storage initialized")

	settings := loadSettings()
	log.Printf("Settings: %.4f %s/kWh, %.2f kg CO2/kWh, %.0f kWh yearly goal, %.2f kWp",
		settings.CostPerKWh, settings.CurrencySymbol, settings.CO2Factor,
		settings.YearlyGoal, settings.SystemCapacity)

	readingsHandler := readings.NewHandler(store)
	trendsHandler := trends.NewHandler(store, settings)
	exportHandler := export.NewHandler(store)

	hub := readings.NewHub()
	readingsHandler.SetHub(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	log.Println("WebSocket hub started")

	wg.Add(1)
	go runBadgerGC(ctx, store, &wg)

	router := mux.NewRouter()

	// CORS middleware so the dashboard can call the API from another
	// origin during development.
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/readings", readingsHandler.HandleIngest).Methods("POST")
	api.HandleFunc("/readings", readingsHandler.HandleList).Methods("GET")
	api.HandleFunc("/stats", trendsHandler.HandleSummary).Methods("GET")
	api.HandleFunc("/stats/trends", trendsHandler.HandleTrends).Methods("GET")
	api.HandleFunc("/stats/records", trendsHandler.HandleRecords).Methods("GET")
	api.HandleFunc("/storage", readingsHandler.HandleStorageStats).Methods("GET")
	api.HandleFunc("/export", exportHandler.HandleExport).Methods("GET")
	api.HandleFunc("/import", exportHandler.HandleImport).Methods("POST")
	api.HandleFunc("/health", handleHealth).Methods("GET")
	api.HandleFunc("/ws", readingsHandler.HandleWebSocket(hub)).Methods("GET")

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	go func() {
		log.Printf("Server listening on http://localhost:%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown warning: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("All background tasks stopped cleanly")
	case <-time.After(5 * time.Second):
		log.Println("Some background tasks did not stop in time, forcing exit")
	}

	log.Println("Server exited cleanly")
}

// handleHealth returns service health status.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(startTime).String(),
	})
}

// loadSettings builds the tariff and goal settings from environment
// variables, falling back to the stock defaults.
func loadSettings() trends.Settings {
	return trends.Settings{
		CostPerKWh:     getEnvFloat("SOLMETER_COST_PER_KWH", config.DefaultCostPerKWh),
		CO2Factor:      getEnvFloat("SOLMETER_CO2_FACTOR", config.DefaultCO2Factor),
		YearlyGoal:     getEnvFloat("SOLMETER_YEARLY_GOAL", config.DefaultYearlyGoal),
		SystemCapacity: getEnvFloat("SOLMETER_SYSTEM_CAPACITY", config.DefaultSystemCapacity),
		CurrencySymbol: getEnvString("SOLMETER_CURRENCY", config.DefaultCurrencySymbol),
	}
}

// runBadgerGC runs value log garbage collection periodically to
// reclaim disk space.
func runBadgerGC(ctx context.Context, store *badger.Storage, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(config.BadgerGCInterval)
	defer ticker.Stop()

	log.Printf("BadgerDB GC scheduler started (runs every %v)", config.BadgerGCInterval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping BadgerDB GC scheduler")
			return
		case <-ticker.C:
			start := time.Now()
			if err := store.RunGC(0.5); err != nil {
				log.Printf("GC completed in %v (no rewrite needed)", time.Since(start).Round(time.Millisecond))
			} else {
				log.Printf("GC completed in %v (disk space reclaimed)", time.Since(start).Round(time.Millisecond))
			}
		}
	}
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s: %q, using default %d", key, val, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s: %q, using default %g", key, val, defaultValue)
	}
	return defaultValue
}
