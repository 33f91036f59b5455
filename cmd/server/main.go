// Command server runs the inventory service: HTTP API, change-feed
// WebSocket push, and the backing store.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Voxel07/inventory/cmd/server/handlers"
	"github.com/Voxel07/inventory/internal/cache"
	"github.com/Voxel07/inventory/internal/feed"
	"github.com/Voxel07/inventory/internal/inventory"
	"github.com/Voxel07/inventory/internal/logging"
	"github.com/Voxel07/inventory/internal/store"
)

const (
	defaultHTTPAddr = ":8080"
	defaultDataDir  = "./data"
)

// envOr returns the environment variable or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logging.Init(os.Stdout, logrus.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store: embedded SQLite by default, hosted MySQL when a DSN is set.
	// The two backends are interchangeable above this line.
	var (
		db  *store.DB
		err error
	)
	if dsn := os.Getenv("INVENTORY_MYSQL_DSN"); dsn != "" {
		db, err = store.OpenMySQL(dsn)
	} else {
		db, err = store.Open(envOr("INVENTORY_DATA_DIR", defaultDataDir))
	}
	if err != nil {
		logging.Error("failed to open store", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.NewMigrator(db).Up(); err != nil {
		logging.Error("failed to migrate store", err)
		os.Exit(1)
	}
	logging.Info("store ready", map[string]interface{}{"dialect": string(db.Dialect)})

	hub := feed.NewHub()
	defer hub.Close()

	repo := store.NewRepository(db, hub)
	defer repo.Close()

	// Latest-stock cache is optional; without Redis every lookup goes
	// to the store.
	var latestCache cache.LatestStockCache
	if addr := os.Getenv("INVENTORY_REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logging.Warn("redis unreachable, running without latest-stock cache", map[string]interface{}{
				"addr": addr, "error": err.Error(),
			})
		} else {
			latestCache = cache.NewRedisCache(rdb)
			defer rdb.Close()
			logging.Info("latest-stock cache enabled", map[string]interface{}{"addr": addr})
		}
	}

	sync := inventory.NewSynchronizer(repo, latestCache)
	entry := inventory.NewEntryService(repo, latestCache)
	detail := inventory.NewDetailService(repo)

	// Keep the list snapshot live for the lifetime of the process.
	go sync.Run(ctx, hub)

	wsHub, stopWS := NewWSHub(hub)
	defer stopWS()

	itemsHandler := handlers.NewItemsHandler(sync, entry, detail)
	detailHandler := handlers.NewDetailHandler(detail)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/items/{id}", detailHandler.Get)
	mux.HandleFunc("PUT /api/items/{id}", itemsHandler.Update)
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)
	mux.HandleFunc("/ws", HandleWebSocket(wsHub))

	httpServer := &http.Server{
		Addr:    envOr("INVENTORY_HTTP_ADDR", defaultHTTPAddr),
		Handler: mux,
	}

	go func() {
		logging.Info("http server listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("http server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	// Cancel tears down the synchronizer's feed subscription.
	cancel()
	logging.Info("server stopped")
}
