package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boothbabe/backend/internal/catalog"
	"boothbabe/backend/internal/config"
	"boothbabe/backend/internal/httpapi"
	"boothbabe/backend/internal/ledger"
	"boothbabe/backend/internal/metrics"
	"boothbabe/backend/internal/order"
	"boothbabe/backend/internal/service"
	"boothbabe/backend/internal/sheets"
	"boothbabe/backend/internal/storage"
	filestore "boothbabe/backend/internal/storage/file"
	"boothbabe/backend/internal/storage/memory"
	pgstore "boothbabe/backend/internal/storage/postgres"
	redisstore "boothbabe/backend/internal/storage/redis"
	sqlitestore "boothbabe/backend/internal/storage/sqlite"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, closers := openBackend(ctx, cfg)

	cat := catalog.New(ctx, backend)
	led := ledger.New(ctx, backend)
	orders := order.New(ctx, backend)

	// Shared backends (redis) publish key changes; reload the store that owns
	// the changed key so every instance sees catalog and ledger edits.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if watcher, ok := backend.(storage.Watcher); ok {
		go func() {
			err := watcher.Watch(watchCtx, func(key string) {
				reloadForKey(watchCtx, key, cat, led, orders)
			})
			if err != nil && watchCtx.Err() == nil {
				log.Printf("[main] WARN: storage watch stopped: %v", err)
			}
		}()
	}

	m := metrics.New()
	sync := sheets.New(cfg.SheetsEndpoint, cfg.SheetsSecret, time.Duration(cfg.SheetsTimeoutSecond)*time.Second)
	if sync.Enabled() {
		log.Println("sheets sync: enabled")
	} else {
		log.Println("sheets sync: disabled")
	}

	svc := service.New(cat, led, orders, sync, m)
	api := httpapi.New(svc, cat, led, orders, m.Handler(), cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("booth backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	stopWatch()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// openBackend picks the storage backend from config, preferring shared
// backends over local ones: postgres, then redis, then sqlite, then the
// per-key file store. STORAGE=memory forces the in-memory backend for
// throwaway runs.
func openBackend(ctx context.Context, cfg config.Config) (storage.Backend, []func() error) {
	closers := make([]func() error, 0, 1)

	if os.Getenv("STORAGE") == "memory" {
		log.Println("storage: in-memory")
		return memory.New(), closers
	}

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with a local fallback", err)
		}
		log.Println("storage: postgres")
		return pg, append(closers, pg.Close)
	}

	if cfg.RedisAddr != "" {
		rd := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rd.Ping(ctx); err != nil {
			log.Fatalf("redis unavailable (%v) and REDIS_ADDR is set; refusing to start with a local fallback", err)
		}
		log.Println("storage: redis")
		return rd, append(closers, rd.Close)
	}

	if cfg.SQLitePath != "" {
		db, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite open failed: %v", err)
		}
		log.Println("storage: sqlite")
		return db, append(closers, db.Close)
	}

	fs, err := filestore.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("data dir unavailable: %v", err)
	}
	log.Printf("storage: files under %s", cfg.DataDir)
	return fs, closers
}

func reloadForKey(ctx context.Context, key string, cat *catalog.Store, led *ledger.Store, orders *order.Buffer) {
	switch key {
	case storage.KeyItemTypes, storage.KeyFabrics, storage.KeySeries:
		cat.Reload(ctx)
	case storage.KeySales, storage.KeyEventName, storage.KeyEventStart:
		led.Reload(ctx)
	case storage.KeyOrderLines:
		orders.Reload(ctx)
	}
}
