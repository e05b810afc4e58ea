package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"libris.org/internal/auth"
	"libris.org/internal/catalog"
	"libris.org/internal/httpapi"
	"libris.org/internal/obs"
	"libris.org/internal/seed"
	"libris.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "none"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	storeKind := flag.String("store", "postgres", "backing store: postgres or memory")
	flag.Parse()

	addr := os.Getenv("LIBRIS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var (
		library  catalog.Service
		accounts auth.Store
		db       *sql.DB
	)
	switch *storeKind {
	case "postgres":
		dsn := os.Getenv("LIBRIS_PG_DSN")
		if dsn == "" {
			log.Fatal("missing DSN: set LIBRIS_PG_DSN or run with -store=memory")
		}
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = pgStore.DB()
		library = catalog.NewLibrary(pgStore)
		accounts = auth.NewPGStore(db)
	case "memory":
		// In-process stores for local development; accounts come from the
		// dev fixture so the API is usable immediately.
		library = catalog.NewLibrary(catalog.NewInMemory())
		accounts = auth.NewInMemory()
		if err := seed.Run(context.Background(), accounts, library); err != nil {
			log.Fatalf("seed memory store: %v", err)
		}
	default:
		log.Fatalf("unknown store %q", *storeKind)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, library, auth.NewGate(accounts))

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting libris-api %s on %s (store=%s)", version, srv.Addr, *storeKind)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
