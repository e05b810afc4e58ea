package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"libris.org/internal/auth"
	"libris.org/internal/catalog"
	"libris.org/internal/migrate"
	"libris.org/internal/seed"
	"libris.org/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("LIBRIS_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "migrations", "Path to SQL migrations")
		force          = flag.Bool("force", false, "allow seeding outside LIBRIS_ENV=dev")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or LIBRIS_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status|seed]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	mgr := migrate.NewManager(store.DB(), *migrationsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "seed":
		// The seed wipes user accounts. Keep it away from anything that
		// is not explicitly a dev database.
		if os.Getenv("LIBRIS_ENV") != "dev" && !*force {
			log.Fatal("seed refused: set LIBRIS_ENV=dev or pass -force")
		}
		err = seed.Run(ctx, auth.NewPGStore(store.DB()), catalog.NewLibrary(store))
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}
