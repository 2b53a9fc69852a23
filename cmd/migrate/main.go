// migrate applies the embedded Postgres schema. It holds an advisory lock so
// two migrators never run against the same database at once.
//
// Usage: go run ./cmd/migrate [-print]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"retail-suite/internal/db"
	"retail-suite/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const migrationLockID = 7462839

func main() {
	_ = godotenv.Load()
	printOnly := flag.Bool("print", false, "print the schema instead of applying it")
	flag.Parse()

	if *printOnly {
		fmt.Print(postgres.Schema())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	log.Println("[CONNECT] success")

	conn := acquireLock(ctx, pool)
	defer conn.Release()

	if err := postgres.New(pool).EnsureSchema(ctx); err != nil {
		conn.Release()
		pool.Close()
		log.Fatalf("[APPLY] %v", err)
	}
	log.Println("[DONE] schema is up to date")
}

func acquireLock(ctx context.Context, pool *pgxpool.Pool) *pgxpool.Conn {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatalf("[LOCK] failed to acquire connection for lock: %v", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockID).Scan(&locked); err != nil {
		log.Fatalf("[LOCK] failed to query advisory lock: %v", err)
	}
	if !locked {
		log.Fatalf("[LOCK] failed: another migrator is currently running")
	}

	log.Println("[LOCK] success")
	return conn
}
