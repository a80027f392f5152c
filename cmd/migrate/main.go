// Command migrate runs goose database migrations outside the API process.
// Usage: migrate [-dir migrations] [up|down|status|version]
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"workshop_backend/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	dir := flag.String("dir", "migrations", "directory containing migration files")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if err := run(context.Background(), *dir, command); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dir, command string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	conn, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		return goose.UpContext(ctx, conn, dir)
	case "down":
		return goose.DownContext(ctx, conn, dir)
	case "status":
		return goose.StatusContext(ctx, conn, dir)
	case "version":
		return goose.VersionContext(ctx, conn, dir)
	default:
		return fmt.Errorf("unknown command %q (expected up, down, status or version)", command)
	}
}
