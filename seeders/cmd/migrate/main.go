package main

import (
	"context"
	"database/sql"
	"flag"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"fuel-pricing/migrations"
	"fuel-pricing/pkg/config"
	applogger "fuel-pricing/pkg/logger"
)

// Usage: go run ./seeders/cmd/migrate [up|down|status|redo|reset|version] [args]
func main() {
	flag.Parse()
	command := "up"
	args := flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	defer func() { _ = logger.Sync() }()

	db, err := sql.Open("pgx", cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Run(context.Background(), db, command, args...); err != nil {
		logger.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
	logger.Info("migrations applied", zap.String("command", command))
}
