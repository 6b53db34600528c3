package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"fuel-pricing/pkg/config"
	"fuel-pricing/pkg/database/postgresql"
	applogger "fuel-pricing/pkg/logger"
	"fuel-pricing/seeders"
)

func main() {
	runCore := flag.Bool("core", false, "seed dictionaries (payment methods)")
	runRoles := flag.Bool("roles", false, "seed roles, role permissions and the admin user")
	runAll := flag.Bool("all", false, "run every seeder")
	flag.Parse()

	if !*runCore && !*runRoles && !*runAll {
		log.Println("no seeder selected. Flags:")
		flag.PrintDefaults()
		log.Println("example: go run ./seeders/cmd/seed -all")
		return
	}

	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	ctx := context.Background()

	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()

	if *runAll || *runCore {
		if err := seeders.SeedDictionaries(ctx, dbPool); err != nil {
			logger.Fatal("dictionary seeding failed", zap.Error(err))
		}
	}
	if *runAll || *runRoles {
		if err := seeders.SeedRolesAndAdmin(ctx, dbPool, cfg); err != nil {
			logger.Fatal("role seeding failed", zap.Error(err))
		}
	}
	logger.Info("seeding finished")
}
