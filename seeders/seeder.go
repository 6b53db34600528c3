package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"fuel-pricing/pkg/config"
)

// SeedDictionaries fills the lookup tables that have no dependencies.
func SeedDictionaries(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("seeding dictionaries...")
	if err := seedPaymentMethods(ctx, db); err != nil {
		return fmt.Errorf("payment methods: %w", err)
	}
	log.Println("dictionaries done")
	return nil
}

// SeedRolesAndAdmin creates the roles, their permissions and the admin user.
func SeedRolesAndAdmin(ctx context.Context, db *pgxpool.Pool, cfg *config.Config) error {
	log.Println("seeding roles and admin...")
	if err := seedRoles(ctx, db); err != nil {
		return fmt.Errorf("roles: %w", err)
	}
	if err := SeedSuperAdmin(ctx, db, cfg); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	log.Println("roles and admin done")
	return nil
}
