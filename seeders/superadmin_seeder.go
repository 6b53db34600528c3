package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fuel-pricing/pkg/config"
	"fuel-pricing/pkg/utils"
)

const (
	adminRole = "admin"
	// adminApprovalLevel lets the seeded admin finish any approval in one step.
	adminApprovalLevel = 3
)

// SeedSuperAdmin creates the admin account from SEED_ADMIN_* once. An
// existing account with the same email or login is left as it is, password
// included.
func SeedSuperAdmin(ctx context.Context, db *pgxpool.Pool, cfg *config.Config) error {
	log.Println("  - seeding admin user...")

	s := cfg.Seeder
	if s.AdminEmail == "" || s.AdminPassword == "" {
		log.Println("    SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set, skipping")
		return nil
	}

	var roleID uint64
	if err := db.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", adminRole).Scan(&roleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("role %q missing, seed roles first", adminRole)
		}
		return err
	}

	hash, err := utils.HashPassword(s.AdminPassword)
	if err != nil {
		return err
	}

	var userID uint64
	err = db.QueryRow(ctx, `
		INSERT INTO users (name, email, login, password, role_id, approval_level, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		"System Administrator", s.AdminEmail, s.AdminLogin, hash, roleID, adminApprovalLevel,
	).Scan(&userID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		log.Printf("    %s or %s already taken, leaving it untouched", s.AdminEmail, s.AdminLogin)
		return nil
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	}

	log.Printf("    admin #%d %s created (login: %s)", userID, s.AdminEmail, s.AdminLogin)
	return nil
}
