package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// seedRoles upserts every preset role with its description and grants its
// permissions. Grants are add-only: permissions given by hand in a running
// system are never removed here.
func seedRoles(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - seeding 'roles' and 'role_permissions'...")

	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		for _, r := range rolesData {
			var roleID uint64
			err := tx.QueryRow(ctx, `
				INSERT INTO roles (name, description) VALUES ($1, $2)
				ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
				RETURNING id`, r.Name, r.Description,
			).Scan(&roleID)
			if err != nil {
				return fmt.Errorf("role %s: %w", r.Name, err)
			}
			if err := grantPermissions(ctx, tx, roleID, r.Permissions); err != nil {
				return fmt.Errorf("role %s: %w", r.Name, err)
			}
			log.Printf("    %s: %d permissions", r.Name, len(r.Permissions))
		}
		return nil
	})
}

func grantPermissions(ctx context.Context, tx pgx.Tx, roleID uint64, permissions []string) error {
	if len(permissions) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING`, roleID, permissions,
	)
	return err
}
