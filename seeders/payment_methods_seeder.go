package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedPaymentMethods(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - seeding 'tipos_pagamento'...")

	query := `
		INSERT INTO tipos_pagamento (name, kind, fee_bps, settlement_days)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, pm := range paymentMethodsData {
		if _, err := tx.Exec(ctx, query, pm.Name, pm.Kind, pm.FeeBps, pm.SettlementDays); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
