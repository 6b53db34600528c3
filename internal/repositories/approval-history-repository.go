package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fuel-pricing/internal/entities"
	"fuel-pricing/pkg/constants"
)

type ApprovalHistoryRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.ApprovalHistory) error
	FindBySuggestionID(ctx context.Context, suggestionID uint64) ([]entities.ApprovalHistory, error)
	HasApprovedSinceSubmit(ctx context.Context, tx pgx.Tx, suggestionID, actorID uint64) (bool, error)
	FindRecent(ctx context.Context, limit int) ([]entities.ApprovalHistory, error)
}

type ApprovalHistoryRepository struct {
	storage *pgxpool.Pool
}

func NewApprovalHistoryRepository(storage *pgxpool.Pool) ApprovalHistoryRepositoryInterface {
	return &ApprovalHistoryRepository{storage: storage}
}

func (r *ApprovalHistoryRepository) CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (suggestion_id, tx_id, action, from_status, to_status, level, actor_id, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		entry.SuggestionID, entry.TxID, entry.Action, entry.FromStatus, entry.ToStatus,
		entry.Level, entry.ActorID, entry.Comment,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert approval history: %w", err)
	}
	return nil
}

const historySelect = `
	SELECT h.id, h.suggestion_id, h.tx_id::text, h.action, h.from_status, h.to_status, h.level,
		h.actor_id, h.comment, h.created_at, COALESCE(u.name, '')
	FROM approval_history h
	LEFT JOIN users u ON u.id = h.actor_id`

func (r *ApprovalHistoryRepository) FindBySuggestionID(ctx context.Context, suggestionID uint64) ([]entities.ApprovalHistory, error) {
	return r.query(ctx, historySelect+` WHERE h.suggestion_id = $1 ORDER BY h.created_at ASC, h.id ASC`, suggestionID)
}

func (r *ApprovalHistoryRepository) FindRecent(ctx context.Context, limit int) ([]entities.ApprovalHistory, error) {
	return r.query(ctx, historySelect+` ORDER BY h.created_at DESC, h.id DESC LIMIT $1`, limit)
}

func (r *ApprovalHistoryRepository) query(ctx context.Context, query string, args ...interface{}) ([]entities.ApprovalHistory, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval history: %w", err)
	}
	defer rows.Close()

	items := make([]entities.ApprovalHistory, 0)
	for rows.Next() {
		var h entities.ApprovalHistory
		if err := rows.Scan(
			&h.ID, &h.SuggestionID, &h.TxID, &h.Action, &h.FromStatus, &h.ToStatus, &h.Level,
			&h.ActorID, &h.Comment, &h.CreatedAt, &h.ActorName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval history: %w", err)
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

// HasApprovedSinceSubmit looks only at approvals after the most recent submit,
// so a withdrawn and resubmitted suggestion can be approved again by the same person.
func (r *ApprovalHistoryRepository) HasApprovedSinceSubmit(ctx context.Context, tx pgx.Tx, suggestionID, actorID uint64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM approval_history h
			WHERE h.suggestion_id = $1 AND h.actor_id = $2 AND h.action = $3
			  AND h.id > COALESCE((
				SELECT MAX(s.id) FROM approval_history s
				WHERE s.suggestion_id = $1 AND s.action = $4), 0)
		)`
	var exists bool
	err := pick(r.storage, tx).QueryRow(ctx, query,
		suggestionID, actorID, constants.HistoryActionApprove, constants.HistoryActionSubmit,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check previous approvals: %w", err)
	}
	return exists, nil
}
