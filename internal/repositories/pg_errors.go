package repositories

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "fuel-pricing/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translatePgError turns constraint violations into user-facing errors.
// uniqueMessages maps a constraint name fragment to the message for its unique violation.
func translatePgError(err error, uniqueMessages map[string]string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		for fragment, msg := range uniqueMessages {
			if strings.Contains(pgErr.ConstraintName, fragment) {
				return apperrors.NewHttpError(http.StatusConflict, msg, apperrors.ErrConflict, nil)
			}
		}
		return apperrors.NewHttpError(http.StatusConflict, "record already exists", apperrors.ErrConflict, nil)
	case pgForeignKeyViolation:
		return apperrors.NewHttpError(http.StatusBadRequest, "referenced record does not exist or is still in use", err, nil)
	case pgCheckViolation:
		return apperrors.NewHttpError(http.StatusBadRequest, "value out of allowed range", err, nil)
	}
	return err
}
