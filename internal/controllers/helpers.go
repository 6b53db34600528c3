package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/utils"
)

var errRefreshTokenRequired = apperrors.NewHttpError(http.StatusBadRequest, "refresh_token is required", apperrors.ErrBadRequest, nil)

// bindAndValidate decodes the request into payload and runs the registered validator.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "malformed request body", err, nil)
	}
	return ctx.Validate(payload)
}

// idsFromQuery reads a comma separated id list such as ?station_ids=1,2,3.
func idsFromQuery(ctx echo.Context, name string) ([]uint64, error) {
	ids, err := utils.ParseUint64List(ctx.QueryParam(name))
	if err != nil {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "invalid "+name, err, map[string]interface{}{"param": name})
	}
	return ids, nil
}
