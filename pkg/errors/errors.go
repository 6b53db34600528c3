package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	// JWT and tokens
	ErrInvalidSigningMethod = fmt.Errorf("invalid token signing method")
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrTokenExpired         = fmt.Errorf("token expired")
	ErrTokenNotYetValid     = fmt.Errorf("token not yet valid")
	ErrTokenRevoked         = fmt.Errorf("token revoked")
	ErrTokenIsNotRefresh    = fmt.Errorf("token is not a refresh token")
	ErrTokenIsNotAccess     = fmt.Errorf("token is not an access token")

	// Authorization
	ErrEmptyAuthHeader    = fmt.Errorf("authorization header is missing")
	ErrInvalidAuthHeader  = fmt.Errorf("invalid authorization header format")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAccountLocked      = fmt.Errorf("account temporarily locked")
	ErrAccountInactive    = fmt.Errorf("account is inactive")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrForbidden          = fmt.Errorf("access denied")

	// Context
	ErrUserIDNotFoundInContext = fmt.Errorf("user id not found in request context")
	ErrUserNotFound            = fmt.Errorf("user not found")

	// Workflow
	ErrInvalidStatusTransition = fmt.Errorf("status transition not allowed")
	ErrAlreadyApproved         = fmt.Errorf("approver already acted on this suggestion")
	ErrSelfApproval            = fmt.Errorf("requester cannot approve own suggestion")
	ErrApprovalLevelTooLow     = fmt.Errorf("approval level is not high enough")

	// Generic
	ErrNotFound       = fmt.Errorf("record not found")
	ErrBadRequest     = fmt.Errorf("bad request")
	ErrConflict       = fmt.Errorf("record already exists")
	ErrInternalServer = fmt.Errorf("internal server error")
)

// HttpError carries a user-facing message plus the underlying cause for logging.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, ctx map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: ctx}
}

func NewBadRequestError(message string) *HttpError {
	return &HttpError{Code: http.StatusBadRequest, Message: message}
}

type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return stderrors.As(err, &target)
}
