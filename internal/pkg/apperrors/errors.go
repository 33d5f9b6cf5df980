package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Karma errors
var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrTaskInactive          = errors.New("task is not active")
	ErrKarmaAlreadyAppraised = errors.New("karma activity has already been appraised")
	ErrWalletNotFound        = errors.New("wallet not found")
)

// Learning circle errors
var (
	ErrCircleNotFound        = errors.New("learning circle not found")
	ErrCircleFull            = errors.New("learning circle is full")
	ErrAlreadyCircleMember   = errors.New("user is already a member of this circle")
	ErrNotCircleMember       = errors.New("user is not a member of this circle")
	ErrNotCircleLead         = errors.New("only the circle lead can do this")
	ErrMeetingNotFound       = errors.New("meeting not found")
	ErrMeetingInPast         = errors.New("meeting time must be in the future")
	ErrMeetingSlotTaken      = errors.New("circle already has a meeting on this day")
	ErrWeeklyMeetingLimit    = errors.New("circle has reached its weekly meeting limit")
	ErrMeetingNotToday       = errors.New("attendance is only open on the meeting day")
	ErrMeetingNotStarted     = errors.New("meeting has not happened yet")
	ErrReportAlreadySubmited = errors.New("meeting report already submitted")
)

// Voucher errors
var (
	ErrVoucherNotFound = errors.New("voucher not found")
	ErrVoucherClaimed  = errors.New("voucher already claimed")
)

// Integration errors
var (
	ErrKKEMPayloadInvalid    = errors.New("invalid KKEM payload")
	ErrIntegrationNotLinked  = errors.New("integration is not linked")
	ErrIntegrationValueTaken = errors.New("external account is linked to another user")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
