package pkg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var ExposeErrorDetails = false

func init() {
	if gin.DebugMode == gin.Mode() || gin.TestMode == gin.Mode() {
		ExposeErrorDetails = true
	}
}

// Reusable errors
var (
	SqlError               = errors.New("sql error")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamMalformed   = errors.New("malformed upstream response")
	ErrRecordNotFound      = errors.New("record not found")
)

// ErrorCode defines a standardized error code
type ErrorCode struct {
	Code      string
	Status    int
	Message   string // default message
	Retryable bool
}

var (
	// Generic app
	ErrInvalidInputCode      = ErrorCode{Code: "APP_INVALID_INPUT", Status: http.StatusBadRequest, Message: "invalid input"}
	ErrValidationFailedCode  = ErrorCode{Code: "APP_VALIDATION_FAILED", Status: http.StatusBadRequest, Message: "validation failed"}
	ErrServerCode            = ErrorCode{Code: "APP_INTERNAL", Status: http.StatusInternalServerError, Message: "internal server error"}
	ErrRecordNotFoundCode    = ErrorCode{Code: "APP_NOT_FOUND", Status: http.StatusNotFound, Message: "record not found"}
	ErrRateLimitExceededCode = ErrorCode{Code: "RATE_LIMITED", Status: http.StatusTooManyRequests, Message: "too many requests", Retryable: true}

	// Transient dependencies
	ErrStorageUnavailableCode  = ErrorCode{Code: "STORAGE_UNAVAILABLE", Status: http.StatusServiceUnavailable, Message: "order storage is temporarily unavailable, please retry", Retryable: true}
	ErrUpstreamUnavailableCode = ErrorCode{Code: "UPSTREAM_UNAVAILABLE", Status: http.StatusServiceUnavailable, Message: "yield source is temporarily unavailable, please retry", Retryable: true}
	ErrUpstreamMalformedCode   = ErrorCode{Code: "UPSTREAM_MALFORMED", Status: http.StatusBadGateway, Message: "yield source returned an unreadable response"}

	// SQL layer
	ErrSQLUnknownCode   = ErrorCode{Code: "SQL_UNKNOWN", Status: http.StatusInternalServerError, Message: "sql error"}
	ErrSQLDuplicateCode = ErrorCode{Code: "SQL_DUPLICATE", Status: http.StatusConflict, Message: "duplicate record"}
	ErrSQLInvalidInput  = ErrorCode{Code: "SQL_INVALID_INPUT", Status: http.StatusBadRequest, Message: "invalid input"}
)

// FieldError describes a single client-correctable problem with one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Code    ErrorCode
	Message string // public-facing message
	Cause   error  // internal cause (wrapped)
	Fields  []FieldError
}

func (e AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}
func (e AppError) Unwrap() error { return e.Cause }

func NewAppError(code ErrorCode, msg string, cause error) error {
	return AppError{Code: code, Message: msg, Cause: cause}
}

// NewValidationError builds a validation AppError whose message is the first field error.
func NewValidationError(fields []FieldError) error {
	msg := ErrValidationFailedCode.Message
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return AppError{Code: ErrValidationFailedCode, Message: msg, Fields: fields}
}

// IsRetryable reports whether err is a transient failure that is safe to retry for idempotent reads.
func IsRetryable(err error) bool {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code.Retryable
	}
	return false
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr AppError
	return errors.As(err, &appErr) && appErr.Code.Code == code.Code
}

// ErrorResponse defines the standardized error response format
type ErrorResponse struct {
	Status  int          `json:"-"`
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Fields  []FieldError `json:"fields,omitempty"`
	Details string       `json:"details,omitempty"`
}

// ToErrorResponse converts an error into an ErrorResponse, logging details and optionally exposing error messages.
// If the error is not an AppError, it is converted to a generic 500 error.
func ToErrorResponse(logger *zap.Logger, traceID string, err error) ErrorResponse {
	var appErr AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{
			Status: appErr.Code.Status,
			Code:   appErr.Code.Code,
			Error:  appErr.Message,
			Fields: appErr.Fields,
		}
		if appErr.Code.Status >= http.StatusInternalServerError {
			logger.Error("application_error", zap.String(TraceId, traceID), zap.String("code", appErr.Code.Code), zap.Error(err))
		} else {
			logger.Info("request_rejected", zap.String(TraceId, traceID), zap.String("code", appErr.Code.Code), zap.String("reason", appErr.Message))
		}
		if ExposeErrorDetails && appErr.Cause != nil {
			resp.Details = err.Error()
		}
		return resp
	}
	// Unknown error : 500
	resp := ErrorResponse{
		Status: ErrServerCode.Status,
		Code:   ErrServerCode.Code,
		Error:  ErrServerCode.Message,
	}
	logger.Error("application_error", zap.String(TraceId, traceID), zap.Error(err))
	if ExposeErrorDetails {
		resp.Details = err.Error()
	}
	return resp
}

// HandleSQLError maps pg errors -> AppError with proper codes/status
func HandleSQLError(traceId string, logger *zap.Logger, err error) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrRecordNotFound) {
		logger.Warn("sql_error_no_records_found", zap.String(TraceId, traceId))
		return NewAppError(ErrRecordNotFoundCode, "no records found", err)
	}
	if isConnectionError(err) {
		logger.Error("sql_error_storage_unavailable", zap.String(TraceId, traceId), zap.Error(err))
		return NewAppError(ErrStorageUnavailableCode, ErrStorageUnavailableCode.Message, errors.Join(ErrStorageUnavailable, err))
	}
	if !errors.As(err, &pgErr) {
		logger.Error("sql_error_unknown", zap.String(TraceId, traceId), zap.Error(err))
		return NewAppError(ErrSQLUnknownCode, "sql error", err)
	}

	// Log rich pg error context
	logger.Error("sql_error",
		zap.String(TraceId, traceId),
		zap.String("code", pgErr.Code),
		zap.String("message", pgErr.Message),
		zap.String("detail", pgErr.Detail),
		zap.String("table", pgErr.TableName),
		zap.String("column", pgErr.ColumnName),
		zap.String("constraint", pgErr.ConstraintName),
	)

	switch pgErr.Code {
	case "23505": // unique_violation
		return NewAppError(ErrSQLDuplicateCode, "duplicate value violates unique constraint", SqlError)
	case "23514": // check_violation
		return NewAppError(ErrSQLInvalidInput, "value violates a check constraint", SqlError)
	case "22001": // string_data_right_truncation
		return NewAppError(ErrSQLInvalidInput, "value too long for column", SqlError)
	case "22003": // numeric_value_out_of_range
		return NewAppError(ErrSQLInvalidInput, "numeric value out of range", SqlError)
	case "57P01", "57P03", "53300": // admin_shutdown, cannot_connect_now, too_many_connections
		return NewAppError(ErrStorageUnavailableCode, ErrStorageUnavailableCode.Message, errors.Join(ErrStorageUnavailable, err))
	default:
		return NewAppError(ErrSQLUnknownCode, "sql error", SqlError)
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.Timeout(err)
}
