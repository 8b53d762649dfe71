package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeRoleMissing  ErrorCode = "ROLE_MISSING"

	// Validation
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired     ErrorCode = "MISSING_REQUIRED"
	ErrCodeInvalidDuration     ErrorCode = "INVALID_DURATION"
	ErrCodeInvalidDocumentType ErrorCode = "INVALID_DOCUMENT_TYPE"

	// Resource
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeConflict      ErrorCode = "CONFLICT"

	// Guest sharing
	ErrCodeTokenNotFound        ErrorCode = "TOKEN_NOT_FOUND"
	ErrCodeTokenExpired         ErrorCode = "TOKEN_EXPIRED"
	ErrCodeNotTokenOwner        ErrorCode = "NOT_TOKEN_OWNER"
	ErrCodeDownloadNotPermitted ErrorCode = "DOWNLOAD_NOT_PERMITTED"
	ErrCodeChatNotPermitted     ErrorCode = "CHAT_NOT_PERMITTED"

	// Admin flows
	ErrCodeProfessionalNotFound ErrorCode = "PROFESSIONAL_NOT_FOUND"
	ErrCodePatientNotFound      ErrorCode = "PATIENT_NOT_FOUND"
	ErrCodeClinicNotFound       ErrorCode = "CLINIC_NOT_FOUND"
	ErrCodeClinicExists         ErrorCode = "CLINIC_EXISTS"
	ErrCodeAlreadyAssociated    ErrorCode = "ALREADY_ASSOCIATED"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// AI gateway
	ErrCodeAIRateLimited    ErrorCode = "AI_RATE_LIMITED"
	ErrCodeAIQuotaExceeded  ErrorCode = "AI_QUOTA_EXCEEDED"
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeStorage  ErrorCode = "STORAGE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func RoleMissing(role string) *AppError {
	return New(ErrCodeRoleMissing, fmt.Sprintf("Required role missing: %s", role))
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource))
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field))
}

func InvalidDuration(minutes int) *AppError {
	return New(ErrCodeInvalidDuration,
		fmt.Sprintf("Invalid duration: %d minutes (allowed: 5, 15, 30, 60, 180)", minutes))
}

func InvalidDocumentType(docType string) *AppError {
	return New(ErrCodeInvalidDocumentType, fmt.Sprintf("Invalid document type: %s", docType))
}

func TokenNotFound() *AppError {
	return New(ErrCodeTokenNotFound, "Token not found or revoked")
}

func TokenExpired() *AppError {
	return New(ErrCodeTokenExpired, "Token has expired")
}

func NotTokenOwner() *AppError {
	return New(ErrCodeNotTokenOwner, "Token does not belong to the caller")
}

func DownloadNotPermitted() *AppError {
	return New(ErrCodeDownloadNotPermitted, "Download not permitted")
}

func ChatNotPermitted() *AppError {
	return New(ErrCodeChatNotPermitted, "Chat not permitted")
}

func ProfessionalNotFound() *AppError {
	return New(ErrCodeProfessionalNotFound, "Professional not found")
}

func PatientNotFound() *AppError {
	return New(ErrCodePatientNotFound, "Patient not found")
}

func ClinicNotFound() *AppError {
	return New(ErrCodeClinicNotFound, "Clinic not found")
}

func ClinicExists(nit string) *AppError {
	return New(ErrCodeClinicExists, fmt.Sprintf("A clinic with NIT %s already exists", nit))
}

func AlreadyAssociated() *AppError {
	return New(ErrCodeAlreadyAssociated, "Association already exists")
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func AIRateLimited() *AppError {
	return New(ErrCodeAIRateLimited, "AI gateway rate limit exceeded")
}

func AIQuotaExceeded() *AppError {
	return New(ErrCodeAIQuotaExceeded, "AI gateway quota exceeded")
}

func ExtractionFailed(cause error) *AppError {
	return Wrap(ErrCodeExtractionFailed, "Failed to extract structured data", cause)
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func Storage(cause error) *AppError {
	return Wrap(ErrCodeStorage, "Storage error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
