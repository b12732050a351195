// Package apierror turns errors from any layer into the JSON error envelope
// returned by the HTTP API.
package apierror

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	CodeInvalidCredentials       = "AUTH.INVALID_CREDENTIALS"
	CodeEmailNotConfirmed        = "AUTH.EMAIL_NOT_CONFIRMED"
	CodeEmailAlreadyExists       = "AUTH.EMAIL_ALREADY_EXISTS"
	CodeEmailAlreadyConfirmed    = "AUTH.EMAIL_ALREADY_CONFIRMED"
	CodeInvalidToken             = "AUTH.INVALID_TOKEN"
	CodeConfirmationTokenExpired = "AUTH.CONFIRMATION_TOKEN_EXPIRED"
	CodeUnauthorized             = "AUTH.UNAUTHORIZED"
	CodeNewPasswordSameAsCurrent = "AUTH.NEW_PASSWORD_SAME_AS_CURRENT"
	CodeInvalidCurrentPassword   = "AUTH.INVALID_CURRENT_PASSWORD"
	CodeOAuthFailed              = "AUTH.OAUTH_FAILED"
	CodeInvalidAvatarType        = "USER.INVALID_AVATAR_TYPE"
	CodeValidationFailed         = "VALIDATION.FAILED"
	CodeMalformedBody            = "VALIDATION.MALFORMED_BODY"
	CodeRecordNotFound           = "DATABASE.RECORD_NOT_FOUND"
	CodeUniqueViolation          = "DATABASE.UNIQUE_VIOLATION"
	CodeRateLimited              = "SYSTEM.RATE_LIMITED"
	CodeServiceUnavailable       = "SYSTEM.SERVICE_UNAVAILABLE"
	CodeInternal                 = "SYSTEM.INTERNAL_ERROR"
)

type Meta struct {
	Language string   `json:"language"`
	Errors   []string `json:"errors,omitempty"`
}

// APIError is the body of every failed response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Meta    Meta   `json:"meta"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// FieldIssue is one failed validation rule on one request field.
type FieldIssue struct {
	Field string
	Tag   string
	Param string
}

// Classification is what Classify learns about an error before any text is
// attached to it.
type Classification struct {
	Code   string
	Status int
	Fields []FieldIssue
}

// Known reports whether the error mapped to something other than the
// generic internal error.
func (c Classification) Known() bool {
	return c.Code != CodeInternal
}

var sentinels = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrInvalidCredentials, CodeInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrEmailNotConfirmed, CodeEmailNotConfirmed, http.StatusUnauthorized},
	{domain.ErrEmailAlreadyExists, CodeEmailAlreadyExists, http.StatusConflict},
	{domain.ErrEmailAlreadyConfirmed, CodeEmailAlreadyConfirmed, http.StatusBadRequest},
	{domain.ErrInvalidToken, CodeInvalidToken, http.StatusNotFound},
	{domain.ErrConfirmationTokenExpired, CodeConfirmationTokenExpired, http.StatusUnauthorized},
	{domain.ErrUnauthorized, CodeUnauthorized, http.StatusUnauthorized},
	{domain.ErrRefreshTokenNotFound, CodeUnauthorized, http.StatusUnauthorized},
	{domain.ErrNewPasswordSameAsCurrent, CodeNewPasswordSameAsCurrent, http.StatusBadRequest},
	{domain.ErrInvalidCurrentPassword, CodeInvalidCurrentPassword, http.StatusBadRequest},
	{domain.ErrInvalidAvatarType, CodeInvalidAvatarType, http.StatusBadRequest},
	{domain.ErrBlankName, CodeValidationFailed, http.StatusBadRequest},
	{domain.ErrStorageUnavailable, CodeServiceUnavailable, http.StatusServiceUnavailable},
	{domain.ErrUserNotFound, CodeRecordNotFound, http.StatusNotFound},
	{domain.ErrConflict, CodeUniqueViolation, http.StatusConflict},
	{domain.ErrOAuthFailed, CodeOAuthFailed, http.StatusUnauthorized},
}

// Classify maps err to an error code and HTTP status. Anything it does not
// recognise is SYSTEM.INTERNAL_ERROR.
func Classify(err error) Classification {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Classification{Code: apiErr.Code, Status: apiErr.Status}
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return Classification{Code: s.code, Status: s.status}
		}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldIssue, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldIssue{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
		}
		return Classification{Code: CodeValidationFailed, Status: http.StatusBadRequest, Fields: fields}
	}

	if malformed(err) {
		return Classification{Code: CodeMalformedBody, Status: http.StatusBadRequest}
	}

	return Classification{Code: CodeInternal, Status: http.StatusInternalServerError}
}

func malformed(err error) bool {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &maxErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
