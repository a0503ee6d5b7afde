package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AccountErrorBadInput          = "ACCOUNT_BAD_INPUT"
	AccountErrorNotFound          = "ACCOUNT_NOT_FOUND"
	AccountErrorEncodingFailed    = "ACCOUNT_ENCODING_FAILED"
	AccountErrorVaultFailure      = "ACCOUNT_VAULT_FAILURE"
	AccountErrorStoreFailure      = "ACCOUNT_STORE_FAILURE"
	AccountErrorNegotiationFailed = "ACCOUNT_NEGOTIATION_FAILED"
	AccountErrorSingleMode        = "ACCOUNT_SINGLE_MODE_CONFLICT"
	AccountErrorInternal          = "ACCOUNT_INTERNAL_ERROR"
)

// NewBadInputError reports a caller mistake such as an empty identifier.
func NewBadInputError(message string) *goerrors.Error {
	return newAccountError(message, goerrors.CategoryBadInput, AccountErrorBadInput)
}

// NewNotFoundError reports a missing account for operations that require one.
func NewNotFoundError(message string) *goerrors.Error {
	return newAccountError(message, goerrors.CategoryNotFound, AccountErrorNotFound)
}

// NewEncodingError reports a value the codec could not encode or decode.
func NewEncodingError(err error, message string) *goerrors.Error {
	return wrapAccountError(err, goerrors.CategoryBadInput, message, AccountErrorEncodingFailed)
}

// NewVaultError reports a secure vault backend failure.
func NewVaultError(err error, message string) *goerrors.Error {
	return wrapAccountError(err, goerrors.CategoryExternal, message, AccountErrorVaultFailure)
}

// NewStoreError reports a key-value substrate failure.
func NewStoreError(err error, message string) *goerrors.Error {
	return wrapAccountError(err, goerrors.CategoryExternal, message, AccountErrorStoreFailure)
}

// NewNegotiationError reports a failed OAuth negotiation step.
func NewNegotiationError(err error, message string) *goerrors.Error {
	return wrapAccountError(err, goerrors.CategoryExternal, message, AccountErrorNegotiationFailed)
}

func IsEncodingFailure(err error) bool {
	return hasTextCode(err, AccountErrorEncodingFailed)
}

func IsVaultFailure(err error) bool {
	return hasTextCode(err, AccountErrorVaultFailure)
}

func IsStoreFailure(err error) bool {
	return hasTextCode(err, AccountErrorStoreFailure)
}

func IsNegotiationFailure(err error) bool {
	return hasTextCode(err, AccountErrorNegotiationFailed)
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func accountErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAccountErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "single") && strings.Contains(msg, "mode"):
		return newAccountError(err.Error(), goerrors.CategoryConflict, AccountErrorSingleMode)
	case strings.Contains(msg, "vault"), strings.Contains(msg, "keyring"):
		return wrapAccountError(err, goerrors.CategoryExternal, err.Error(), AccountErrorVaultFailure)
	case strings.Contains(msg, "encode"), strings.Contains(msg, "decode"), strings.Contains(msg, "cbor"):
		return wrapAccountError(err, goerrors.CategoryBadInput, err.Error(), AccountErrorEncodingFailed)
	case strings.Contains(msg, "not found"):
		return newAccountError(err.Error(), goerrors.CategoryNotFound, AccountErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "unsupported"):
		return newAccountError(err.Error(), goerrors.CategoryBadInput, AccountErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAccountErrorEnvelope(mapped)
}

func newAccountError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAccountErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func wrapAccountError(err error, category goerrors.Category, message string, textCode string) *goerrors.Error {
	if err == nil {
		return newAccountError(message, category, textCode)
	}
	return ensureAccountErrorEnvelope(
		goerrors.Wrap(err, category, message).
			WithTextCode(textCode),
	)
}

func ensureAccountErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = accountHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAccountTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAccountTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AccountErrorBadInput
	case goerrors.CategoryNotFound:
		return AccountErrorNotFound
	case goerrors.CategoryConflict:
		return AccountErrorSingleMode
	case goerrors.CategoryExternal:
		return AccountErrorStoreFailure
	default:
		return AccountErrorInternal
	}
}

func accountHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
