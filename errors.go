package auth

import (
	"fmt"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenInvalid       = "TOKEN_INVALID"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeNoPrincipal        = "NO_PRINCIPAL"
	TextCodeInsufficientRole   = "INSUFFICIENT_ROLE"
	TextCodeUsernameExists     = "USERNAME_EXISTS"
	TextCodeEmailExists        = "EMAIL_EXISTS"
	TextCodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	TextCodeMalformedPayload   = "MALFORMED_PAYLOAD"
	TextCodeRoleNotFound       = "ROLE_NOT_FOUND"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
)

const (
	// MessageNoAuthentication is shared by every "who are you" failure
	MessageNoAuthentication = "An Authentication object was not found in the SecurityContext"
	// MessageAccessDenied is returned when the caller lacks the required role
	MessageAccessDenied = "Access Denied"
	// MessageInvalidCredentials does not reveal whether the identifier exists
	MessageInvalidCredentials = "Invalid username/email or password"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrRoleNotFound a role name is missing from the roles table
var ErrRoleNotFound = errors.New("role not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRoleNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials covers both unknown identifiers and wrong passwords
var ErrInvalidCredentials = errors.New(MessageInvalidCredentials, errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrTokenInvalid bad signature, malformed token, or unsupported algorithm
var ErrTokenInvalid = errors.New(MessageNoAuthentication, errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired signature verified but the token is past its expiry.
// It renders like ErrTokenInvalid; only the text code tells them apart.
var ErrTokenExpired = errors.New(MessageNoAuthentication, errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeForbidden)

// ErrNoPrincipal a role guarded route was reached without an identity
var ErrNoPrincipal = errors.New(MessageNoAuthentication, errors.CategoryAuth).
	WithTextCode(TextCodeNoPrincipal).
	WithCode(errors.CodeForbidden)

// ErrInsufficientRole the identity does not hold the required role
var ErrInsufficientRole = errors.New(MessageAccessDenied, errors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(errors.CodeUnauthorized)

// ErrUsernameExists registration with a taken username
var ErrUsernameExists = errors.New("Username already exists!", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameExists).
	WithCode(errors.CodeBadRequest)

// ErrEmailExists registration with a taken email
var ErrEmailExists = errors.New("Email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeBadRequest)

// ErrMalformedPayload request body could not be decoded
var ErrMalformedPayload = errors.New("Failed to parse request body", errors.CategoryBadInput).
	WithTextCode(TextCodeMalformedPayload).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString empty passwords are never hashed
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryBadInput).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(errors.CodeBadRequest)

// NewResourceNotFound builds the 404 error for a missing record
func NewResourceNotFound(resource, field string, value any) *errors.Error {
	msg := fmt.Sprintf("%s not found with %s : '%v'", resource, field, value)
	return errors.New(msg, errors.CategoryNotFound).
		WithTextCode(TextCodeResourceNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{
			"resource": resource,
			"field":    field,
			"value":    fmt.Sprint(value),
		})
}

// HasTextCode reports whether err is a rich error carrying code
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired)
}

// IsTokenInvalidError will check for forged or malformed tokens
func IsTokenInvalidError(err error) bool {
	return HasTextCode(err, TextCodeTokenInvalid)
}
