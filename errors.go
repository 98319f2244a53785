package authority

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes give API clients a stable machine-readable failure reason.
const (
	TextCodeAuthorityNotFound  = "AUTHORITY_NOT_FOUND"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodeRealmNotFound      = "REALM_NOT_FOUND"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenUnverified    = "TOKEN_UNVERIFIED"
	TextCodeMissingClientKey   = "MISSING_CLIENT_KEY"
	TextCodeMissingAuthHeader  = "MISSING_AUTH_HEADER"
	TextCodeMissingConfigField = "MISSING_CONFIG_FIELD"
	TextCodeUnsupported        = "UNSUPPORTED_OPERATION"
)

// ErrAuthorityNotFound is returned when no authority matches a client key.
var ErrAuthorityNotFound = goerrors.New("authority not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAuthorityNotFound)

// ErrIdentityNotFound is returned when a principal lookup comes up empty.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound)

// ErrRealmNotFound is returned when a realm lookup comes up empty.
var ErrRealmNotFound = goerrors.New("realm not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeRealmNotFound)

// ErrAuthenticationFailed is the single generic failure for credential
// checks. It deliberately does not say which stage failed.
var ErrAuthenticationFailed = goerrors.New("unable to authenticate", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrTokenExpired marks a token past its exp claim.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed marks a token that could not be parsed at all.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenUnverified is the single generic verification failure: no retained
// key validated the signature. It does not reveal which key or why.
var ErrTokenUnverified = goerrors.New("failed to validate token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenUnverified)

// ErrMissingClientKey marks a request without a usable client-key header.
var ErrMissingClientKey = goerrors.New("no client key header found", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingClientKey)

// ErrMissingAuthHeader marks a request without a bearer token.
var ErrMissingAuthHeader = goerrors.New("no authorization header found", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingAuthHeader)

// ErrRoleResolutionUnsupported is returned by role-rooted grant resolution,
// which the data model supports but no algorithm implements yet.
var ErrRoleResolutionUnsupported = goerrors.New("grant resolution rooted at a role is not supported", goerrors.CategoryOperation).
	WithTextCode(TextCodeUnsupported)

// missingConfigField builds the validation error for an absent or malformed
// strategy configuration field.
func missingConfigField(key string) *goerrors.Error {
	return goerrors.New(key+" field not found", goerrors.CategoryValidation).
		WithTextCode(TextCodeMissingConfigField)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
