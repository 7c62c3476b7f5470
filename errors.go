package devconnect

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodes identify error conditions across process boundaries without
// relying on message strings.
const (
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeTokenBadSignature = "TOKEN_BAD_SIGNATURE"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts   = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeNotOwner          = "NOT_RESOURCE_OWNER"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// ErrTokenMalformed is returned when a token cannot be parsed at all.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenBadSignature is returned when the payload parses but the
// signature does not verify against the process signing key.
var ErrTokenBadSignature = goerrors.New("token signature mismatch", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenBadSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a well formed, correctly signed token
// is past its expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the uniform invalid-credentials error.
// We deliberately do not distinguish unknown identifiers from wrong
// passwords.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned once an identifier exceeds the
// login attempt budget inside the cooldown window.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(goerrors.CodeBadRequest)

// ErrNotResourceOwner is returned when an authenticated subject attempts
// to mutate a resource it does not own.
var ErrNotResourceOwner = goerrors.New("subject does not own this resource", goerrors.CategoryAuthz).
	WithTextCode(TextCodeNotOwner).
	WithCode(goerrors.CodeForbidden)

// ErrDuplicateEmail is returned when registering an email already on record.
var ErrDuplicateEmail = goerrors.New("User already exists.", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError checks for expired token errors, including legacy
// string-matched ones coming out of the JWT library.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError checks for unparseable token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
