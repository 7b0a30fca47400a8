package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGUniqueViolation is the SQLSTATE postgres reports for a unique constraint hit.
const PGUniqueViolation = "23505"

// DefaultSignupCode is attached to identity creation failures that carry no provider code.
const DefaultSignupCode = "signup_error"

func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}

// Generic
var (
	ErrForbidden = errors.New("forbidden")
)

// Accounts / sessions
var (
	ErrEmailAlreadyInUse  = errors.New("a user with this email address has already been registered")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccountNotFound    = errors.New("account not found")
	ErrNoAccountReturned  = errors.New("no account returned")
)

// Store
var (
	ErrProfileExists  = errors.New("profile already exists for this user")
	ErrProfileMissing = errors.New("profile not found")
)

// ValidationError is raised before any external call when a named input field is malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// IdentityCreationError means the identity service refused or failed account creation.
// Nothing was created, so nothing needs compensating.
type IdentityCreationError struct {
	Message string
	Code    string
	Err     error
}

func (e *IdentityCreationError) Error() string {
	return "identity creation failed: " + e.Message
}

func (e *IdentityCreationError) Unwrap() error { return e.Err }

// ProfileInsertionError means the account was created but its profile row was not.
// Compensated reports whether the account was removed again; when it was not,
// OrphanRecorded reports whether the account was handed to asynchronous cleanup.
type ProfileInsertionError struct {
	Message        string
	AccountID      string
	Compensated    bool
	OrphanRecorded bool
	Err            error
}

func (e *ProfileInsertionError) Error() string {
	return "profile insertion failed: " + e.Message
}

func (e *ProfileInsertionError) Unwrap() error { return e.Err }

// CleanupPending is true when an account may still exist without a profile.
func (e *ProfileInsertionError) CleanupPending() bool {
	return !e.Compensated
}

// ProviderError is returned by identity adapters for failures reported by the provider itself.
// Err optionally carries the sentinel the failure maps to, e.g. ErrEmailAlreadyInUse.
type ProviderError struct {
	Status  int
	Message string
	Code    string
	Err     error
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
