package domain

import "time"

type Session struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        AccountIdentity `json:"user"`
}

// OrphanedAccount describes an account that exists in the identity service
// without a profile and could not be removed during registration.
type OrphanedAccount struct {
	RequestID     string    `json:"request_id"`
	AccountID     string    `json:"account_id"`
	Email         string    `json:"email"`
	Reason        string    `json:"reason"`
	RetryCount    int       `json:"retry_count"`
	FailureReason string    `json:"failure_reason,omitempty"`
	DetectedAt    time.Time `json:"detected_at"`
}

// LocalUser is an account row owned by the built-in identity provider.
type LocalUser struct {
	AccountIdentity
	PasswordHash string
}
