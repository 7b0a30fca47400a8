package usecase

import (
	"context"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/ports_mock.go github.com/rkohli77/canadian-rental-platform/internal/usecase IdentityProvider,ProfileStore,OrphanRecorder,PropertyStore

// IdentityProvider is the external system of record for accounts and sessions.
// Implementations return xerrors.ErrEmailAlreadyInUse for duplicate sign-ups and
// xerrors.ErrAccountNotFound when deleting an account that does not exist.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string, meta domain.AccountMetadata, redirectTo string) (*domain.AccountIdentity, error)
	DeleteAccount(ctx context.Context, accountID string) error
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*domain.AccountIdentity, error)
	FindByEmail(ctx context.Context, email string) (*domain.AccountIdentity, error)
}

// ProfileStore holds profile rows.
type ProfileStore interface {
	InsertProfile(ctx context.Context, p *domain.ProfileRecord) error
	GetProfile(ctx context.Context, userID string) (*domain.ProfileRecord, error)
	DeleteProfile(ctx context.Context, userID string) error
}

type PropertyStore interface {
	InsertProperty(ctx context.Context, p *domain.Property) error
	SearchProperties(ctx context.Context, f domain.PropertySearch) ([]*domain.Property, error)
}

// OrphanRecorder hands accounts that could not be compensated to asynchronous cleanup.
type OrphanRecorder interface {
	RecordOrphan(ctx context.Context, o *domain.OrphanedAccount) error
}

// KeyValueCache is the subset of cache.Cache used by the use cases.
type KeyValueCache interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
}
