package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/jwtutil"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const sessionNamespace = "session"

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.LocalUser) error
	GetUserByID(ctx context.Context, id string) (*domain.LocalUser, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.LocalUser, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionStore keeps the jti of every live token; cache.Cache satisfies it.
type SessionStore interface {
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Exists(ctx context.Context, namespace, key string) (bool, error)
	Delete(ctx context.Context, namespace, key string) error
}

// Local is a self-hosted identity provider: bcrypt hashes in Postgres and
// HS256 session tokens that are only valid while their jti is in Redis.
type Local struct {
	users    UserStore
	sessions SessionStore
	gen      *jwtutil.Generator
	verifier *jwtutil.Verifier
	cost     int
	logger   *zap.Logger
}

func NewLocal(users UserStore, sessions SessionStore, gen *jwtutil.Generator, verifier *jwtutil.Verifier, logger *zap.Logger) *Local {
	return &Local{
		users:    users,
		sessions: sessions,
		gen:      gen,
		verifier: verifier,
		cost:     bcrypt.DefaultCost,
		logger:   logger.With(zap.String("component", "local_identity")),
	}
}

// CreateAccount ignores redirectTo; local accounts need no email confirmation.
func (l *Local) CreateAccount(ctx context.Context, email, password string, meta domain.AccountMetadata, _ string) (*domain.AccountIdentity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return nil, &xerrors.ProviderError{Status: 400, Message: err.Error(), Code: "weak_password"}
	}
	u := &domain.LocalUser{
		AccountIdentity: domain.AccountIdentity{
			ID:       uuid.NewString(),
			Email:    strings.ToLower(strings.TrimSpace(email)),
			Metadata: meta,
		},
		PasswordHash: string(hash),
	}
	if err := l.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, xerrors.ErrEmailAlreadyInUse) {
			return nil, &xerrors.ProviderError{
				Status:  422,
				Message: "User already registered",
				Code:    "user_already_exists",
				Err:     err,
			}
		}
		return nil, err
	}
	acct := u.AccountIdentity
	return &acct, nil
}

func (l *Local) DeleteAccount(ctx context.Context, accountID string) error {
	return l.users.DeleteUser(ctx, accountID)
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	u, err := l.users.GetUserByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrAccountNotFound) {
		return nil, xerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, xerrors.ErrInvalidCredentials
	}

	token, jti, exp, err := l.gen.Generate(u.ID, u.Email, string(u.Metadata.UserType))
	if err != nil {
		return nil, err
	}
	if err := l.sessions.Set(ctx, sessionNamespace, jti, u.ID, time.Until(exp)); err != nil {
		return nil, err
	}
	l.logger.Info("session created", zap.String("account_id", u.ID))

	return &domain.Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   exp.UTC(),
		User:        u.AccountIdentity,
	}, nil
}

func (l *Local) SignOut(ctx context.Context, accessToken string) error {
	claims, err := l.verifier.ParseAndValidate(accessToken)
	if err != nil {
		return xerrors.ErrInvalidToken
	}
	return l.sessions.Delete(ctx, sessionNamespace, claims.ID)
}

func (l *Local) GetUser(ctx context.Context, accessToken string) (*domain.AccountIdentity, error) {
	claims, err := l.verifier.ParseAndValidate(accessToken)
	if err != nil {
		return nil, xerrors.ErrInvalidToken
	}
	live, err := l.sessions.Exists(ctx, sessionNamespace, claims.ID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, xerrors.ErrInvalidToken
	}

	u, err := l.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, xerrors.ErrAccountNotFound) {
		return nil, xerrors.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	acct := u.AccountIdentity
	return &acct, nil
}

func (l *Local) FindByEmail(ctx context.Context, email string) (*domain.AccountIdentity, error) {
	u, err := l.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	acct := u.AccountIdentity
	return &acct, nil
}
