package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/utils"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/zap"
)

const (
	emailExistsNamespace = "email_exists"
	emailExistsTTL       = 30 * time.Second
)

type SessionUsecase struct {
	identity IdentityProvider
	profiles ProfileStore
	cache    KeyValueCache
	logger   *zap.Logger
}

// NewSessionUsecase builds the sign-in/sign-out use cases. cache may be nil.
func NewSessionUsecase(identity IdentityProvider, profiles ProfileStore, cache KeyValueCache, logger *zap.Logger) *SessionUsecase {
	return &SessionUsecase{
		identity: identity,
		profiles: profiles,
		cache:    cache,
		logger:   logger.With(zap.String("component", "session")),
	}
}

func (uc *SessionUsecase) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if !utils.ValidateEmail(email) {
		return nil, xerrors.NewValidationError("email", MsgInvalidEmail)
	}
	if password == "" {
		return nil, xerrors.NewValidationError("password", "Password is required.")
	}
	sess, err := uc.identity.SignIn(ctx, email, password)
	if err != nil {
		uc.logger.Info("sign in failed", zap.String("email", utils.MaskEmail(email)), zap.Error(err))
		return nil, err
	}
	return sess, nil
}

func (uc *SessionUsecase) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return xerrors.ErrInvalidToken
	}
	return uc.identity.SignOut(ctx, accessToken)
}

func (uc *SessionUsecase) CurrentUser(ctx context.Context, accessToken string) (*domain.AccountIdentity, error) {
	if accessToken == "" {
		return nil, xerrors.ErrInvalidToken
	}
	return uc.identity.GetUser(ctx, accessToken)
}

// CurrentProfile returns the signed-in account and its profile. A missing
// profile is not an error; the account may predate profiles or be mid-cleanup.
func (uc *SessionUsecase) CurrentProfile(ctx context.Context, accessToken string) (*domain.AccountIdentity, *domain.ProfileRecord, error) {
	user, err := uc.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}
	profile, err := uc.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		if errors.Is(err, xerrors.ErrProfileMissing) {
			return user, nil, nil
		}
		return nil, nil, err
	}
	return user, profile, nil
}

// EmailExists reports whether an account uses email. Lookup failures report false.
func (uc *SessionUsecase) EmailExists(ctx context.Context, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if uc.cache != nil {
		if v, err := uc.cache.Get(ctx, emailExistsNamespace, email); err == nil {
			return v == "1"
		}
	}

	account, err := uc.identity.FindByEmail(ctx, email)
	exists := false
	switch {
	case err == nil && account != nil:
		exists = strings.EqualFold(account.Email, email)
	case err != nil && !errors.Is(err, xerrors.ErrAccountNotFound):
		uc.logger.Warn("email lookup failed", zap.String("email", utils.MaskEmail(email)), zap.Error(err))
		return false
	}

	if uc.cache != nil {
		v := "0"
		if exists {
			v = "1"
		}
		if err := uc.cache.Set(ctx, emailExistsNamespace, email, v, emailExistsTTL); err != nil {
			uc.logger.Debug("email lookup not cached", zap.Error(err))
		}
	}
	return exists
}
