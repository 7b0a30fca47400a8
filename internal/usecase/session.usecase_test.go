package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/internal/usecase"
	"github.com/rkohli77/canadian-rental-platform/internal/usecase/mocks"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type mapCache map[string]string

func (c mapCache) Get(_ context.Context, ns, key string) (string, error) {
	if v, ok := c[ns+":"+key]; ok {
		return v, nil
	}
	return "", errors.New("miss")
}

func (c mapCache) Set(_ context.Context, ns, key string, value interface{}, _ time.Duration) error {
	c[ns+":"+key] = value.(string)
	return nil
}

func TestEmailExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	cache := mapCache{}
	uc := usecase.NewSessionUsecase(identity, mocks.NewMockProfileStore(ctrl), cache, zap.NewNop())

	identity.EXPECT().FindByEmail(gomock.Any(), "jane@example.com").
		Return(&domain.AccountIdentity{ID: "u1", Email: "Jane@Example.com"}, nil).Times(1)

	if !uc.EmailExists(context.Background(), " JANE@example.com ") {
		t.Fatal("expected case-insensitive match")
	}
	// second call is served from cache
	if !uc.EmailExists(context.Background(), "jane@example.com") {
		t.Fatal("expected cached match")
	}
}

func TestEmailExists_LookupFailureReportsFalse(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	uc := usecase.NewSessionUsecase(identity, mocks.NewMockProfileStore(ctrl), nil, zap.NewNop())

	identity.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("503"))
	identity.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, xerrors.ErrAccountNotFound)

	if uc.EmailExists(context.Background(), "a@b.co") {
		t.Fatal("lookup failure should report false")
	}
	if uc.EmailExists(context.Background(), "a@b.co") {
		t.Fatal("unknown email should report false")
	}
	if uc.EmailExists(context.Background(), "") {
		t.Fatal("empty email should report false")
	}
}

func TestSignIn_ValidatesBeforeCallingProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc := usecase.NewSessionUsecase(mocks.NewMockIdentityProvider(ctrl), mocks.NewMockProfileStore(ctrl), nil, zap.NewNop())

	var verr *xerrors.ValidationError
	if _, err := uc.SignIn(context.Background(), "bad", "pw"); !errors.As(err, &verr) || verr.Field != "email" {
		t.Fatalf("expected email error, got %v", err)
	}
	if _, err := uc.SignIn(context.Background(), "a@b.co", ""); !errors.As(err, &verr) || verr.Field != "password" {
		t.Fatalf("expected password error, got %v", err)
	}
}

func TestCurrentProfile_MissingProfileIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	profiles := mocks.NewMockProfileStore(ctrl)
	uc := usecase.NewSessionUsecase(identity, profiles, nil, zap.NewNop())

	identity.EXPECT().GetUser(gomock.Any(), "tok").Return(&domain.AccountIdentity{ID: "u1"}, nil)
	profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(nil, xerrors.ErrProfileMissing)

	user, profile, err := uc.CurrentProfile(context.Background(), "tok")
	if err != nil || user == nil || profile != nil {
		t.Fatalf("got user=%v profile=%v err=%v", user, profile, err)
	}

	if _, _, err := uc.CurrentProfile(context.Background(), ""); !errors.Is(err, xerrors.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
