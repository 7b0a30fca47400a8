package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/internal/usecase"
	"github.com/rkohli77/canadian-rental-platform/internal/usecase/mocks"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestReconcile(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name       string
		profileErr error
		accountErr error
		callsAcct  bool
		wantErr    bool
	}{
		{name: "deletes both", callsAcct: true},
		{name: "profile already gone", profileErr: xerrors.ErrProfileMissing, callsAcct: true},
		{name: "account already gone", accountErr: xerrors.ErrAccountNotFound, callsAcct: true},
		{name: "profile delete fails", profileErr: boom, wantErr: true},
		{name: "account delete fails", accountErr: boom, callsAcct: true, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			identity := mocks.NewMockIdentityProvider(ctrl)
			profiles := mocks.NewMockProfileStore(ctrl)

			profiles.EXPECT().DeleteProfile(gomock.Any(), "u1").Return(tc.profileErr)
			if tc.callsAcct {
				identity.EXPECT().DeleteAccount(gomock.Any(), "u1").Return(tc.accountErr)
			}

			r := usecase.NewReconciler(identity, profiles, nil, zap.NewNop())
			err := r.Reconcile(context.Background(), &domain.OrphanedAccount{RequestID: "r1", AccountID: "u1"})
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
			if tc.wantErr && !errors.Is(err, boom) {
				t.Fatalf("cause lost: %v", err)
			}
		})
	}
}

func TestReconcile_RejectsMessageWithoutAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := usecase.NewReconciler(mocks.NewMockIdentityProvider(ctrl), mocks.NewMockProfileStore(ctrl), nil, zap.NewNop())

	if err := r.Reconcile(context.Background(), &domain.OrphanedAccount{RequestID: "r1"}); err == nil {
		t.Fatal("expected error for empty account id")
	}
	if err := r.Reconcile(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil message")
	}
}
