package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/metrics"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/zap"
)

// Reconciler removes accounts that registration left without a profile.
type Reconciler struct {
	identity IdentityProvider
	profiles ProfileStore
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewReconciler(identity IdentityProvider, profiles ProfileStore, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		identity: identity,
		profiles: profiles,
		metrics:  m,
		logger:   logger.With(zap.String("component", "reconciler")),
	}
}

// Reconcile deletes any stray profile row first, so a profile never outlives its
// account, and then the account. Already-missing rows count as done.
func (r *Reconciler) Reconcile(ctx context.Context, o *domain.OrphanedAccount) error {
	if o == nil || o.AccountID == "" {
		return errors.New("orphan message without account id")
	}
	log := r.logger.With(
		zap.String("request_id", o.RequestID),
		zap.String("account_id", o.AccountID),
		zap.Int("retry_count", o.RetryCount))

	if err := r.profiles.DeleteProfile(ctx, o.AccountID); err != nil && !errors.Is(err, xerrors.ErrProfileMissing) {
		r.metrics.ObserveReconcile("failed")
		log.Warn("stray profile delete failed", zap.Error(err))
		return fmt.Errorf("delete profile %s: %w", o.AccountID, err)
	}
	if err := r.identity.DeleteAccount(ctx, o.AccountID); err != nil && !errors.Is(err, xerrors.ErrAccountNotFound) {
		r.metrics.ObserveReconcile("failed")
		log.Warn("orphaned account delete failed", zap.Error(err))
		return fmt.Errorf("delete account %s: %w", o.AccountID, err)
	}

	r.metrics.ObserveReconcile("deleted")
	log.Info("orphaned account removed")
	return nil
}
