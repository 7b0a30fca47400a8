package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// compensate deletes an account whose profile could not be stored. It runs on a
// context detached from the caller so a disconnecting client cannot cut it short.
// When every delete attempt fails the account is handed to the orphan recorder.
func (p *Provisioner) compensate(ctx context.Context, run *provisionRun, account *domain.AccountIdentity, cause error) (compensated, recorded bool) {
	ctx = context.WithoutCancel(ctx)
	delay := p.cfg.CompensationBackoff

	var lastErr error
	for attempt := 1; attempt <= p.cfg.CompensationAttempts; attempt++ {
		err := p.identity.DeleteAccount(ctx, account.ID)
		if err == nil || errors.Is(err, xerrors.ErrAccountNotFound) {
			run.logger.Info("compensating delete succeeded", zap.Int("attempt", attempt))
			p.metrics.ObserveCompensation("deleted")
			return true, false
		}
		lastErr = err
		run.logger.Warn("compensating delete failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.cfg.CompensationAttempts),
			zap.Error(err))

		if attempt < p.cfg.CompensationAttempts && delay > 0 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	p.metrics.ObserveCompensation("failed")

	if p.orphans == nil {
		run.logger.Error("account left without profile, manual cleanup required",
			zap.NamedError("delete_error", lastErr),
			zap.NamedError("cause", cause))
		return false, false
	}

	orphan := &domain.OrphanedAccount{
		RequestID:     uuid.NewString(),
		AccountID:     account.ID,
		Email:         account.Email,
		Reason:        cause.Error(),
		FailureReason: lastErr.Error(),
		DetectedAt:    time.Now().UTC(),
	}
	if err := p.orphans.RecordOrphan(ctx, orphan); err != nil {
		run.logger.Error("could not record orphaned account, manual cleanup required",
			zap.String("request_id", orphan.RequestID),
			zap.NamedError("delete_error", lastErr),
			zap.Error(err))
		return false, false
	}
	run.logger.Warn("orphaned account queued for reconciliation", zap.String("request_id", orphan.RequestID))
	return false, true
}
