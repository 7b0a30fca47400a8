package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/metrics"
	"github.com/rkohli77/canadian-rental-platform/pkg/utils"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/zap"
)

// ConfirmationPath is appended to the site origin to build the identity
// service's email confirmation redirect.
const ConfirmationPath = "/auth/callback"

type ProvisionerConfig struct {
	SiteOrigin string
	// CompensationAttempts is how many times the compensating delete is tried
	// inline before the account is recorded as orphaned. Values below 1 mean 1.
	CompensationAttempts int
	CompensationBackoff  time.Duration
}

// Provisioner creates an account and its profile as one logical unit. The two
// live in systems without a shared transaction, so a failed profile insert is
// undone by deleting the account again.
type Provisioner struct {
	identity IdentityProvider
	profiles ProfileStore
	orphans  OrphanRecorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
	cfg      ProvisionerConfig
}

// NewProvisioner wires the sequence. orphans and m may be nil.
func NewProvisioner(
	identity IdentityProvider,
	profiles ProfileStore,
	orphans OrphanRecorder,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg ProvisionerConfig,
) *Provisioner {
	if cfg.CompensationAttempts < 1 {
		cfg.CompensationAttempts = 1
	}
	return &Provisioner{
		identity: identity,
		profiles: profiles,
		orphans:  orphans,
		metrics:  m,
		logger:   logger.With(zap.String("component", "provisioner")),
		cfg:      cfg,
	}
}

type ProvisionResult struct {
	AccountID string
	Profile   *domain.ProfileRecord
}

// provisionRun tracks the state of a single invocation.
type provisionRun struct {
	state   ProvisionState
	started time.Time
	logger  *zap.Logger
}

func (r *provisionRun) transition(to ProvisionState) {
	if r.state.Terminal() || !CanTransition(r.state, to) {
		r.logger.DPanic("illegal provisioning transition",
			zap.Stringer("from", r.state),
			zap.Stringer("to", to))
	}
	r.logger.Debug("provisioning state",
		zap.Stringer("from", r.state),
		zap.Stringer("to", to))
	r.state = to
}

func (p *Provisioner) RedirectTarget() string {
	return strings.TrimRight(p.cfg.SiteOrigin, "/") + ConfirmationPath
}

// Provision runs validate → create identity → insert profile, compensating on
// profile failure. The returned error is always one of *xerrors.ValidationError,
// *xerrors.IdentityCreationError or *xerrors.ProfileInsertionError.
func (p *Provisioner) Provision(ctx context.Context, req *domain.RegistrationRequest) (*ProvisionResult, error) {
	run := &provisionRun{
		state:   StateStart,
		started: time.Now(),
		logger:  p.logger.With(zap.String("email", utils.MaskEmail(strings.TrimSpace(req.Email)))),
	}

	run.transition(StateValidatingInput)
	if err := ValidateRegistration(req); err != nil {
		run.logger.Info("registration rejected", zap.Error(err))
		return nil, p.fail(run, "invalid_input", err)
	}

	// Past validation the sequence ignores caller cancellation.
	ctx = context.WithoutCancel(ctx)

	run.transition(StateCreatingIdentity)
	run.logger.Info("creating account", zap.String("user_type", string(req.UserType)))
	account, err := p.identity.CreateAccount(ctx, req.Email, req.Password, req.Metadata(), p.RedirectTarget())
	if err != nil {
		run.logger.Warn("account creation failed", zap.Error(err))
		return nil, p.fail(run, "identity_failed", toIdentityCreationError(err))
	}
	if account == nil || account.ID == "" {
		run.logger.Error("identity service returned no account")
		return nil, p.fail(run, "identity_failed", &xerrors.IdentityCreationError{
			Message: xerrors.ErrNoAccountReturned.Error(),
			Code:    xerrors.DefaultSignupCode,
			Err:     xerrors.ErrNoAccountReturned,
		})
	}
	run.logger = run.logger.With(zap.String("account_id", account.ID))
	run.logger.Info("account created")

	run.transition(StateInsertingProfile)
	profile := domain.NewProfileRecord(account.ID, req)
	if err := p.profiles.InsertProfile(ctx, profile); err != nil {
		run.logger.Error("profile insert failed", zap.Error(err))

		run.transition(StateCompensating)
		compensated, recorded := p.compensate(ctx, run, account, err)
		return nil, p.fail(run, "profile_failed", &xerrors.ProfileInsertionError{
			Message:        err.Error(),
			AccountID:      account.ID,
			Compensated:    compensated,
			OrphanRecorded: recorded,
			Err:            err,
		})
	}

	run.transition(StateSucceeded)
	run.logger.Info("registration complete")
	p.metrics.ObserveProvision("succeeded", time.Since(run.started))
	return &ProvisionResult{AccountID: account.ID, Profile: profile}, nil
}

func (p *Provisioner) fail(run *provisionRun, outcome string, err error) error {
	run.transition(StateFailed)
	p.metrics.ObserveProvision(outcome, time.Since(run.started))
	return err
}

func toIdentityCreationError(err error) *xerrors.IdentityCreationError {
	out := &xerrors.IdentityCreationError{
		Message: err.Error(),
		Code:    xerrors.DefaultSignupCode,
		Err:     err,
	}
	var perr *xerrors.ProviderError
	if errors.As(err, &perr) {
		out.Message = perr.Message
		if perr.Code != "" {
			out.Code = perr.Code
		}
	}
	return out
}
