package handler

import (
	"context"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/internal/usecase"

	"go.uber.org/zap"
)

type Registrar interface {
	Provision(ctx context.Context, req *domain.RegistrationRequest) (*usecase.ProvisionResult, error)
}

type SessionService interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	CurrentProfile(ctx context.Context, accessToken string) (*domain.AccountIdentity, *domain.ProfileRecord, error)
	EmailExists(ctx context.Context, email string) bool
}

type PropertyService interface {
	Create(ctx context.Context, owner *domain.AccountIdentity, in *domain.PropertyInput) (*domain.Property, error)
	Search(ctx context.Context, f domain.PropertySearch) ([]*domain.Property, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type RentalHandler struct {
	registrar  Registrar
	sessions   SessionService
	properties PropertyService
	checks     map[string]HealthCheck
	logger     *zap.Logger
}

func NewRentalHandler(
	registrar Registrar,
	sessions SessionService,
	properties PropertyService,
	checks map[string]HealthCheck,
	logger *zap.Logger,
) *RentalHandler {
	return &RentalHandler{
		registrar:  registrar,
		sessions:   sessions,
		properties: properties,
		checks:     checks,
		logger:     logger.With(zap.String("component", "http")),
	}
}
