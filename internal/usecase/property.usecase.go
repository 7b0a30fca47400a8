package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/utils"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

type PropertyUsecase struct {
	store  PropertyStore
	logger *zap.Logger
}

func NewPropertyUsecase(store PropertyStore, logger *zap.Logger) *PropertyUsecase {
	return &PropertyUsecase{store: store, logger: logger.With(zap.String("component", "property"))}
}

// Create lists a property for a landlord.
func (uc *PropertyUsecase) Create(ctx context.Context, owner *domain.AccountIdentity, in *domain.PropertyInput) (*domain.Property, error) {
	if owner.Metadata.UserType != domain.UserTypeLandlord {
		return nil, xerrors.ErrForbidden
	}
	if err := ValidateProperty(in); err != nil {
		return nil, err
	}

	p := &domain.Property{
		ID:           uuid.NewString(),
		OwnerID:      owner.ID,
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		Street:       in.Street,
		City:         in.City,
		Province:     in.Province,
		PostalCode:   in.PostalCode,
		PropertyType: in.PropertyType,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.store.InsertProperty(ctx, p); err != nil {
		uc.logger.Error("insert property failed", zap.String("owner_id", owner.ID), zap.Error(err))
		return nil, err
	}
	uc.logger.Info("property listed", zap.String("property_id", p.ID), zap.String("owner_id", owner.ID))
	return p, nil
}

func (uc *PropertyUsecase) Search(ctx context.Context, f domain.PropertySearch) ([]*domain.Property, error) {
	f.City = strings.TrimSpace(f.City)
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.PropertyType != "" && !f.PropertyType.Valid() {
		return nil, xerrors.NewValidationError("propertyType", "Property type must be apartment, house or condo.")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, xerrors.NewValidationError("minPrice", "Minimum price cannot exceed maximum price.")
	}
	return uc.store.SearchProperties(ctx, f)
}

// ValidateProperty applies the listing form rules and normalizes province and postal code.
func ValidateProperty(in *domain.PropertyInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Street = strings.TrimSpace(in.Street)
	in.City = strings.TrimSpace(in.City)

	switch n := utf8.RuneCountInString(in.Title); {
	case n < 5:
		return xerrors.NewValidationError("title", "Title must be at least 5 characters")
	case n > 100:
		return xerrors.NewValidationError("title", "Title must be at most 100 characters")
	}
	if utf8.RuneCountInString(in.Description) < 20 {
		return xerrors.NewValidationError("description", "Description must be at least 20 characters")
	}
	if in.Price.IsNegative() || in.Price.GreaterThan(domain.MaxMonthlyRent) {
		return xerrors.NewValidationError("price", "Price must be between 0 and 50000")
	}
	if in.Bedrooms < 0 || in.Bedrooms > 10 {
		return xerrors.NewValidationError("bedrooms", "Bedrooms must be between 0 and 10")
	}
	if in.Bathrooms < 0 || in.Bathrooms > 10 {
		return xerrors.NewValidationError("bathrooms", "Bathrooms must be between 0 and 10")
	}
	if utf8.RuneCountInString(in.Street) < 5 {
		return xerrors.NewValidationError("street", "Street must be at least 5 characters")
	}
	if utf8.RuneCountInString(in.City) < 2 {
		return xerrors.NewValidationError("city", "City must be at least 2 characters")
	}
	province := strings.ToUpper(strings.TrimSpace(in.Province))
	if !utils.IsProvinceCode(province) {
		return xerrors.NewValidationError("province", "Province must be a two-letter Canadian province code")
	}
	in.Province = province
	postal, ok := utils.NormalizePostalCode(in.PostalCode)
	if !ok {
		return xerrors.NewValidationError("postalCode", "Invalid Canadian postal code")
	}
	in.PostalCode = postal
	if in.PropertyType != "" && !in.PropertyType.Valid() {
		return xerrors.NewValidationError("propertyType", "Property type must be apartment, house or condo.")
	}
	return nil
}
