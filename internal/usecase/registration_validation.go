package usecase

import (
	"math"
	"strings"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/utils"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"github.com/shopspring/decimal"
)

const (
	MsgInvalidEmail     = "A valid email is required."
	MsgPasswordTooShort = "Password must be at least 8 characters."
	MsgPasswordTooLong  = "Password must be at most 72 bytes."
)

const (
	maxFieldLength    = 255
	maxLongTextLength = 2000
)

// monthly_income is NUMERIC(12,2): ten integer digits and two decimals.
var maxMonthlyIncome = decimal.New(1, 10)

// ValidateRegistration checks the request and normalizes it in place.
// Email and password come first so their errors win over any other field.
func ValidateRegistration(req *domain.RegistrationRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if !utils.ValidateEmail(req.Email) {
		return xerrors.NewValidationError("email", MsgInvalidEmail)
	}
	if !utils.ValidatePassword(req.Password) {
		return xerrors.NewValidationError("password", MsgPasswordTooShort)
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		return xerrors.NewValidationError("password", MsgPasswordTooLong)
	}

	if req.UserType == "" {
		req.UserType = domain.UserTypeRenter
	}
	req.UserType = domain.UserType(strings.ToLower(strings.TrimSpace(string(req.UserType))))
	if !req.UserType.Valid() {
		return xerrors.NewValidationError("userType", "User type must be renter or landlord.")
	}

	short := []struct {
		field string
		value *string
	}{
		{"firstName", &req.FirstName},
		{"lastName", &req.LastName},
		{"phone", &req.Phone},
		{"address", &req.Address},
		{"city", &req.City},
		{"province", &req.Province},
		{"postalCode", &req.PostalCode},
		{"occupation", &req.Occupation},
		{"companyName", &req.CompanyName},
		{"businessNumber", &req.BusinessNumber},
	}
	for _, f := range short {
		*f.value = strings.TrimSpace(*f.value)
		if !utils.WithinLength(*f.value, maxFieldLength) {
			return xerrors.NewValidationError(f.field, "This field is too long.")
		}
	}
	if !utils.WithinLength(req.References, maxLongTextLength) {
		return xerrors.NewValidationError("references", "This field is too long.")
	}
	if !utils.WithinLength(req.Experience, maxLongTextLength) {
		return xerrors.NewValidationError("experience", "This field is too long.")
	}

	if req.Phone != "" && !utils.ValidatePhone(req.Phone) {
		return xerrors.NewValidationError("phone", "Please enter a valid phone number.")
	}
	if req.Province != "" {
		code, ok := utils.NormalizeProvince(req.Province)
		if !ok {
			return xerrors.NewValidationError("province", "Please select a valid province or territory.")
		}
		req.Province = code
	}
	if req.PostalCode != "" {
		code, ok := utils.NormalizePostalCode(req.PostalCode)
		if !ok {
			return xerrors.NewValidationError("postalCode", "Please enter a valid Canadian postal code.")
		}
		req.PostalCode = code
	}
	if income := strings.TrimSpace(string(req.MonthlyIncome)); income != "" {
		d, ok := utils.ParseAmount(income)
		if !ok {
			return xerrors.NewValidationError("monthlyIncome", "Monthly income must be a non-negative amount.")
		}
		if d.GreaterThanOrEqual(maxMonthlyIncome) || !d.Equal(d.Round(2)) {
			return xerrors.NewValidationError("monthlyIncome", "Monthly income must be below 10,000,000,000 with at most two decimals.")
		}
		req.MonthlyIncome = domain.FlexString(income)
	}
	if count := strings.TrimSpace(string(req.PropertyCount)); count != "" {
		n, ok := utils.ParseCount(count)
		if !ok || n > math.MaxInt32 {
			return xerrors.NewValidationError("propertyCount", "Property count must be a non-negative whole number.")
		}
		req.PropertyCount = domain.FlexString(count)
	}
	return nil
}
