package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/rkohli77/canadian-rental-platform/pkg/utils"

	"github.com/shopspring/decimal"
)

type UserType string

const (
	UserTypeRenter   UserType = "renter"
	UserTypeLandlord UserType = "landlord"
)

func (t UserType) Valid() bool {
	return t == UserTypeRenter || t == UserTypeLandlord
}

// FlexString accepts either a JSON string or a JSON number. Form clients send
// numeric inputs both ways.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// RegistrationRequest is the sign-up form as submitted by the client.
type RegistrationRequest struct {
	Email          string     `json:"email"`
	Password       string     `json:"password"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	Province       string     `json:"province"`
	PostalCode     string     `json:"postalCode"`
	Occupation     string     `json:"occupation"`
	MonthlyIncome  FlexString `json:"monthlyIncome"`
	References     string     `json:"references"`
	CompanyName    string     `json:"companyName"`
	BusinessNumber string     `json:"businessNumber"`
	PropertyCount  FlexString `json:"propertyCount"`
	Experience     string     `json:"experience"`
	UserType       UserType   `json:"userType"`
}

// AccountMetadata is attached to the identity at creation time.
type AccountMetadata struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone"`
	UserType  UserType `json:"user_type"`
}

func (r *RegistrationRequest) Metadata() AccountMetadata {
	return AccountMetadata{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		UserType:  r.UserType,
	}
}

// AccountIdentity is the account record owned by the identity service.
type AccountIdentity struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Metadata  AccountMetadata `json:"user_metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProfileRecord is the application profile row keyed by the identity's account ID.
type ProfileRecord struct {
	UserID         string           `json:"user_id"`
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Address        string           `json:"address"`
	City           string           `json:"city"`
	Province       string           `json:"province"`
	PostalCode     string           `json:"postal_code"`
	Occupation     string           `json:"occupation"`
	MonthlyIncome  *decimal.Decimal `json:"monthly_income,omitempty"`
	Reference      string           `json:"reference"`
	CompanyName    string           `json:"company_name"`
	BusinessNumber string           `json:"business_number"`
	PropertyCount  *int             `json:"property_count,omitempty"`
	Experience     string           `json:"experience"`
	UserType       UserType         `json:"user_type"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewProfileRecord maps a (validated) registration onto the storage naming.
// The form's "references" field is stored in the singular "reference" column.
func NewProfileRecord(accountID string, req *RegistrationRequest) *ProfileRecord {
	p := &ProfileRecord{
		UserID:         accountID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          strings.TrimSpace(req.Email),
		Phone:          req.Phone,
		Address:        req.Address,
		City:           req.City,
		Province:       req.Province,
		PostalCode:     req.PostalCode,
		Occupation:     req.Occupation,
		Reference:      req.References,
		CompanyName:    req.CompanyName,
		BusinessNumber: req.BusinessNumber,
		Experience:     req.Experience,
		UserType:       req.UserType,
	}
	if income, ok := utils.ParseAmount(string(req.MonthlyIncome)); ok && req.MonthlyIncome != "" {
		p.MonthlyIncome = &income
	}
	if count, ok := utils.ParseCount(string(req.PropertyCount)); ok && req.PropertyCount != "" {
		p.PropertyCount = &count
	}
	return p
}
