package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyApartment, PropertyHouse, PropertyCondo:
		return true
	}
	return false
}

// MaxMonthlyRent caps listing prices.
var MaxMonthlyRent = decimal.NewFromInt(50000)

type Property struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Bedrooms     int             `json:"bedrooms"`
	Bathrooms    int             `json:"bathrooms"`
	Street       string          `json:"street"`
	City         string          `json:"city"`
	Province     string          `json:"province"`
	PostalCode   string          `json:"postal_code"`
	PropertyType PropertyType    `json:"property_type,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PropertyInput is the listing form body.
type PropertyInput struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Bedrooms     int             `json:"bedrooms"`
	Bathrooms    int             `json:"bathrooms"`
	Street       string          `json:"street"`
	City         string          `json:"city"`
	Province     string          `json:"province"`
	PostalCode   string          `json:"postalCode"`
	PropertyType PropertyType    `json:"propertyType"`
}

// PropertySearch filters listings; zero values mean "any".
type PropertySearch struct {
	City         string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Bedrooms     int
	PropertyType PropertyType
	Limit        int
	Offset       int
}
