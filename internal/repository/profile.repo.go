package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, first_name, last_name, email, phone, address, city, province,
	postal_code, occupation, monthly_income::text, reference, company_name, business_number,
	property_count, experience, user_type, created_at`

func (r *ProfileRepository) InsertProfile(ctx context.Context, p *domain.ProfileRecord) error {
	var income *string
	if p.MonthlyIncome != nil {
		s := p.MonthlyIncome.String()
		income = &s
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO profile (user_id, first_name, last_name, email, phone, address, city, province,
			postal_code, occupation, monthly_income, reference, company_name, business_number,
			property_count, experience, user_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::numeric,$12,$13,$14,$15,$16,$17)
		RETURNING created_at`,
		p.UserID, p.FirstName, p.LastName, p.Email, p.Phone, p.Address, p.City, p.Province,
		p.PostalCode, p.Occupation, income, p.Reference, p.CompanyName, p.BusinessNumber,
		p.PropertyCount, p.Experience, string(p.UserType),
	).Scan(&p.CreatedAt)
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
			return xerrors.ErrProfileExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*domain.ProfileRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profile WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrProfileMissing
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) DeleteProfile(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profile WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrProfileMissing
	}
	return nil
}

func scanProfile(row pgx.Row) (*domain.ProfileRecord, error) {
	var (
		p        domain.ProfileRecord
		income   *string
		userType string
	)
	err := row.Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Address, &p.City,
		&p.Province, &p.PostalCode, &p.Occupation, &income, &p.Reference, &p.CompanyName,
		&p.BusinessNumber, &p.PropertyCount, &p.Experience, &userType, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.UserType = domain.UserType(userType)
	if income != nil {
		d, err := decimal.NewFromString(*income)
		if err != nil {
			return nil, fmt.Errorf("monthly_income %q: %w", *income, err)
		}
		p.MonthlyIncome = &d
	}
	return &p, nil
}
