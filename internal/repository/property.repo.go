package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PropertyRepository struct {
	db *pgxpool.Pool
}

func NewPropertyRepository(db *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) InsertProperty(ctx context.Context, p *domain.Property) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO properties (id, owner_id, title, description, price, bedrooms, bathrooms,
			street, city, province, postal_code, property_type)
		VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at`,
		p.ID, p.OwnerID, p.Title, p.Description, p.Price.String(), p.Bedrooms, p.Bathrooms,
		p.Street, p.City, p.Province, p.PostalCode, string(p.PropertyType),
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

func (r *PropertyRepository) SearchProperties(ctx context.Context, f domain.PropertySearch) ([]*domain.Property, error) {
	query, args := buildSearchQuery(f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search properties: %w", err)
	}
	defer rows.Close()

	var out []*domain.Property
	for rows.Next() {
		var (
			p     domain.Property
			price string
			ptype string
		)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &price, &p.Bedrooms,
			&p.Bathrooms, &p.Street, &p.City, &p.Province, &p.PostalCode, &ptype, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("price %q: %w", price, err)
		}
		p.PropertyType = domain.PropertyType(ptype)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// buildSearchQuery turns the filter into a parameterized query. Only set
// fields add a condition.
func buildSearchQuery(f domain.PropertySearch) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.City != "" {
		add("lower(city) LIKE lower($%d) || '%%'", f.City)
	}
	if f.MinPrice != nil {
		add("price >= $%d::numeric", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		add("price <= $%d::numeric", f.MaxPrice.String())
	}
	if f.Bedrooms > 0 {
		add("bedrooms >= $%d", f.Bedrooms)
	}
	if f.PropertyType != "" {
		add("property_type = $%d", string(f.PropertyType))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, owner_id, title, description, price::text, bedrooms, bathrooms,
		street, city, province, postal_code, property_type, created_at FROM properties`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, f.Limit, f.Offset)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return sb.String(), args
}
