package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository stores accounts for the built-in identity provider.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, user_type, created_at`

func (r *UserRepository) CreateUser(ctx context.Context, u *domain.LocalUser) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, user_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		u.ID, u.Email, u.PasswordHash, u.Metadata.FirstName, u.Metadata.LastName,
		u.Metadata.Phone, string(u.Metadata.UserType),
	).Scan(&u.CreatedAt)
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
			return xerrors.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*domain.LocalUser, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.LocalUser, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrAccountNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query, arg string) (*domain.LocalUser, error) {
	var (
		u        domain.LocalUser
		userType string
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash,
		&u.Metadata.FirstName, &u.Metadata.LastName, &u.Metadata.Phone, &userType, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Metadata.UserType = domain.UserType(userType)
	return &u, nil
}
