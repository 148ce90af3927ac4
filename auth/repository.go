package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrProfileNotFound signals that the profile does not exist.
	ErrProfileNotFound = errors.New("auth: profile not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
)

// Repository handles data access for authentication.
type Repository interface {
	CreateProfile(ctx context.Context, params CreateProfileParams) (Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (Profile, error)
	GetProfileByID(ctx context.Context, id string) (Profile, error)
}

// CreateProfileParams contains write parameters for creating profiles.
type CreateProfileParams struct {
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const profileColumns = `id, email, full_name, password_hash, phone, role::text, created_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.PasswordHash, &p.Phone, &p.Role, &p.CreatedAt)
	return p, err
}

// CreateProfile inserts a new profile with hashed password.
func (r *PGRepository) CreateProfile(ctx context.Context, params CreateProfileParams) (Profile, error) {
	const insertSQL = `
		INSERT INTO profiles (email, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4::user_role)
		RETURNING ` + profileColumns + `
	`
	p, err := scanProfile(r.pool.QueryRow(ctx, insertSQL, params.Email, params.FullName, params.PasswordHash, params.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Profile{}, ErrDuplicateEmail
		}
		return Profile{}, fmt.Errorf("auth: create profile: %w", err)
	}
	return p, nil
}

// GetProfileByEmail retrieves a profile by email address.
func (r *PGRepository) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	const selectSQL = `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	p, err := scanProfile(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("auth: get profile by email: %w", err)
	}
	return p, nil
}

// GetProfileByID retrieves a profile by ID.
func (r *PGRepository) GetProfileByID(ctx context.Context, id string) (Profile, error) {
	const selectSQL = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("auth: get profile by id: %w", err)
	}
	return p, nil
}
