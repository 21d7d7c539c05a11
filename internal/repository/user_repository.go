package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// UserFilter narrows a directory listing. Results are always in creation
// order so candidate iteration is stable.
type UserFilter struct {
	Role        *domain.Role
	HasLocation bool
	Limit       int
}

// Matches evaluates the filter in memory.
func (f UserFilter) Matches(user *domain.User) bool {
	if f.Role != nil && user.Role != *f.Role {
		return false
	}
	if f.HasLocation && user.Location == nil {
		return false
	}
	return true
}

// UserRepository is the user directory. Emails are stored normalized.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByEmailOrMobile(ctx context.Context, term string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates the Postgres-backed directory.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `email, password_hash, first_name, last_name, mobile_number, role,
               location_lat, location_lng, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	const query = `
        INSERT INTO users (email, password_hash, first_name, last_name, mobile_number, role, location_lat, location_lng)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at`
	lat, lng := locationArgs(user.Location)
	err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.MobileNumber,
		user.Role,
		lat,
		lng,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET password_hash=$1, first_name=$2, last_name=$3, mobile_number=$4, role=$5,
            location_lat=$6, location_lng=$7, updated_at=NOW()
        WHERE email=$8
        RETURNING updated_at`
	lat, lng := locationArgs(user.Location)
	err := r.pool.QueryRow(ctx, query,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.MobileNumber,
		user.Role,
		lat,
		lng,
		domain.NormalizeEmail(user.Email),
	).Scan(&user.UpdatedAt)
	if err != nil {
		return mapNoRows(err)
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, domain.NormalizeEmail(email))
}

func (r *userRepository) FindByEmailOrMobile(ctx context.Context, term string) (*domain.User, error) {
	term = strings.TrimSpace(term)
	return r.fetchOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=LOWER($1) OR mobile_number=$1 ORDER BY created_at LIMIT 1`, term)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.HasLocation {
		clauses = append(clauses, "location_lat IS NOT NULL AND location_lng IS NOT NULL")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC, email ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) fetchOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user     domain.User
		lat, lng *float64
	)
	if err := row.Scan(
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.MobileNumber,
		&user.Role,
		&lat,
		&lng,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		user.Location = &domain.Location{Lat: *lat, Lng: *lng}
	}
	return &user, nil
}

func locationArgs(loc *domain.Location) (*float64, *float64) {
	if loc == nil {
		return nil, nil
	}
	lat, lng := loc.Lat, loc.Lng
	return &lat, &lng
}

func stampUser(user *domain.User, now time.Time) {
	user.Email = domain.NormalizeEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now.UTC()
	}
	user.UpdatedAt = now.UTC()
}
