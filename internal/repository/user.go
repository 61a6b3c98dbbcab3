package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doughlab/pizzeria/internal/domain/user"
)

const (
	userColumns = `id, name, email, phone, role, street, city, state, zip, active`

	getUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	listUsersSQL = `SELECT ` + userColumns + ` FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	countUsersSQL = `SELECT COUNT(*) FROM users WHERE ($1 = '' OR role = $1)`

	setUserActiveSQL = `UPDATE users SET active = $2 WHERE id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns a single user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, getUserByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	return &u, nil
}

// List pages through users with an optional role filter.
func (r *UserRepository) List(ctx context.Context, page user.ListPage) ([]user.User, int, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, listUsersSQL, string(page.Role), limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countUsersSQL, string(page.Role)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	return users, total, nil
}

// SetActive toggles a user's active flag.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, setUserActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("setting user %q active: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u    user.User
		role string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &role,
		&u.Address.Street, &u.Address.City, &u.Address.State, &u.Address.Zip,
		&u.Active,
	)
	u.Role = user.Role(role)
	return u, err
}
