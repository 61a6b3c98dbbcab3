package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getAPIKeyByHashSQL = `SELECT id, key_hash, user_id, name FROM api_keys WHERE key_hash = $1`

	insertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, user_id, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key_hash) DO NOTHING`
)

// ErrAPIKeyNotFound is returned when no key matches the presented hash.
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKey maps a hashed credential to the user it authenticates.
type APIKey struct {
	ID      string
	KeyHash string
	UserID  string
	Name    string
}

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up a key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, getAPIKeyByHashSQL, hash).Scan(
		&key.ID, &key.KeyHash, &key.UserID, &key.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}
	return &key, nil
}

// Insert stores a new key hash. Duplicate hashes are ignored so seeding is
// idempotent.
func (r *APIKeyRepository) Insert(ctx context.Context, key *APIKey) error {
	_, err := r.pool.Exec(ctx, insertAPIKeySQL, key.ID, key.KeyHash, key.UserID, key.Name)
	if err != nil {
		return fmt.Errorf("inserting api key %q: %w", key.ID, err)
	}
	return nil
}
