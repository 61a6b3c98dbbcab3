// Command seed-db loads the ingredient catalog from a JSON file and creates
// the initial accounts and API keys. Safe to re-run: everything upserts.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/doughlab/pizzeria/internal/repository"
)

type itemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Threshold   int             `json:"threshold"`
}

const (
	upsertItemSQL = `INSERT INTO catalog_items (id, name, description, price, category, available, stock, threshold)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			updated_at = now()`

	upsertUserSQL = `INSERT INTO users (id, name, email, phone, role, street, city, state, zip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role`
)

func main() {
	var (
		databaseURL  string
		catalogFile  string
		adminKey     string
		customerKey  string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed (or PIZZA_SEED_ADMIN_KEY env)")
	flag.StringVar(&customerKey, "customer-key", "", "customer API key to seed (or PIZZA_SEED_CUSTOMER_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or PIZZA_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminKey == "" {
		adminKey = os.Getenv("PIZZA_SEED_ADMIN_KEY")
	}
	if customerKey == "" {
		customerKey = os.Getenv("PIZZA_SEED_CUSTOMER_KEY")
	}
	if adminKey == "" || customerKey == "" {
		slog.Error("API keys are required: set --admin-key/--customer-key or PIZZA_SEED_ADMIN_KEY/PIZZA_SEED_CUSTOMER_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("PIZZA_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, adminKey, customerKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, adminKey, customerKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedUsers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedAPIKeys(ctx, pool, adminKey, customerKey, pepper); err != nil {
		return errors.Wrap(err, "seed api keys")
	}
	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var items []itemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("upserting catalog items", slog.Int("count", len(items)))

	for _, item := range items {
		if _, err := pool.Exec(ctx, upsertItemSQL,
			item.ID, item.Name, item.Description, item.Price, item.Category,
			item.Stock, item.Threshold,
		); err != nil {
			return errors.Wrapf(err, "upsert item %s", item.ID)
		}
		slog.Info("upserted item", slog.String("id", item.ID), slog.String("name", item.Name))
	}
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding default accounts")

	users := []struct {
		id, name, email, phone, role string
		street, city, state, zip     string
	}{
		{"admin", "Store Admin", "admin@pizzeria.local", "", "admin", "", "", "", ""},
		{"customer", "Test Customer", "customer@pizzeria.local", "+911234567890", "customer",
			"42 MG Road", "Pune", "MH", "411001"},
	}

	for _, u := range users {
		if _, err := pool.Exec(ctx, upsertUserSQL,
			u.id, u.name, u.email, u.phone, u.role, u.street, u.city, u.state, u.zip,
		); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.id)
		}
		slog.Info("upserted user", slog.String("id", u.id), slog.String("role", u.role))
	}
	return nil
}

func seedAPIKeys(ctx context.Context, pool *pgxpool.Pool, adminKey, customerKey, pepper string) error {
	slog.Info("seeding API keys")

	apikeys := repository.NewAPIKeyRepository(pool)
	keys := []struct {
		id, userID, name, raw string
	}{
		{"admin-default", "admin", "Default admin key", adminKey},
		{"customer-default", "customer", "Default customer key", customerKey},
	}

	for _, k := range keys {
		if err := apikeys.Insert(ctx, &repository.APIKey{
			ID:      k.id,
			KeyHash: hashKey(k.raw, pepper),
			UserID:  k.userID,
			Name:    k.name,
		}); err != nil {
			return errors.Wrapf(err, "insert key %s", k.id)
		}
		slog.Info("inserted API key", slog.String("id", k.id), slog.String("user", k.userID))
	}
	return nil
}

func hashKey(raw, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
