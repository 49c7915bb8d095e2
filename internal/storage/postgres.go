package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/skillify/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures
const uniqueViolation = "23505"

// PostgresRepository implements AccountRepository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 10
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the connection pool, for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateAccount inserts a new account
func (r *PostgresRepository) CreateAccount(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, a.ID, a.Email, a.Name, a.PasswordHash, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByEmail retrieves an account by its normalized email
func (r *PostgresRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getAccount(ctx, "email", email)
}

// GetAccountByID retrieves an account by id
func (r *PostgresRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getAccount(ctx, "id", id)
}

func (r *PostgresRepository) getAccount(ctx context.Context, field, value string) (*models.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, email, name, password_hash, created_at, last_sign_in_at
		FROM accounts
		WHERE %s = $1
	`, field)

	var a models.Account
	var lastSignIn sql.NullTime

	err := r.pool.QueryRow(ctx, query, value).Scan(
		&a.ID,
		&a.Email,
		&a.Name,
		&a.PasswordHash,
		&a.CreatedAt,
		&lastSignIn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if lastSignIn.Valid {
		a.LastSignInAt = &lastSignIn.Time
	}

	return &a, nil
}

// UpdateAccountName changes the display name
func (r *PostgresRepository) UpdateAccountName(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", id)
	}
	return nil
}

// TouchLastSignIn records a successful sign-in
func (r *PostgresRepository) TouchLastSignIn(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE accounts SET last_sign_in_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last sign-in: %w", err)
	}
	return nil
}
