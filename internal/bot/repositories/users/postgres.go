// Package users provides the PostgreSQL-backed repository for chat users.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/dbx"
)

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {

	query :=
		`INSERT INTO users (telegram_id, username, full_name, language, state, tier)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (telegram_id) DO NOTHING
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.TelegramID, user.Username, user.FullName, user.Language, user.State, user.Tier)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, telegramID int64) (*models.User, error) {
	query :=
		`SELECT telegram_id, username, full_name, language, state,
		        agreement_accepted_at, phone, tier, banned, created_at, updated_at
		 FROM users
		 WHERE telegram_id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, telegramID).Scan(
		&user.TelegramID, &user.Username, &user.FullName, &user.Language, &user.State,
		&user.AgreementAcceptedAt, &user.Phone, &user.Tier, &user.Banned,
		&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET username = $2, full_name = $3, language = $4, state = $5,
		     agreement_accepted_at = $6, phone = $7, updated_at = NOW()
		 WHERE telegram_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.TelegramID, user.Username, user.FullName, user.Language, user.State,
		user.AgreementAcceptedAt, user.Phone)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) SetTier(ctx context.Context, telegramID int64, tier models.SubscriptionTier) error {
	return r.setField(ctx, telegramID,
		`UPDATE users SET tier = $2, updated_at = NOW() WHERE telegram_id = $1`, tier)
}

func (r *PostgresRepository) SetBanned(ctx context.Context, telegramID int64, banned bool) error {
	return r.setField(ctx, telegramID,
		`UPDATE users SET banned = $2, updated_at = NOW() WHERE telegram_id = $1`, banned)
}

func (r *PostgresRepository) setField(ctx context.Context, telegramID int64, query string, value any) error {
	res, err := r.db.ExecContext(ctx, query, telegramID, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Counts(ctx context.Context) (*Counts, error) {
	query :=
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE state = 'contact_shared'),
		        COUNT(*) FILTER (WHERE tier = 'premium'),
		        COUNT(*) FILTER (WHERE banned)
		 FROM users
		 `

	c := &Counts{}
	err := r.db.QueryRowContext(ctx, query).Scan(&c.Total, &c.Onboarded, &c.Premium, &c.Banned)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}
