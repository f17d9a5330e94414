// Package users implements the user registry: first-contact record creation,
// profile upkeep and the administrative flags.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/bot/repositories/repomanager"
	userrepo "github.com/sarhadsec/scanbot/internal/bot/repositories/users"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/dbx"
	"github.com/sarhadsec/scanbot/internal/logging"
)

// Registry manages user records. It satisfies the onboarding machine's
// store contract via Find and Save.
type Registry struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewRegistry(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *Registry {
	return &Registry{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "users"),
	}
}

// EnsureUser returns the record for the given Telegram id, creating it in
// state new on first contact. Profile fields are refreshed when Telegram
// reports new values. Insert and read-back run in one transaction so a
// concurrent first contact still yields the authoritative row.
func (r *Registry) EnsureUser(ctx context.Context, telegramID int64, username, fullName string) (*models.User, error) {
	user, err := r.repomanager.Users(r.db).Find(ctx, telegramID)
	if errors.Is(err, common.ErrNotFound) {
		return r.register(ctx, telegramID, username, fullName)
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if user.Username != username || user.FullName != fullName {
		user.Username = username
		user.FullName = fullName
		if err := r.repomanager.Users(r.db).Update(ctx, user); err != nil {
			return nil, fmt.Errorf("updating profile: %w", err)
		}
	}
	return user, nil
}

func (r *Registry) register(ctx context.Context, telegramID int64, username, fullName string) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repomanager.Users(tx)
		if err := repo.Create(ctx, &models.User{
			TelegramID: telegramID,
			Username:   username,
			FullName:   fullName,
			State:      models.StateNew,
			Tier:       models.TierFree,
		}); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		// Create is a no-op when a concurrent first contact won the
		// insert, so re-read the row.
		found, err := repo.Find(ctx, telegramID)
		if err != nil {
			return fmt.Errorf("reading back user: %w", err)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "user registered", "telegram_id", telegramID)
	return user, nil
}

// Find returns the user record or common.ErrNotFound.
func (r *Registry) Find(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.repomanager.Users(r.db).Find(ctx, telegramID)
}

// Save persists the user's mutable fields.
func (r *Registry) Save(ctx context.Context, user *models.User) error {
	return r.repomanager.Users(r.db).Update(ctx, user)
}

// SetPremium toggles the subscription tier. The tier is inert data and does
// not change scanning behaviour.
func (r *Registry) SetPremium(ctx context.Context, telegramID int64, premium bool) error {
	tier := models.TierFree
	if premium {
		tier = models.TierPremium
	}
	if err := r.repomanager.Users(r.db).SetTier(ctx, telegramID, tier); err != nil {
		return err
	}
	r.logger.Info(ctx, "tier changed", "telegram_id", telegramID, "tier", string(tier))
	return nil
}

// SetBanned toggles the ban flag. Banned users are refused at the scan gate
// and in the transport.
func (r *Registry) SetBanned(ctx context.Context, telegramID int64, banned bool) error {
	if err := r.repomanager.Users(r.db).SetBanned(ctx, telegramID, banned); err != nil {
		return err
	}
	r.logger.Info(ctx, "ban flag changed", "telegram_id", telegramID, "banned", banned)
	return nil
}

// Counts returns the aggregate user counters for the admin API.
func (r *Registry) Counts(ctx context.Context) (*userrepo.Counts, error) {
	return r.repomanager.Users(r.db).Counts(ctx)
}
