package users

import (
	"context"

	"github.com/sarhadsec/scanbot/internal/bot/models"
)

// Counts is an aggregate snapshot used by the admin API.
type Counts struct {
	Total     int64
	Onboarded int64
	Premium   int64
	Banned    int64
}

type Repository interface {
	// Create inserts the user if it does not exist yet. Re-inserting an
	// existing id is a no-op so first-contact handling is race-safe.
	Create(ctx context.Context, user *models.User) error
	Find(ctx context.Context, telegramID int64) (*models.User, error)
	// Update persists the mutable onboarding and profile fields.
	Update(ctx context.Context, user *models.User) error
	SetTier(ctx context.Context, telegramID int64, tier models.SubscriptionTier) error
	SetBanned(ctx context.Context, telegramID int64, banned bool) error
	Counts(ctx context.Context) (*Counts, error)
}
