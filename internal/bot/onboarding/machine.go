package onboarding

import (
	"context"
	"fmt"
	"time"

	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/logging"
)

// UserStore is the subset of the user registry the machine needs.
type UserStore interface {
	Find(ctx context.Context, telegramID int64) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// Machine advances users through the onboarding flow. It is the only
// component that mutates onboarding fields of a user record.
type Machine struct {
	users  UserStore
	logger logging.Logger
}

func NewMachine(users UserStore, logger logging.Logger) *Machine {
	return &Machine{users: users, logger: logger.With("module", "onboarding")}
}

// Advance applies one event to the user's current state and persists the
// result. It returns the state after the event. A replayed event in the
// state it already produced returns that state with no error and no write.
// Inapplicable events fail with common.ErrEventNotApplicable.
func (m *Machine) Advance(ctx context.Context, telegramID int64, ev Event) (models.OnboardingState, error) {

	user, err := m.users.Find(ctx, telegramID)
	if err != nil {
		return "", fmt.Errorf("loading user: %w", err)
	}

	changed, err := apply(user, ev)
	if err != nil {
		return "", err
	}

	if !changed {
		// idempotent replay
		return user.State, nil
	}

	if err := m.users.Save(ctx, user); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	m.logger.Info(ctx, "onboarding advanced", "user", telegramID, "state", user.State)
	return user.State, nil
}

// apply mutates user according to ev, reporting whether anything changed.
func apply(user *models.User, ev Event) (bool, error) {
	switch e := ev.(type) {

	case LanguageChosen:
		if !models.KnownLanguage(e.Language) {
			return false, fmt.Errorf("%w: unknown language %q", common.ErrValidation, e.Language)
		}
		switch user.State {
		case models.StateNew:
			user.Language = e.Language
			user.State = models.StateLanguageSelected
			return true, nil
		case models.StateLanguageSelected:
			// re-selection is allowed until the agreement step is armed
			if user.Language == e.Language {
				return false, nil
			}
			user.Language = e.Language
			return true, nil
		}
		return false, rejected(ev, user.State)

	case AgreementPresented:
		switch user.State {
		case models.StateLanguageSelected:
			user.State = models.StateAgreementPending
			return true, nil
		case models.StateAgreementPending:
			return false, nil
		}
		return false, rejected(ev, user.State)

	case AgreementSubmitted:
		switch user.State {
		case models.StateAgreementPending:
			now := time.Now()
			user.AgreementAcceptedAt = &now
			user.State = models.StateAgreementAccepted
			return true, nil
		case models.StateAgreementAccepted:
			return false, nil
		}
		return false, rejected(ev, user.State)

	case ContactShared:
		if e.Phone == "" {
			return false, fmt.Errorf("%w: empty phone number", common.ErrValidation)
		}
		switch user.State {
		case models.StateAgreementAccepted:
			user.Phone = e.Phone
			user.State = models.StateContactShared
			return true, nil
		case models.StateContactShared:
			return false, nil
		}
		return false, rejected(ev, user.State)
	}

	return false, fmt.Errorf("unhandled event type %T", ev)
}

func rejected(ev Event, state models.OnboardingState) error {
	return fmt.Errorf("%w: %T in state %q", common.ErrEventNotApplicable, ev, state)
}
