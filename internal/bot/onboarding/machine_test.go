package onboarding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/logging"
)

type memUserStore struct {
	users map[int64]*models.User
	saves int
}

func newMemUserStore(users ...*models.User) *memUserStore {
	s := &memUserStore{users: map[int64]*models.User{}}
	for _, u := range users {
		s.users[u.TelegramID] = u
	}
	return s
}

func (s *memUserStore) Find(ctx context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) Save(ctx context.Context, u *models.User) error {
	s.saves++
	cp := *u
	s.users[u.TelegramID] = &cp
	return nil
}

func newTestMachine(store UserStore) *Machine {
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewMachine(store, l)
}

func TestAdvance_FullFlow(t *testing.T) {
	store := newMemUserStore(&models.User{TelegramID: 1, State: models.StateNew})
	m := newTestMachine(store)
	ctx := context.Background()

	steps := []struct {
		ev   Event
		want models.OnboardingState
	}{
		{LanguageChosen{Language: models.LanguageEnglish}, models.StateLanguageSelected},
		{AgreementPresented{}, models.StateAgreementPending},
		{AgreementSubmitted{}, models.StateAgreementAccepted},
		{ContactShared{Phone: "+15550000"}, models.StateContactShared},
	}

	for _, step := range steps {
		got, err := m.Advance(ctx, 1, step.ev)
		require.NoError(t, err)
		assert.Equal(t, step.want, got)
	}

	final := store.users[1]
	assert.True(t, final.Onboarded())
	assert.True(t, final.AgreementAccepted())
	assert.Equal(t, models.LanguageEnglish, final.Language)
	assert.Equal(t, "+15550000", final.Phone)
}

func TestAdvance_Idempotent(t *testing.T) {
	store := newMemUserStore(&models.User{TelegramID: 1, State: models.StateNew})
	m := newTestMachine(store)
	ctx := context.Background()

	events := []Event{
		LanguageChosen{Language: models.LanguageRussian},
		AgreementPresented{},
		AgreementSubmitted{},
		ContactShared{Phone: "+15550000"},
	}

	for _, ev := range events {
		first, err := m.Advance(ctx, 1, ev)
		require.NoError(t, err)

		saves := store.saves
		second, err := m.Advance(ctx, 1, ev)
		require.NoError(t, err, "replaying %T must not fail", ev)
		assert.Equal(t, first, second, "replaying %T must not change state", ev)
		assert.Equal(t, saves, store.saves, "replaying %T must not write", ev)
	}
}

func TestAdvance_LanguageReselection(t *testing.T) {
	store := newMemUserStore(&models.User{TelegramID: 1, State: models.StateNew})
	m := newTestMachine(store)
	ctx := context.Background()

	_, err := m.Advance(ctx, 1, LanguageChosen{Language: models.LanguageUzbek})
	require.NoError(t, err)

	// changing language before the agreement step is fine
	got, err := m.Advance(ctx, 1, LanguageChosen{Language: models.LanguageEnglish})
	require.NoError(t, err)
	assert.Equal(t, models.StateLanguageSelected, got)
	assert.Equal(t, models.LanguageEnglish, store.users[1].Language)

	// once the agreement is armed, re-selection is rejected
	_, err = m.Advance(ctx, 1, AgreementPresented{})
	require.NoError(t, err)
	_, err = m.Advance(ctx, 1, LanguageChosen{Language: models.LanguageRussian})
	assert.ErrorIs(t, err, common.ErrEventNotApplicable)
}

func TestAdvance_RejectsOutOfOrderEvents(t *testing.T) {
	tests := []struct {
		name  string
		state models.OnboardingState
		ev    Event
	}{
		{"contact before agreement", models.StateLanguageSelected, ContactShared{Phone: "+15550000"}},
		{"agreement before language", models.StateNew, AgreementSubmitted{}},
		{"agreement button before language", models.StateNew, AgreementPresented{}},
		{"language after acceptance", models.StateAgreementAccepted, LanguageChosen{Language: models.LanguageUzbek}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemUserStore(&models.User{TelegramID: 1, State: tc.state})
			m := newTestMachine(store)

			_, err := m.Advance(context.Background(), 1, tc.ev)
			assert.ErrorIs(t, err, common.ErrEventNotApplicable)
			assert.Equal(t, tc.state, store.users[1].State, "state must not move on rejection")
		})
	}
}

func TestAdvance_ValidatesEventPayload(t *testing.T) {
	store := newMemUserStore(&models.User{TelegramID: 1, State: models.StateNew})
	m := newTestMachine(store)

	_, err := m.Advance(context.Background(), 1, LanguageChosen{Language: "xx"})
	assert.ErrorIs(t, err, common.ErrValidation)

	store.users[1].State = models.StateAgreementAccepted
	_, err = m.Advance(context.Background(), 1, ContactShared{})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAdvance_UnknownUser(t *testing.T) {
	m := newTestMachine(newMemUserStore())

	_, err := m.Advance(context.Background(), 99, AgreementSubmitted{})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
