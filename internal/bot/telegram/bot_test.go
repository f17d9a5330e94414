package telegram

import (
	"context"
	"net/http"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/bot/onboarding"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/logging"
)

type sentMessage struct {
	text     string
	keyboard any
	edit     bool
}

type fakeAPI struct {
	sent   []sentMessage
	nextID int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.sent = append(f.sent, sentMessage{text: m.Text, keyboard: m.ReplyMarkup})
	case tgbotapi.EditMessageTextConfig:
		f.sent = append(f.sent, sentMessage{text: m.Text, edit: true})
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return "https://files.example/" + fileID, nil
}

func (f *fakeAPI) last(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeRegistry struct {
	user *models.User
}

func (f *fakeRegistry) EnsureUser(ctx context.Context, id int64, username, fullName string) (*models.User, error) {
	return f.user, nil
}

type fakeMachine struct {
	events []onboarding.Event
	err    error
}

func (f *fakeMachine) Advance(ctx context.Context, id int64, ev onboarding.Event) (models.OnboardingState, error) {
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, ev)
	return models.StateContactShared, nil
}

type fakeScanner struct {
	req     *models.ScanRequest
	err     error
	targets []models.ScanTarget
}

func (f *fakeScanner) Run(ctx context.Context, id int64, target models.ScanTarget) (*models.ScanRequest, error) {
	f.targets = append(f.targets, target)
	if f.err != nil {
		return nil, f.err
	}
	return f.req, nil
}

func newTestBot(user *models.User) (*Bot, *fakeAPI, *fakeMachine, *fakeScanner) {
	api := &fakeAPI{}
	machine := &fakeMachine{}
	scanner := &fakeScanner{}
	b := &Bot{
		api:         api,
		registry:    &fakeRegistry{user: user},
		machine:     machine,
		scanner:     scanner,
		webAppURL:   "https://webapp.example",
		maxFileSize: 20 << 20,
		downloader:  http.DefaultClient,
		logger:      logging.NewNop(),
	}
	return b, api, machine, scanner
}

func message(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 42, FirstName: "Alice", UserName: "alice"},
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      text,
	}
}

func command(cmd string) *tgbotapi.Message {
	msg := message("/" + cmd)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}}
	return msg
}

func newUser() *models.User {
	return &models.User{TelegramID: 42, State: models.StateNew}
}

func onboardedUser() *models.User {
	return &models.User{TelegramID: 42, State: models.StateContactShared, Language: models.LanguageEnglish}
}

func TestStart_NewUserGetsLanguageKeyboard(t *testing.T) {
	b, api, _, _ := newTestBot(newUser())

	require.NoError(t, b.handleMessage(context.Background(), command("start")))

	last := api.last(t)
	assert.Equal(t, welcomeText, last.text)
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, last.keyboard)
}

func TestStart_OnboardedUserGetsMainMenu(t *testing.T) {
	b, api, _, _ := newTestBot(onboardedUser())

	require.NoError(t, b.handleMessage(context.Background(), command("start")))

	assert.Equal(t, "🏠 Main Menu", api.last(t).text)
}

func TestBannedUserIsRefused(t *testing.T) {
	u := onboardedUser()
	u.Banned = true
	b, api, _, scanner := newTestBot(u)

	require.NoError(t, b.handleMessage(context.Background(), message("https://example.com")))

	assert.Equal(t, bannedText, api.last(t).text)
	assert.Empty(t, scanner.targets)
}

func TestLanguageChoiceAdvancesAndPresentsAgreement(t *testing.T) {
	b, api, machine, _ := newTestBot(newUser())

	require.NoError(t, b.handleMessage(context.Background(), message(buttonRussian)))

	require.Len(t, machine.events, 2)
	assert.Equal(t, onboarding.LanguageChosen{Language: models.LanguageRussian}, machine.events[0])
	assert.Equal(t, onboarding.AgreementPresented{}, machine.events[1])
	assert.Equal(t, "Нажмите кнопку ниже для регистрации:", api.last(t).text)
}

func TestWebAppDataAcceptsAgreement(t *testing.T) {
	u := newUser()
	u.State = models.StateAgreementPending
	u.Language = models.LanguageEnglish
	b, api, machine, _ := newTestBot(u)

	msg := message("")
	msg.WebAppData = &tgbotapi.WebAppData{Data: `{"s":"verified"}`}

	require.NoError(t, b.handleMessage(context.Background(), msg))

	require.Len(t, machine.events, 1)
	assert.Equal(t, onboarding.AgreementSubmitted{}, machine.events[0])
	assert.Contains(t, api.last(t).text, "share your phone number")
}

func TestContactCompletesOnboarding(t *testing.T) {
	u := newUser()
	u.State = models.StateAgreementAccepted
	u.Language = models.LanguageEnglish
	b, api, machine, _ := newTestBot(u)

	msg := message("")
	msg.Contact = &tgbotapi.Contact{PhoneNumber: "+998901234567", UserID: 42}

	require.NoError(t, b.handleMessage(context.Background(), msg))

	require.Len(t, machine.events, 1)
	assert.Equal(t, onboarding.ContactShared{Phone: "+998901234567"}, machine.events[0])
	assert.Equal(t, "🏠 Main Menu", api.last(t).text)
}

func TestForeignContactCardIsIgnored(t *testing.T) {
	u := newUser()
	u.State = models.StateAgreementAccepted
	b, _, machine, _ := newTestBot(u)

	msg := message("")
	msg.Contact = &tgbotapi.Contact{PhoneNumber: "+1000", UserID: 777}

	require.NoError(t, b.handleMessage(context.Background(), msg))

	assert.Empty(t, machine.events)
}

func TestUnfinishedOnboardingResumesAtCurrentStep(t *testing.T) {
	u := newUser()
	u.State = models.StateAgreementAccepted
	u.Language = models.LanguageEnglish
	b, api, _, scanner := newTestBot(u)

	require.NoError(t, b.handleMessage(context.Background(), message("https://example.com")))

	assert.Contains(t, api.last(t).text, "share your phone number")
	assert.Empty(t, scanner.targets)
}

func TestURLMessageTriggersScanAndRendersReport(t *testing.T) {
	b, api, _, scanner := newTestBot(onboardedUser())
	scanner.req = &models.ScanRequest{
		Status: models.ScanCompleted,
		Result: &models.ScanResult{
			Verdict:      models.VerdictClean,
			EnginesTotal: 70,
			Permalink:    "https://provider.example/report",
		},
	}

	require.NoError(t, b.handleMessage(context.Background(), message("https://example.com/page")))

	require.Len(t, scanner.targets, 1)
	assert.Equal(t, models.URLTarget("https://example.com/page"), scanner.targets[0])

	last := api.last(t)
	assert.True(t, last.edit)
	assert.Contains(t, last.text, "XAVFSIZ")
	assert.Contains(t, last.text, "70")
}

func TestScanBusyIsReportedInline(t *testing.T) {
	b, api, _, scanner := newTestBot(onboardedUser())
	scanner.err = common.ErrScanInProgress

	require.NoError(t, b.handleMessage(context.Background(), message("https://example.com")))

	last := api.last(t)
	assert.True(t, last.edit)
	assert.Contains(t, last.text, "still running")
}

func TestScanTimeoutIsReportedInline(t *testing.T) {
	b, api, _, scanner := newTestBot(onboardedUser())
	scanner.err = common.ErrScanTimedOut

	require.NoError(t, b.handleMessage(context.Background(), message("https://example.com")))

	assert.Contains(t, api.last(t).text, "timed out")
}

func TestOversizedDocumentIsRejectedBeforeDownload(t *testing.T) {
	b, api, _, scanner := newTestBot(onboardedUser())

	msg := message("")
	msg.Document = &tgbotapi.Document{FileID: "f1", FileName: "huge.bin", FileSize: 21 << 20}

	require.NoError(t, b.handleMessage(context.Background(), msg))

	assert.Contains(t, api.last(t).text, "too large")
	assert.Empty(t, scanner.targets)
}

func TestPlainTextGetsHelpHint(t *testing.T) {
	b, api, _, _ := newTestBot(onboardedUser())

	require.NoError(t, b.handleMessage(context.Background(), message("hello there")))

	assert.Contains(t, api.last(t).text, "link")
}
