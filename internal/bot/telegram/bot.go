// Package telegram is the chat transport. It translates incoming updates into
// registry, onboarding and scan operations and renders their outcomes; it
// holds no business logic of its own.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/bot/onboarding"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/logging"
)

// Registry is the slice of the user registry the transport needs.
type Registry interface {
	EnsureUser(ctx context.Context, telegramID int64, username, fullName string) (*models.User, error)
}

// Onboarder advances the registration state machine.
type Onboarder interface {
	Advance(ctx context.Context, telegramID int64, ev onboarding.Event) (models.OnboardingState, error)
}

// Scanner runs one scan end to end.
type Scanner interface {
	Run(ctx context.Context, telegramID int64, target models.ScanTarget) (*models.ScanRequest, error)
}

// Stager stores downloaded file bytes and returns their digest.
type Stager interface {
	Stage(ctx context.Context, content io.Reader) (sha256hex string, size int64, err error)
}

// api is the slice of tgbotapi.BotAPI used by the handlers.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Bot struct {
	api      api
	updates  tgbotapi.UpdatesChannel
	registry Registry
	machine  Onboarder
	scanner  Scanner
	files    Stager

	webAppURL   string
	maxFileSize int64
	downloader  *http.Client
	logger      logging.Logger
}

func NewBot(botAPI *tgbotapi.BotAPI, registry Registry, machine Onboarder, scanner Scanner, files Stager,
	webAppURL string, maxFileSize int64, logger logging.Logger) *Bot {

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return &Bot{
		api:         botAPI,
		updates:     botAPI.GetUpdatesChan(u),
		registry:    registry,
		machine:     machine,
		scanner:     scanner,
		files:       files,
		webAppURL:   webAppURL,
		maxFileSize: maxFileSize,
		downloader:  &http.Client{Timeout: time.Minute},
		logger:      logger.With("module", "telegram"),
	}
}

// Run consumes updates until ctx is cancelled. Each message is handled in
// its own goroutine so one slow scan does not stall the chat.
func (b *Bot) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-b.updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go func(msg *tgbotapi.Message) {
				if err := b.handleMessage(ctx, msg); err != nil {
					b.logger.Error(ctx, "handling message failed",
						"telegram_id", msg.From.ID, "error", err)
				}
			}(update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	from := msg.From
	if from == nil || from.IsBot {
		return nil
	}

	user, err := b.registry.EnsureUser(ctx, from.ID, from.UserName, fullName(from))
	if err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	if user.Banned {
		return b.send(tgbotapi.NewMessage(msg.Chat.ID, bannedText))
	}

	switch {
	case msg.IsCommand():
		return b.handleCommand(ctx, msg, user)
	case msg.WebAppData != nil:
		return b.handleAgreementData(ctx, msg, user)
	case msg.Contact != nil:
		return b.handleContact(ctx, msg, user)
	}

	if lang, ok := languageByButton[msg.Text]; ok {
		return b.handleLanguageChoice(ctx, msg, lang)
	}

	if !user.Onboarded() {
		return b.resumeOnboarding(msg, user)
	}

	p := localize(user.Language)
	switch msg.Text {
	case p.LinkCheckButton:
		return b.sendWithKeyboard(msg.Chat.ID, p.LinkPrompt, backKeyboard(user.Language))
	case p.FileCheckButton:
		return b.sendWithKeyboard(msg.Chat.ID, p.FilePrompt, backKeyboard(user.Language))
	case p.BackButton:
		return b.sendWithKeyboard(msg.Chat.ID, p.MainMenu, mainMenuKeyboard(user.Language))
	}

	if msg.Document != nil {
		return b.scanDocument(ctx, msg, user)
	}
	if strings.HasPrefix(msg.Text, "http") {
		return b.scanURL(ctx, msg, user)
	}

	return b.send(tgbotapi.NewMessage(msg.Chat.ID, p.Help))
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *models.User) error {
	switch msg.Command() {
	case "start":
		if user.Onboarded() {
			p := localize(user.Language)
			return b.sendWithKeyboard(msg.Chat.ID, p.MainMenu, mainMenuKeyboard(user.Language))
		}
		return b.sendWithKeyboard(msg.Chat.ID, welcomeText, languageKeyboard())
	case "help":
		p := localize(user.Language)
		return b.send(tgbotapi.NewMessage(msg.Chat.ID, p.Help))
	}
	return nil
}

// handleLanguageChoice records the language and immediately presents the
// agreement, moving the user to the pending step.
func (b *Bot) handleLanguageChoice(ctx context.Context, msg *tgbotapi.Message, lang models.Language) error {
	from := msg.From

	if _, err := b.machine.Advance(ctx, from.ID, onboarding.LanguageChosen{Language: lang}); err != nil {
		if errors.Is(err, common.ErrEventNotApplicable) {
			return nil
		}
		return fmt.Errorf("choosing language: %w", err)
	}

	if _, err := b.machine.Advance(ctx, from.ID, onboarding.AgreementPresented{}); err != nil {
		return fmt.Errorf("presenting agreement: %w", err)
	}

	p := localize(lang)
	return b.sendWithKeyboard(msg.Chat.ID, p.AgreementPrompt, agreementKeyboard(b.webAppURL, lang))
}

// handleAgreementData accepts the WebApp payload confirming the agreement.
func (b *Bot) handleAgreementData(ctx context.Context, msg *tgbotapi.Message, user *models.User) error {
	if _, err := b.machine.Advance(ctx, msg.From.ID, onboarding.AgreementSubmitted{}); err != nil {
		if errors.Is(err, common.ErrEventNotApplicable) {
			return nil
		}
		return fmt.Errorf("accepting agreement: %w", err)
	}

	p := localize(user.Language)
	return b.sendWithKeyboard(msg.Chat.ID, p.AgreementDone, contactKeyboard(user.Language))
}

func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message, user *models.User) error {
	// Only the user's own contact card finishes registration.
	if msg.Contact.UserID != msg.From.ID {
		return nil
	}

	if _, err := b.machine.Advance(ctx, msg.From.ID, onboarding.ContactShared{Phone: msg.Contact.PhoneNumber}); err != nil {
		if errors.Is(err, common.ErrEventNotApplicable) {
			return nil
		}
		return fmt.Errorf("sharing contact: %w", err)
	}

	p := localize(user.Language)
	if err := b.send(tgbotapi.NewMessage(msg.Chat.ID, p.RegistrationDone)); err != nil {
		return err
	}
	return b.sendWithKeyboard(msg.Chat.ID, p.MainMenu, mainMenuKeyboard(user.Language))
}

// resumeOnboarding re-sends the prompt matching the user's current step so an
// interrupted registration picks up where it stopped.
func (b *Bot) resumeOnboarding(msg *tgbotapi.Message, user *models.User) error {
	p := localize(user.Language)
	switch user.State {
	case models.StateNew:
		return b.sendWithKeyboard(msg.Chat.ID, welcomeText, languageKeyboard())
	case models.StateLanguageSelected, models.StateAgreementPending:
		return b.sendWithKeyboard(msg.Chat.ID, p.AgreementPrompt, agreementKeyboard(b.webAppURL, user.Language))
	case models.StateAgreementAccepted:
		return b.sendWithKeyboard(msg.Chat.ID, p.AgreementDone, contactKeyboard(user.Language))
	}
	return b.send(tgbotapi.NewMessage(msg.Chat.ID, p.NotOnboarded))
}

func (b *Bot) scanURL(ctx context.Context, msg *tgbotapi.Message, user *models.User) error {
	p := localize(user.Language)

	status, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, p.Scanning))
	if err != nil {
		return err
	}

	req, err := b.scanner.Run(ctx, user.TelegramID, models.URLTarget(strings.TrimSpace(msg.Text)))
	return b.renderOutcome(msg.Chat.ID, status.MessageID, p, req, err)
}

func (b *Bot) scanDocument(ctx context.Context, msg *tgbotapi.Message, user *models.User) error {
	p := localize(user.Language)
	doc := msg.Document

	if doc.FileSize > int(b.maxFileSize) {
		return b.send(tgbotapi.NewMessage(msg.Chat.ID, p.FileTooBig))
	}

	status, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, p.Downloading))
	if err != nil {
		return err
	}

	digest, size, err := b.stageDocument(ctx, doc)
	if err != nil {
		b.logger.Error(ctx, "staging document failed", "telegram_id", user.TelegramID, "error", err)
		return b.edit(msg.Chat.ID, status.MessageID, p.ScanFailed)
	}

	if err := b.edit(msg.Chat.ID, status.MessageID, p.Scanning); err != nil {
		return err
	}

	req, err := b.scanner.Run(ctx, user.TelegramID, models.FileTarget(digest, doc.FileName, size))
	return b.renderOutcome(msg.Chat.ID, status.MessageID, p, req, err)
}

// stageDocument downloads the document from Telegram and stores the bytes in
// the staging store.
func (b *Bot) stageDocument(ctx context.Context, doc *tgbotapi.Document) (string, int64, error) {
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", 0, fmt.Errorf("resolving file url: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := b.downloader.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("downloading file: status %d", resp.StatusCode)
	}

	return b.files.Stage(ctx, io.LimitReader(resp.Body, b.maxFileSize+1))
}

// renderOutcome edits the status message into the final report or a
// localized error.
func (b *Bot) renderOutcome(chatID int64, messageID int, p phrases, req *models.ScanRequest, err error) error {
	switch {
	case err == nil:
		edit := tgbotapi.NewEditMessageText(chatID, messageID, formatReport(req.Result))
		edit.ParseMode = tgbotapi.ModeMarkdown
		edit.DisableWebPagePreview = true
		_, sendErr := b.api.Send(edit)
		return sendErr
	case errors.Is(err, common.ErrScanInProgress):
		return b.edit(chatID, messageID, p.ScanBusy)
	case errors.Is(err, common.ErrScanTimedOut):
		return b.edit(chatID, messageID, p.ScanTimedOut)
	case errors.Is(err, common.ErrValidation):
		return b.edit(chatID, messageID, p.BadURL)
	case errors.Is(err, common.ErrNotOnboarded):
		return b.edit(chatID, messageID, p.NotOnboarded)
	default:
		return b.edit(chatID, messageID, p.ScanFailed)
	}
}

func (b *Bot) send(c tgbotapi.Chattable) error {
	_, err := b.api.Send(c)
	return err
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, kb tgbotapi.ReplyKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	return b.send(msg)
}

func (b *Bot) edit(chatID int64, messageID int, text string) error {
	_, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func fullName(u *tgbotapi.User) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
