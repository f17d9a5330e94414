package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sarhadsec/scanbot/internal/bot/models"
)

func languageKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonUzbek),
			tgbotapi.NewKeyboardButton(buttonRussian),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonEnglish),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// agreementKeyboard opens the agreement WebApp. A timestamp query parameter
// busts Telegram's WebApp cache after redeploys.
func agreementKeyboard(webAppURL string, lang models.Language) tgbotapi.ReplyKeyboardMarkup {
	p := localize(lang)
	url := fmt.Sprintf("%s?lang=%s&v=%d", webAppURL, string(lang), time.Now().Unix())

	btn := tgbotapi.NewKeyboardButton(p.AgreementButton)
	btn.WebApp = &tgbotapi.WebAppInfo{URL: url}

	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(btn))
	kb.ResizeKeyboard = true
	return kb
}

func contactKeyboard(lang models.Language) tgbotapi.ReplyKeyboardMarkup {
	p := localize(lang)
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(p.PhoneButton),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func mainMenuKeyboard(lang models.Language) tgbotapi.ReplyKeyboardMarkup {
	p := localize(lang)
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(p.LinkCheckButton),
			tgbotapi.NewKeyboardButton(p.FileCheckButton),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func backKeyboard(lang models.Language) tgbotapi.ReplyKeyboardMarkup {
	p := localize(lang)
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(p.BackButton),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
