package telegram

import "github.com/sarhadsec/scanbot/internal/bot/models"

// phrases holds every reply string for one chat language.
type phrases struct {
	AgreementPrompt  string
	AgreementButton  string
	AgreementDone    string
	PhoneButton      string
	RegistrationDone string
	MainMenu         string
	LinkCheckButton  string
	FileCheckButton  string
	BackButton       string
	LinkPrompt       string
	FilePrompt       string
	Scanning         string
	Downloading      string
	BadURL           string
	FileTooBig       string
	ScanBusy         string
	ScanFailed       string
	ScanTimedOut     string
	NotOnboarded     string
	Help             string
}

var phrasesByLanguage = map[models.Language]phrases{
	models.LanguageUzbek: {
		AgreementPrompt:  "Ro'yxatdan o'tish uchun quyidagi tugmani bosing:",
		AgreementButton:  "🚀 Taklifni Ochish",
		AgreementDone:    "✅ Ma'lumotlar qabul qilindi! 📱 Endi telefon raqamingizni yuboring:",
		PhoneButton:      "📱 Telefon raqamni yuborish",
		RegistrationDone: "🎉 Ro'yxatdan o'tish muvaffaqiyatli yakunlandi! Xavfsizlik tizimi faollashdi.",
		MainMenu:         "🏠 Asosiy menyu",
		LinkCheckButton:  "🔗 Havolani tekshirish",
		FileCheckButton:  "📂 Faylni tekshirish",
		BackButton:       "⬅️ Ortga",
		LinkPrompt:       "Havolani yuboring (http:// yoki https:// bilan):",
		FilePrompt:       "Tekshirish uchun faylni yuboring (maksimum 20MB):",
		Scanning:         "🔍 Tekshirilmoqda...",
		Downloading:      "⬇️ Fayl yuklanmoqda...",
		BadURL:           "⚠️ Noto'g'ri URL. http:// yoki https:// bilan boshlang.",
		FileTooBig:       "⚠️ Fayl juda katta. Maksimum 20MB.",
		ScanBusy:         "⏳ Oldingi tekshiruv hali tugamadi. Iltimos, kuting.",
		ScanFailed:       "❌ Tekshirishda xatolik. Keyinroq urinib ko'ring.",
		ScanTimedOut:     "⌛️ Tahlil vaqti tugadi. Keyinroq urinib ko'ring.",
		NotOnboarded:     "Avval ro'yxatdan o'ting: /start",
		Help:             "🔗 havola yoki 📂 fayl yuboring, men uni tekshiraman.",
	},
	models.LanguageRussian: {
		AgreementPrompt:  "Нажмите кнопку ниже для регистрации:",
		AgreementButton:  "🚀 Открыть Предложение",
		AgreementDone:    "✅ Данные приняты! 📱 Теперь отправьте ваш номер телефона:",
		PhoneButton:      "📱 Отправить номер телефона",
		RegistrationDone: "🎉 Регистрация успешно завершена! Система безопасности активирована.",
		MainMenu:         "🏠 Главное меню",
		LinkCheckButton:  "🔗 Проверка ссылки",
		FileCheckButton:  "📂 Проверка файла",
		BackButton:       "⬅️ Назад",
		LinkPrompt:       "Отправьте ссылку (с http:// или https://):",
		FilePrompt:       "Отправьте файл для проверки (макс 20МБ):",
		Scanning:         "🔍 Проверяем...",
		Downloading:      "⬇️ Загружаем файл...",
		BadURL:           "⚠️ Неверный URL. Начните с http:// или https://.",
		FileTooBig:       "⚠️ Файл слишком большой. Максимум 20МБ.",
		ScanBusy:         "⏳ Предыдущая проверка ещё не завершена. Подождите.",
		ScanFailed:       "❌ Ошибка при проверке. Попробуйте позже.",
		ScanTimedOut:     "⌛️ Время анализа истекло. Попробуйте позже.",
		NotOnboarded:     "Сначала пройдите регистрацию: /start",
		Help:             "Отправьте 🔗 ссылку или 📂 файл, и я проверю их.",
	},
	models.LanguageEnglish: {
		AgreementPrompt:  "Press the button below to register:",
		AgreementButton:  "🚀 Open Offer",
		AgreementDone:    "✅ Data received! 📱 Now please share your phone number:",
		PhoneButton:      "📱 Share Phone Number",
		RegistrationDone: "🎉 Registration completed successfully! Security system activated.",
		MainMenu:         "🏠 Main Menu",
		LinkCheckButton:  "🔗 Link Check",
		FileCheckButton:  "📂 File Check",
		BackButton:       "⬅️ Back",
		LinkPrompt:       "Please send the link (with http:// or https://):",
		FilePrompt:       "Please send the file to check (max 20MB):",
		Scanning:         "🔍 Scanning...",
		Downloading:      "⬇️ Downloading file...",
		BadURL:           "⚠️ Invalid URL. Start with http:// or https://.",
		FileTooBig:       "⚠️ File is too large. Maximum 20MB.",
		ScanBusy:         "⏳ Your previous scan is still running. Please wait.",
		ScanFailed:       "❌ Scan failed. Please try again later.",
		ScanTimedOut:     "⌛️ Analysis timed out. Please try again later.",
		NotOnboarded:     "Please register first: /start",
		Help:             "Send a 🔗 link or a 📂 file and I will check it.",
	},
}

// welcomeText greets in all languages at once, before a language is chosen.
const welcomeText = "👋 Xush kelibsiz! Iltimos, tilni tanlang:\n" +
	"Добро пожаловать! Пожалуйста, выберите язык:\n" +
	"Welcome! Please select your language:"

const bannedText = "⛔️ Sizning hisobingiz bloklangan.\n\nAdmin bilan bog'laning: @SarhadAdmin"

// Language selection buttons. Button text doubles as the selection event.
const (
	buttonUzbek   = "🇺🇿 O'zbekcha"
	buttonRussian = "🇷🇺 Русский"
	buttonEnglish = "🇬🇧 English"
)

var languageByButton = map[string]models.Language{
	buttonUzbek:   models.LanguageUzbek,
	buttonRussian: models.LanguageRussian,
	buttonEnglish: models.LanguageEnglish,
}

// localize returns the phrase set for the user's language, falling back to
// English until a language is chosen.
func localize(lang models.Language) phrases {
	if p, ok := phrasesByLanguage[lang]; ok {
		return p
	}
	return phrasesByLanguage[models.LanguageEnglish]
}
