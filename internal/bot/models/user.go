package models

import "time"

// Language is a chat language chosen during onboarding.
type Language string

const (
	LanguageUzbek   Language = "uz"
	LanguageRussian Language = "ru"
	LanguageEnglish Language = "en"
)

// KnownLanguage reports whether l is one of the supported languages.
func KnownLanguage(l Language) bool {
	switch l {
	case LanguageUzbek, LanguageRussian, LanguageEnglish:
		return true
	}
	return false
}

// OnboardingState is a step of the registration flow. Transitions are strictly
// forward; ContactShared is terminal.
type OnboardingState string

const (
	StateNew               OnboardingState = "new"
	StateLanguageSelected  OnboardingState = "language_selected"
	StateAgreementPending  OnboardingState = "agreement_pending"
	StateAgreementAccepted OnboardingState = "agreement_accepted"
	StateContactShared     OnboardingState = "contact_shared"
)

// SubscriptionTier marks the user's plan. Premium is inert data: it has no
// effect on scanning behaviour.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// User is a chat user identified by Telegram id. The record is created on
// first contact and never deleted.
type User struct {
	TelegramID          int64
	Username            string
	FullName            string
	Language            Language
	State               OnboardingState
	AgreementAcceptedAt *time.Time
	Phone               string
	Tier                SubscriptionTier
	Banned              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Onboarded reports whether the user completed the full registration flow and
// may use scanning features.
func (u *User) Onboarded() bool {
	return u.State == StateContactShared
}

// AgreementAccepted reports whether the user accepted the terms. Once set it
// never becomes false again.
func (u *User) AgreementAccepted() bool {
	return u.AgreementAcceptedAt != nil
}
