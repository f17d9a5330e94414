// Package onboarding implements the registration state machine that gates
// access to scanning features.
//
// States move strictly forward:
//
//	New -> LanguageSelected -> AgreementPending -> AgreementAccepted -> ContactShared
//
// Each transition is triggered by one event. Replaying an event after its
// transition already happened is a no-op, so duplicate deliveries from the
// messaging transport are harmless.
package onboarding

import "github.com/sarhadsec/scanbot/internal/bot/models"

// Event is a tagged union of the inputs that advance the machine.
type Event interface {
	isEvent()
}

// LanguageChosen carries the user's language pick. Applicable in New and,
// for re-selection, in LanguageSelected.
type LanguageChosen struct {
	Language models.Language
}

// AgreementPresented marks that the agreement WebApp was shown to the user.
// Emitted by the transport when it renders the agreement button.
type AgreementPresented struct{}

// AgreementSubmitted marks a verified agreement submission from the WebApp.
type AgreementSubmitted struct{}

// ContactShared carries the phone number from the contact-sharing action.
type ContactShared struct {
	Phone string
}

func (LanguageChosen) isEvent()     {}
func (AgreementPresented) isEvent() {}
func (AgreementSubmitted) isEvent() {}
func (ContactShared) isEvent()      {}
