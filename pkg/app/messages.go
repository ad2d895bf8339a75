package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/health"
	"github.com/smith3v/mood-tracker/pkg/reminders"
)

var ErrNotSignedIn = errors.New("not signed in")

type messageSet struct {
	notSignedIn   string
	notFound      string
	emailTaken    string
	notOwner      string
	invalid       string
	storage       string
	denied        string
	unavailable   string
	dataType      string
	invalidDate   string
	notifications string
	cancelled     string
	unexpected    string
	noMoodToday   string
	noMoods       string
}

var messages = map[string]messageSet{
	"de": {
		notSignedIn:   "Bitte melde dich zuerst an.",
		notFound:      "Eintrag nicht gefunden.",
		emailTaken:    "Diese E-Mail-Adresse ist bereits registriert.",
		notOwner:      "Dieser Eintrag gehört einem anderen Nutzer.",
		invalid:       "Ungültige Eingabe: %s",
		storage:       "Fehler beim Speichern: %v",
		denied:        "Zugriff auf Gesundheitsdaten wurde verweigert.",
		unavailable:   "Gesundheitsdaten sind auf diesem Gerät nicht verfügbar.",
		dataType:      "Dieser Datentyp ist nicht verfügbar.",
		invalidDate:   "Ungültiges Datum.",
		notifications: "Benachrichtigungen konnten nicht aktiviert werden.",
		cancelled:     "Der Vorgang wurde abgebrochen.",
		unexpected:    "Ein unerwarteter Fehler ist aufgetreten: %v",
		noMoodToday:   "Heute noch keine Stimmung erfasst.",
		noMoods:       "Noch keine Stimmungen erfasst.",
	},
	"en": {
		notSignedIn:   "Please sign in first.",
		notFound:      "Entry not found.",
		emailTaken:    "This email address is already registered.",
		notOwner:      "This entry belongs to another user.",
		invalid:       "Invalid input: %s",
		storage:       "Failed to save: %v",
		denied:        "Access to health data was denied.",
		unavailable:   "Health data is not available on this device.",
		dataType:      "This data type is not available.",
		invalidDate:   "Invalid date.",
		notifications: "Notifications could not be enabled.",
		cancelled:     "The operation was cancelled.",
		unexpected:    "An unexpected error occurred: %v",
		noMoodToday:   "No mood logged today.",
		noMoods:       "No moods logged yet.",
	},
}

// Notice names an informational text shown instead of an empty result.
type Notice int

const (
	NoticeNoMoodToday Notice = iota
	NoticeNoMoods
)

// NoticeText renders n in lang, falling back to German.
func NoticeText(n Notice, lang string) string {
	set := messagesFor(lang)
	switch n {
	case NoticeNoMoodToday:
		return set.noMoodToday
	case NoticeNoMoods:
		return set.noMoods
	default:
		return ""
	}
}

func messagesFor(lang string) messageSet {
	if set, ok := messages[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return set
	}
	return messages[db.DefaultLanguage]
}

// UserMessage renders err for display in the default language.
func UserMessage(err error) string {
	return Message(err, db.DefaultLanguage)
}

// Message renders err for display. Unknown languages fall back to German.
func Message(err error, lang string) string {
	if err == nil {
		return ""
	}
	set := messagesFor(lang)

	var validation *ValidationError
	var storage *db.StorageError
	switch {
	case errors.Is(err, ErrNotSignedIn):
		return set.notSignedIn
	case errors.As(err, &validation):
		return fmt.Sprintf(set.invalid, strings.TrimPrefix(validation.Error(), "invalid input: "))
	case errors.Is(err, db.ErrEmailTaken):
		return set.emailTaken
	case errors.Is(err, db.ErrNotOwner):
		return set.notOwner
	case errors.Is(err, db.ErrNotFound):
		return set.notFound
	case errors.Is(err, health.ErrAuthorizationDenied):
		return set.denied
	case errors.Is(err, health.ErrProviderUnavailable):
		return set.unavailable
	case errors.Is(err, health.ErrDataTypeUnavailable):
		return set.dataType
	case errors.Is(err, health.ErrInvalidDate):
		return set.invalidDate
	case errors.Is(err, reminders.ErrNotificationAuthorizationFailed):
		return set.notifications
	case errors.Is(err, context.Canceled):
		return set.cancelled
	case errors.As(err, &storage):
		return fmt.Sprintf(set.storage, storage.Err)
	}
	return fmt.Sprintf(set.unexpected, err)
}
