package i18n

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed messages.json
var messagesJSON []byte

// Content is a localized notification title and body.
type Content struct {
	Title Translations `json:"title"`
	Body  Translations `json:"body"`
}

// MessageKey names a localized user-facing error message.
type MessageKey string

const (
	MsgHoroscopeFailed       MessageKey = "horoscope"
	MsgWeatherFailed         MessageKey = "weather"
	MsgWeatherGeoUnsupported MessageKey = "weatherGeoUnsupported"
	MsgWeatherGeoUnavailable MessageKey = "weatherGeoUnavailable"
	MsgBazaarFailed          MessageKey = "bazaar"
	MsgBazaarGeoUnsupported  MessageKey = "bazaarGeoUnsupported"
	MsgBazaarGeoUnavailable  MessageKey = "bazaarGeoUnavailable"
	MsgRemedyFailed          MessageKey = "remedy"
)

// ReminderTitle is the title of journal reminder notifications.
var ReminderTitle = Translations{
	English:  "LifeMate Reminder",
	Hindi:    "लाइफमेट रिमाइंडर",
	Bhojpuri: "लाइफमेट रिमाइंडर",
	Bengali:  "লাইফমেট রিমাইন্ডার",
	Tamil:    "லைஃப்மேட் நினைவூட்டல்",
}

type catalog struct {
	Notifications struct {
		Morning []Content `json:"morning"`
		Market  []Content `json:"market"`
	} `json:"notifications"`
	Errors map[MessageKey]Translations `json:"errors"`
}

var messages = mustLoadMessages()

func mustLoadMessages() catalog {
	var c catalog
	if err := json.Unmarshal(messagesJSON, &c); err != nil {
		panic(fmt.Sprintf("i18n: decode messages.json: %v", err))
	}
	return c
}

// MorningNotifications returns the pool of morning advisory notifications.
func MorningNotifications() []Content { return messages.Notifications.Morning }

// MarketNotifications returns the pool of market-rate notifications.
func MarketNotifications() []Content { return messages.Notifications.Market }

// Message resolves the error message key in lang. Unknown keys resolve to
// the key itself.
func Message(key MessageKey, lang LanguageCode) string {
	tr, ok := messages.Errors[key]
	if !ok {
		return string(key)
	}
	return tr.In(lang)
}
