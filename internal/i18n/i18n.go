package i18n

import "strings"

type LanguageCode string

const (
	English   LanguageCode = "en"
	Hindi     LanguageCode = "hi"
	Bhojpuri  LanguageCode = "bho"
	Bengali   LanguageCode = "bn"
	Tamil     LanguageCode = "ta"
	Fallback               = English
)

type Language struct {
	Code LanguageCode `json:"code"`
	Name string       `json:"name"`
}

// Languages lists the supported languages with their native names.
var Languages = []Language{
	{Code: English, Name: "English"},
	{Code: Hindi, Name: "हिन्दी"},
	{Code: Bhojpuri, Name: "भोजपुरी"},
	{Code: Bengali, Name: "বাংলা"},
	{Code: Tamil, Name: "தமிழ்"},
}

// Parse returns the supported language for s, ignoring case and whitespace.
func Parse(s string) (LanguageCode, bool) {
	code := LanguageCode(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range Languages {
		if l.Code == code {
			return code, true
		}
	}
	return "", false
}

// Name returns the native name of code, or of English when code is unknown.
func Name(code LanguageCode) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return Languages[0].Name
}

// Translations maps a language to the display string in that language.
type Translations map[LanguageCode]string

// In resolves the string for lang. An empty lang, or one with no (or an
// empty) entry, resolves to the English string.
func (t Translations) In(lang LanguageCode) string {
	if lang == "" {
		lang = Fallback
	}
	if s := t[lang]; s != "" {
		return s
	}
	return t[Fallback]
}

// Resolve is Translations.In in function form.
func Resolve(t Translations, lang LanguageCode) string {
	return t.In(lang)
}

// Values returns every non-empty translation, English first.
func (t Translations) Values() []string {
	out := make([]string, 0, len(t))
	if s := t[Fallback]; s != "" {
		out = append(out, s)
	}
	for _, l := range Languages {
		if l.Code == Fallback {
			continue
		}
		if s := t[l.Code]; s != "" {
			out = append(out, s)
		}
	}
	return out
}
