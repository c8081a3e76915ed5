package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
)

// DefaultCacheTTL is how long a completion is reused.
const DefaultCacheTTL = 30 * time.Minute

// ErrEmptyQuery is returned for a blank remedy query.
var ErrEmptyQuery = errors.New("query is required")

// Error is a failed advisory lookup with a user-facing message key.
type Error struct {
	Key i18n.MessageKey
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Key, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Message returns the localized user-facing message.
func (e *Error) Message(lang i18n.LanguageCode) string {
	return i18n.Message(e.Key, lang)
}

type Horoscope struct {
	Horoscope string `json:"horoscope"`
	LuckyTip  string `json:"luckyTip"`
}

type Weather struct {
	TemperatureCelsius float64 `json:"temperatureCelsius"`
	Condition          string  `json:"condition"`
	Humidity           float64 `json:"humidity"`
	WindSpeedKPH       float64 `json:"windSpeedKPH"`
	ChanceOfRain       float64 `json:"chanceOfRain"`
	SunriseTime        string  `json:"sunriseTime"`
	SunsetTime         string  `json:"sunsetTime"`
	MoonriseTime       string  `json:"moonriseTime"`
	MoonsetTime        string  `json:"moonsetTime"`
}

type BazaarRate struct {
	Name     string `json:"name"`
	Rate     string `json:"rate"`
	Category string `json:"category"`
}

// Advisor builds prompts, caches completions and decodes the replies.
type Advisor struct {
	svc     TextCompletionService
	cache   *cache
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func New(svc TextCompletionService, ttl time.Duration, cat *catalog.Catalog, logger *slog.Logger) *Advisor {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Advisor{
		svc:     svc,
		cache:   newCache(ttl),
		catalog: cat,
		logger:  logger.With("component", "advisor"),
	}
}

var horoscopeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"horoscope": {Type: genai.TypeString},
		"luckyTip":  {Type: genai.TypeString},
	},
}

// Horoscope returns today's horoscope for sign, written in lang.
func (a *Advisor) Horoscope(ctx context.Context, sign model.ZodiacSign, lang i18n.LanguageCode) (Horoscope, error) {
	prompt := fmt.Sprintf(`Generate a short, positive, and encouraging daily horoscope for the zodiac sign "%s" in the %s language. Provide the output as a JSON object with two keys: "horoscope" (a string of about 50-70 words covering love, career, and health) and "luckyTip" (a short, single-sentence, gamified lucky tip like "Wear green clothes today for good luck" or "Offer Tulsi in today's puja.").`,
		sign.Name.In(lang), i18n.Name(lang))

	var h Horoscope
	key := "horoscope:" + sign.ID + ":" + string(lang)
	if err := a.completeJSON(ctx, key, false, Request{Prompt: prompt, Schema: horoscopeSchema}, &h); err != nil {
		return Horoscope{}, &Error{Key: i18n.MsgHoroscopeFailed, Err: err}
	}
	return h, nil
}

var weatherSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"temperatureCelsius": {Type: genai.TypeNumber},
		"condition":          {Type: genai.TypeString},
		"humidity":           {Type: genai.TypeNumber},
		"windSpeedKPH":       {Type: genai.TypeNumber},
		"chanceOfRain":       {Type: genai.TypeNumber},
		"sunriseTime":        {Type: genai.TypeString},
		"sunsetTime":         {Type: genai.TypeString},
		"moonriseTime":       {Type: genai.TypeString},
		"moonsetTime":        {Type: genai.TypeString},
	},
}

// Weather returns current conditions at the coordinates. A failed refresh
// returns the last known conditions when there are any.
func (a *Advisor) Weather(ctx context.Context, lat, lon float64) (Weather, error) {
	prompt := fmt.Sprintf("Based on the coordinates latitude: %s, longitude: %s, provide the current weather information, including the percentage chance of rain, sunrise time, sunset time, moonrise time, and moonset time. All times should be in HH:MM format (e.g., 06:15 or 18:30).",
		formatCoord(lat), formatCoord(lon))

	var w Weather
	if err := a.completeJSON(ctx, weatherKey(lat, lon), true, Request{Prompt: prompt, Schema: weatherSchema}, &w); err != nil {
		return Weather{}, &Error{Key: i18n.MsgWeatherFailed, Err: err}
	}
	return w, nil
}

// CachedWeather returns the last weather fetched for the coordinates without
// calling the service.
func (a *Advisor) CachedWeather(lat, lon float64) (Weather, bool) {
	raw, ok := a.cache.peek(weatherKey(lat, lon))
	if !ok {
		return Weather{}, false
	}
	var w Weather
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return Weather{}, false
	}
	return w, true
}

var bazaarSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"rates": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString},
					"rate":     {Type: genai.TypeString},
					"category": {Type: genai.TypeString},
				},
			},
		},
	},
}

// BazaarRates returns approximate local market rates, named in lang.
func (a *Advisor) BazaarRates(ctx context.Context, lat, lon float64, lang i18n.LanguageCode) ([]BazaarRate, error) {
	name := i18n.Name(lang)
	prompt := fmt.Sprintf(`Based on the location at latitude %s, longitude %s, provide the approximate current retail market rates (mandi bhav) for the following common items in %s: Potato, Onion, Tomato, Rice, Wheat Flour, Toor Dal, Gold (24K), and Silver. Provide the output as a JSON object with a single key "rates" which is an array. Each object in the array should have three keys: "name" (the item name in %s), "rate" (a string including currency and unit, e.g., "₹20/kg" or "₹72,000/10g"), and "category" (e.g., "Vegetable", "Grain", "Precious Metal").`,
		formatCoord(lat), formatCoord(lon), name, name)

	var out struct {
		Rates []BazaarRate `json:"rates"`
	}
	key := "bazaar:" + coordKey(lat, lon) + ":" + string(lang)
	if err := a.completeJSON(ctx, key, false, Request{Prompt: prompt, Schema: bazaarSchema}, &out); err != nil {
		return nil, &Error{Key: i18n.MsgBazaarFailed, Err: err}
	}
	if out.Rates == nil {
		out.Rates = []BazaarRate{}
	}
	return out.Rates, nil
}

// Remedy returns free-text home remedies for query, ending with a disclaimer
// in lang.
func (a *Advisor) Remedy(ctx context.Context, query string, lang i18n.LanguageCode) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	name := i18n.Name(lang)
	prompt := fmt.Sprintf(`You are a helpful assistant providing common and safe home remedies. The user is asking for remedies for "%s" in the %s language.

Please provide a few simple, safe, and well-known home remedies. Structure your answer with clear headings or bullet points. Keep the tone helpful and easy to understand.

At the very end of your response, you MUST include this exact disclaimer, translated into %s: "Disclaimer: These are home remedies. In serious conditions, please consult a doctor."`,
		query, name, name)

	key := "remedy:" + string(lang) + ":" + strings.ToLower(query)
	text, err := a.cache.get(ctx, key, false, func(ctx context.Context) (string, error) {
		return a.svc.Complete(ctx, Request{Prompt: prompt})
	})
	if err != nil {
		a.logger.Warn("remedy lookup failed", "error", err)
		return "", &Error{Key: i18n.MsgRemedyFailed, Err: err}
	}
	return text, nil
}

// HealthTip picks a dashboard tip from the pool that fits the weather last
// seen at the coordinates, or the general pool without one.
func (a *Advisor) HealthTip(lat, lon float64, known bool) i18n.Translations {
	pool := catalog.TipsGeneral
	if known {
		if w, ok := a.CachedWeather(lat, lon); ok {
			pool = catalog.TipPool(w.Condition, w.TemperatureCelsius)
		}
	}
	return a.catalog.HealthTip(pool)
}

func (a *Advisor) completeJSON(ctx context.Context, key string, keepStale bool, req Request, dst any) error {
	raw, err := a.cache.get(ctx, key, keepStale, func(ctx context.Context) (string, error) {
		text, err := a.svc.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		// Only well-formed replies are cached.
		if !json.Valid([]byte(text)) {
			return "", fmt.Errorf("decode %s reply: invalid JSON", strings.SplitN(key, ":", 2)[0])
		}
		return text, nil
	})
	if err != nil {
		a.logger.Warn("completion failed", "key", key, "error", err)
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// coordKey rounds to about a kilometre so nearby requests share a cache entry.
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func weatherKey(lat, lon float64) string {
	return "weather:" + coordKey(lat, lon)
}
