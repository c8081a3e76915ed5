package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/lifemate/internal/advisor"
	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/geo"
	"github.com/dukerupert/lifemate/internal/i18n"
)

// AdvisorHandler serves the AI-backed advisory views. Failures are answered
// with a message in the user's language.
type AdvisorHandler struct {
	advisor *advisor.Advisor
	catalog *catalog.Catalog
	locator *geo.Locator
	prefs   LanguageSource
	logger  *slog.Logger
}

func NewAdvisorHandler(adv *advisor.Advisor, cat *catalog.Catalog, locator *geo.Locator, prefs LanguageSource, logger *slog.Logger) *AdvisorHandler {
	return &AdvisorHandler{advisor: adv, catalog: cat, locator: locator, prefs: prefs, logger: logger}
}

func (h *AdvisorHandler) Horoscope(w http.ResponseWriter, r *http.Request) {
	sign, ok := h.catalog.Sign(r.PathValue("sign"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown zodiac sign")
		return
	}

	lang := requestLanguage(r, h.prefs)
	res, err := h.advisor.Horoscope(r.Context(), sign, lang)
	if err != nil {
		h.writeAdvisorError(w, err, lang)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdvisorHandler) Weather(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r, h.prefs)
	p, err := h.locator.FromQuery(r.URL.Query())
	if err != nil {
		writeGeoError(w, err, lang, i18n.MsgWeatherGeoUnsupported, i18n.MsgWeatherGeoUnavailable)
		return
	}

	res, err := h.advisor.Weather(r.Context(), p.Lat, p.Lon)
	if err != nil {
		h.writeAdvisorError(w, err, lang)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdvisorHandler) BazaarRates(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r, h.prefs)
	p, err := h.locator.FromQuery(r.URL.Query())
	if err != nil {
		writeGeoError(w, err, lang, i18n.MsgBazaarGeoUnsupported, i18n.MsgBazaarGeoUnavailable)
		return
	}

	rates, err := h.advisor.BazaarRates(r.Context(), p.Lat, p.Lon, lang)
	if err != nil {
		h.writeAdvisorError(w, err, lang)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (h *AdvisorHandler) Remedies(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	lang := requestLanguage(r, h.prefs)
	text, err := h.advisor.Remedy(r.Context(), req.Query, lang)
	if err != nil {
		h.writeAdvisorError(w, err, lang)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"remedy": text})
}

// HealthTip picks a dashboard tip for the weather last seen at the request
// location. It never calls the completion service.
func (h *AdvisorHandler) HealthTip(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r, h.prefs)
	p, err := h.locator.FromQuery(r.URL.Query())
	tip := h.advisor.HealthTip(p.Lat, p.Lon, err == nil)
	writeJSON(w, http.StatusOK, map[string]string{"tip": tip.In(lang)})
}

func (h *AdvisorHandler) writeAdvisorError(w http.ResponseWriter, err error, lang i18n.LanguageCode) {
	if errors.Is(err, advisor.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var advErr *advisor.Error
	if errors.As(err, &advErr) {
		writeError(w, http.StatusBadGateway, advErr.Message(lang))
		return
	}
	h.logger.Error("advisory lookup", "error", err)
	writeError(w, http.StatusInternalServerError, "advisory lookup failed")
}

func writeGeoError(w http.ResponseWriter, err error, lang i18n.LanguageCode, unsupported, unavailable i18n.MessageKey) {
	if errors.Is(err, geo.ErrUnsupported) {
		writeError(w, http.StatusBadRequest, i18n.Message(unsupported, lang))
		return
	}
	writeError(w, http.StatusBadRequest, i18n.Message(unavailable, lang))
}
