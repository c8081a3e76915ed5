package handler

import (
	"net/http"

	"github.com/dukerupert/lifemate/internal/calculator"
)

// Calculate replays key presses on a fresh calculator and returns the display.
func Calculate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keys []string `json:"keys"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	display, err := calculator.Run(req.Keys)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"display": display})
}
