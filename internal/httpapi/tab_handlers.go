package httpapi

import (
	"encoding/json"
	"net/http"

	"jobclip-engine/internal/browser"
	"jobclip-engine/internal/events"
)

type TabHandler struct {
	Session *browser.Session
	Hub     *events.Hub
}

// Report stores the active tab the extension's background script pushes on
// tab activation and navigation.
func (h TabHandler) Report(w http.ResponseWriter, r *http.Request) {
	var tab browser.Tab
	if err := json.NewDecoder(r.Body).Decode(&tab); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid tab report: "+err.Error())
		return
	}

	h.Session.SetActive(tab)

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeTabUpdated, 1, map[string]any{
		"url":    tab.URL,
		"title":  tab.Title,
		"tab_id": tab.ID,
	}))
	w.WriteHeader(http.StatusNoContent)
}

func (h TabHandler) Get(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.Session.ActiveTab(r.Context())
	writeJSON(w, map[string]any{
		"reported": ok,
		"tab":      tab,
	})
}
