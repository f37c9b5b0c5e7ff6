package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"jobclip-engine/internal/capture"
	"jobclip-engine/internal/events"
	"jobclip-engine/internal/store"
)

type CaptureHandler struct {
	Controller *capture.Controller
	DB         *sql.DB
	Hub        *events.Hub
	Log        *zap.Logger
}

type captureReq struct {
	Company string `json:"company"`
}

type captureResp struct {
	OK            bool   `json:"ok"`
	ID            int64  `json:"id,omitempty"`
	StatusMessage string `json:"status_message"`
	ClosePopup    bool   `json:"close_popup"`
}

// State refreshes the controller from the current active tab and returns
// the popup snapshot. Popup open maps to this call.
func (h CaptureHandler) State(w http.ResponseWriter, r *http.Request) {
	h.Controller.Initialize(r.Context())
	writeJSON(w, h.Controller.Snapshot())
}

// Run executes one capture attempt and records its outcome. Attempt-level
// failures (extraction, backend rejection, unreachable backend) come back
// in-band with ok=false so the popup can show the status line; only
// malformed requests and overlapping attempts are HTTP errors.
func (h CaptureHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req captureReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid capture request: "+err.Error())
		return
	}

	h.Controller.SetCompany(req.Company)
	res, err := h.Controller.Capture(r.Context())

	switch {
	case err == nil:
		h.record(r, res, "")
		writeJSON(w, captureResp{
			OK:            true,
			ID:            res.OfferID,
			StatusMessage: res.Status,
			ClosePopup:    res.ClosePopup,
		})

	case errors.Is(err, capture.ErrInFlight):
		WriteError(w, r, http.StatusConflict, "capture_in_flight", "a capture attempt is already running")

	case errors.Is(err, capture.ErrCompanyRequired):
		WriteError(w, r, http.StatusBadRequest, "company_required", capture.MsgCompanyRequired)

	case errors.Is(err, capture.ErrNoActiveTab):
		// Nothing to capture; the popup status line stays as it was.
		writeJSON(w, captureResp{
			OK:            false,
			StatusMessage: h.Controller.Snapshot().StatusMessage,
		})

	default:
		h.record(r, res, err.Error())
		writeJSON(w, captureResp{
			OK:            false,
			StatusMessage: res.Status,
		})
	}
}

func (h CaptureHandler) record(r *http.Request, res capture.Result, errText string) {
	outcome := store.OutcomeSaved
	evtType := events.TypeCaptureSaved
	if errText != "" {
		outcome = store.OutcomeFailed
		evtType = events.TypeCaptureFailed
	}

	id, err := store.InsertCapture(r.Context(), h.DB, store.Capture{
		Title:       res.Payload.Title,
		URL:         res.Payload.OriginalURL,
		Company:     res.Payload.Company,
		Description: res.Payload.Description,
		Outcome:     outcome,
		RemoteID:    res.OfferID,
		Error:       errText,
	})
	if err != nil {
		h.Log.Error("record capture", zap.Error(err))
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, evtType, 1, map[string]any{
		"id":        id,
		"remote_id": res.OfferID,
		"company":   res.Payload.Company,
	}))
}
