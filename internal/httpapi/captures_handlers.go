package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobclip-engine/internal/config"
	"jobclip-engine/internal/events"
	"jobclip-engine/internal/ingest"
	"jobclip-engine/internal/store"
)

type CapturesHandler struct {
	DB     *sql.DB
	Hub    *events.Hub
	Log    *zap.Logger
	CfgVal *atomic.Value // config.Config
	Submit func(ctx context.Context, p ingest.Payload) (int64, error)
}

func (h CapturesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	caps, err := store.ListCaptures(r.Context(), h.DB, store.ListCapturesOpts{
		Outcome: q.Get("outcome"),
		Window:  q.Get("window"),
		Limit:   500,
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	writeJSON(w, caps)
}

func (h CapturesHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/captures/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid capture id")
		return
	}

	if err := store.DeleteCapture(r.Context(), h.DB, id); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeCaptureDeleted, 1, map[string]any{"id": id}))
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

type retryResp struct {
	Attempted int `json:"attempted"`
	Saved     int `json:"saved"`
	Skipped   int `json:"skipped"`
}

// Retry re-sends failed captures that still hold a full payload. This is
// the user's manual recovery path; nothing retries on its own.
func (h CapturesHandler) Retry(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)

	failed, err := store.ListFailed(r.Context(), h.DB, 100)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())

	var resp retryResp
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(cfg.History.RetryParallel)

	for _, c := range failed {
		// A capture that never got past extraction has no description to
		// send; the user has to capture the page again.
		if c.Description == "" {
			resp.Skipped++
			continue
		}
		resp.Attempted++

		c := c
		g.Go(func() error {
			remoteID, serr := h.Submit(gctx, ingest.Payload{
				Title:       c.Title,
				OriginalURL: c.URL,
				Company:     c.Company,
				Description: c.Description,
			})
			if serr != nil {
				h.Log.Warn("retry failed",
					zap.Int64("capture_id", c.ID), zap.Error(serr))
				_ = store.UpdateFailure(gctx, h.DB, c.ID, serr.Error())
				return nil // best-effort: keep going on siblings
			}

			if uerr := store.MarkSaved(gctx, h.DB, c.ID, remoteID); uerr != nil {
				h.Log.Error("mark retried capture saved", zap.Error(uerr))
				return nil
			}

			mu.Lock()
			resp.Saved++
			mu.Unlock()

			h.Hub.Publish(events.MakeEvent(reqID, events.TypeCaptureSaved, 1, map[string]any{
				"id":        c.ID,
				"remote_id": remoteID,
				"company":   c.Company,
			}))
			return nil
		})
	}

	_ = g.Wait()
	writeJSON(w, resp)
}
