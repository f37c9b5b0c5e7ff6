package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"go.uber.org/zap"

	"jobclip-engine/internal/browser"
	"jobclip-engine/internal/capture"
	"jobclip-engine/internal/config"
	"jobclip-engine/internal/events"
	"jobclip-engine/internal/ingest"
)

type Deps struct {
	DB  *sql.DB
	Hub *events.Hub
	Log *zap.Logger

	// CfgVal stores config.Config
	CfgVal      *atomic.Value
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Session receives the active tab the extension reports.
	Session *browser.Session

	// Controller runs the capture sequence for the popup.
	Controller *capture.Controller

	// Submit re-sends a stored payload; injected for testability.
	Submit func(ctx context.Context, p ingest.Payload) (int64, error)
}
