// Package capture drives the save-current-tab-as-job-offer flow: read the
// active tab, pull the page's visible text, POST the offer to the tracker
// backend, and report the outcome on a single status line. The browser
// capabilities and the backend client are injected so the whole sequence
// runs against fakes in tests.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"jobclip-engine/internal/browser"
	"jobclip-engine/internal/extract"
	"jobclip-engine/internal/ingest"
)

var (
	// ErrNoActiveTab aborts an attempt without touching the status line.
	ErrNoActiveTab     = errors.New("capture: no active tab")
	ErrCompanyRequired = errors.New("capture: company is required")
	// ErrInFlight rejects a second Capture while one is still running.
	ErrInFlight = errors.New("capture: attempt already in flight")
)

// User-facing status lines. The HTTP-rejection line is the backend's own
// status text and therefore not a constant here.
const (
	MsgCompanyRequired = "Company name is required."
	MsgExtractFailed   = "Could not read the page content."
	MsgUnreachable     = "Server unreachable. Is the tracker backend running?"
)

// Ingestor submits one offer payload and returns the backend-assigned id.
type Ingestor interface {
	Submit(ctx context.Context, p ingest.Payload) (int64, error)
}

// State is the popup-visible snapshot of the controller. It lives in memory
// for the popup's lifetime only; nothing here is persisted.
type State struct {
	ActiveTabURL   string `json:"active_tab_url"`
	ActiveTabTitle string `json:"active_tab_title"`
	Company        string `json:"company"`
	StatusMessage  string `json:"status_message"`
}

// Result is the outcome of one Capture attempt. Payload is filled with
// whatever was known when the attempt ended, so callers can record history
// even for attempts that never reached the network.
type Result struct {
	OfferID    int64
	Payload    ingest.Payload
	Status     string
	ClosePopup bool
}

type Controller struct {
	tabs      browser.TabQuery
	extractor extract.PageExtractor
	ingestor  Ingestor
	log       *zap.Logger

	mu       sync.Mutex
	inFlight bool
	st       State
}

func NewController(tabs browser.TabQuery, ex extract.PageExtractor, ing Ingestor, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		tabs:      tabs,
		extractor: ex,
		ingestor:  ing,
		log:       log,
	}
}

// Initialize populates the tab fields from the current active tab. No
// active tab is not an error: both fields just stay empty. Calling it again
// with an unchanged tab yields the same state.
func (c *Controller) Initialize(ctx context.Context) {
	tab, ok := c.tabs.ActiveTab(ctx)

	c.mu.Lock()
	if ok {
		c.st.ActiveTabURL = tab.URL
		c.st.ActiveTabTitle = tab.Title
	} else {
		c.st.ActiveTabURL = ""
		c.st.ActiveTabTitle = ""
	}
	c.mu.Unlock()
}

func (c *Controller) SetCompany(v string) {
	c.mu.Lock()
	c.st.Company = v
	c.mu.Unlock()
}

// Snapshot returns a copy of the current popup state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Capture runs one attempt end to end. Every failure is terminal for the
// attempt; recovery is the user pressing the button again.
func (c *Controller) Capture(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return Result{}, ErrInFlight
	}
	company := strings.TrimSpace(c.st.Company)
	if company == "" {
		c.st.StatusMessage = MsgCompanyRequired
		c.mu.Unlock()
		return Result{Status: MsgCompanyRequired}, ErrCompanyRequired
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	// Re-query the active tab: the user may have switched tabs since the
	// popup opened. No tab means there is nothing to capture; the attempt
	// ends without user feedback.
	tab, ok := c.tabs.ActiveTab(ctx)
	if !ok || !tab.Valid() {
		c.log.Debug("capture aborted: no active tab")
		return Result{}, ErrNoActiveTab
	}

	c.mu.Lock()
	c.st.ActiveTabURL = tab.URL
	c.st.ActiveTabTitle = tab.Title
	c.mu.Unlock()

	text, err := c.extractor.ExtractText(ctx, tab)
	if err != nil {
		c.setStatus(MsgExtractFailed)
		c.log.Warn("page extraction failed", zap.String("url", tab.URL), zap.Error(err))
		return Result{
			Payload: ingest.Payload{Title: tab.Title, OriginalURL: tab.URL, Company: company},
			Status:  MsgExtractFailed,
		}, fmt.Errorf("capture: extract page: %w", err)
	}

	payload := ingest.Payload{
		Title:       tab.Title,
		OriginalURL: tab.URL,
		Company:     company,
		Description: text,
	}

	id, err := c.ingestor.Submit(ctx, payload)
	if err != nil {
		var se *ingest.StatusError
		if errors.As(err, &se) {
			c.setStatus(se.StatusText)
			c.log.Warn("backend rejected offer",
				zap.Int("status", se.Code), zap.String("url", tab.URL))
			return Result{Payload: payload, Status: se.StatusText}, err
		}
		c.setStatus(MsgUnreachable)
		c.log.Warn("backend unreachable", zap.Error(err))
		return Result{Payload: payload, Status: MsgUnreachable}, err
	}

	msg := fmt.Sprintf("Saved job offer #%d.", id)
	c.setStatus(msg)
	c.log.Info("offer saved",
		zap.Int64("offer_id", id),
		zap.String("company", company),
		zap.String("url", tab.URL))

	return Result{OfferID: id, Payload: payload, Status: msg, ClosePopup: true}, nil
}

func (c *Controller) setStatus(msg string) {
	c.mu.Lock()
	c.st.StatusMessage = msg
	c.mu.Unlock()
}
