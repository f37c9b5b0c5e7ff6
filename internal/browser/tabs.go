package browser

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Tab is a snapshot of a browser tab as reported by the extension.
type Tab struct {
	ID       int    `json:"tab_id"`
	WindowID int    `json:"window_id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// Valid reports whether the tab carries enough identity to capture from.
func (t Tab) Valid() bool {
	return t.ID > 0 && strings.TrimSpace(t.URL) != ""
}

// TabQuery is the ambient browser capability for looking up the active tab
// in the current window. ok is false when the browser reports none.
type TabQuery interface {
	ActiveTab(ctx context.Context) (Tab, bool)
}

// Session tracks the active tab the extension last reported to the engine.
// The popup cannot reach chrome.tabs across the localhost boundary, so the
// extension pushes tab changes here and the engine reads them back.
type Session struct {
	mu         sync.Mutex
	tab        Tab
	reported   bool
	reportedAt time.Time
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) SetActive(t Tab) {
	s.mu.Lock()
	s.tab = t
	s.reported = t.Valid()
	s.reportedAt = time.Now().UTC()
	s.mu.Unlock()
}

// Clear drops the reported tab, e.g. when the window loses focus.
func (s *Session) Clear() {
	s.mu.Lock()
	s.tab = Tab{}
	s.reported = false
	s.reportedAt = time.Now().UTC()
	s.mu.Unlock()
}

func (s *Session) ActiveTab(ctx context.Context) (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab, s.reported
}

// ReportedAt returns when the session last changed, zero if never.
func (s *Session) ReportedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportedAt
}
