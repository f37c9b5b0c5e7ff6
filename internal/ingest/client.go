// Package ingest speaks to the tracker backend's job-offer ingest endpoint.
// One POST per capture attempt, no retries: failures surface as typed errors
// so callers can tell an HTTP rejection from an unreachable backend.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Payload is the job-offer capture sent to the backend. The backend owns
// the persisted record and assigns its identifier; this value has no
// lifecycle beyond the single request.
type Payload struct {
	Title       string `json:"title"`
	OriginalURL string `json:"original_url"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// Receipt is the backend's acknowledgment of a stored offer.
type Receipt struct {
	ID int64 `json:"id"`
}

// StatusError is a completed request the backend answered with a non-2xx
// status. StatusText carries the human-readable reason line.
type StatusError struct {
	Code       int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ingest: backend returned %d %s", e.Code, e.StatusText)
}

// TokenSource supplies the optional bearer token for the backend. Returning
// an empty token means anonymous.
type TokenSource func() (string, error)

type Client struct {
	url   string
	hc    *http.Client
	token TokenSource
}

func New(url string, timeout time.Duration, token TokenSource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:   url,
		hc:    &http.Client{Timeout: timeout},
		token: token,
	}
}

// Submit POSTs the payload and returns the backend-assigned offer id.
// Transport-level failures come back wrapped (the backend never saw the
// request, or the response never arrived); HTTP rejections come back as
// *StatusError.
func (c *Client) Submit(ctx context.Context, p Payload) (int64, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("ingest: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("ingest: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.token != nil {
		tok, terr := c.token()
		if terr != nil {
			return 0, fmt.Errorf("ingest: read token: %w", terr)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ingest: post offer: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return 0, &StatusError{Code: res.StatusCode, StatusText: statusText(res)}
	}

	var rec Receipt
	if err := json.NewDecoder(res.Body).Decode(&rec); err != nil {
		return 0, fmt.Errorf("ingest: decode response: %w", err)
	}
	if rec.ID == 0 {
		return 0, fmt.Errorf("ingest: response missing id")
	}
	return rec.ID, nil
}

// statusText strips the numeric code off res.Status, falling back to the
// stdlib reason phrase for bare statuses.
func statusText(res *http.Response) string {
	s := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if s == "" {
		s = http.StatusText(res.StatusCode)
	}
	return s
}
