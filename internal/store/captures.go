package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Capture outcomes. "saved" means the backend acknowledged the offer,
// "failed" means the attempt ended before or at the network.
const (
	OutcomeSaved  = "saved"
	OutcomeFailed = "failed"
)

// Capture is one recorded capture attempt. The backend owns the offer
// itself; RemoteID is its identifier when the attempt succeeded.
type Capture struct {
	ID          int64  `json:"id"`
	UID         string `json:"uid"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Company     string `json:"company"`
	Description string `json:"description,omitempty"`
	Outcome     string `json:"outcome"`
	RemoteID    int64  `json:"remoteId,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

type ListCapturesOpts struct {
	Outcome string // saved | failed | "" for all
	Window  string // 24h | 7d | all
	Limit   int
}

func InsertCapture(ctx context.Context, db *sql.DB, c Capture) (int64, error) {
	if c.UID == "" {
		c.UID = uuid.NewString()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if c.Outcome != OutcomeSaved && c.Outcome != OutcomeFailed {
		return 0, fmt.Errorf("insert capture: bad outcome %q", c.Outcome)
	}

	res, err := db.ExecContext(ctx, `
INSERT INTO captures(uid, title, url, company, description, outcome, remote_id, error, created_at)
VALUES(?,?,?,?,?,?,?,?,?);`,
		c.UID, c.Title, c.URL, c.Company, c.Description, c.Outcome, c.RemoteID, c.Error, c.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert capture: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// MarkSaved records a later successful re-send of a failed capture.
func MarkSaved(ctx context.Context, db *sql.DB, id int64, remoteID int64) error {
	_, err := db.ExecContext(ctx, `
UPDATE captures SET outcome = ?, remote_id = ?, error = '' WHERE id = ?;`,
		OutcomeSaved, remoteID, id)
	if err != nil {
		return fmt.Errorf("mark capture saved: %w", err)
	}
	return nil
}

func UpdateFailure(ctx context.Context, db *sql.DB, id int64, errText string) error {
	_, err := db.ExecContext(ctx, `
UPDATE captures SET outcome = ?, error = ? WHERE id = ?;`,
		OutcomeFailed, errText, id)
	if err != nil {
		return fmt.Errorf("update capture failure: %w", err)
	}
	return nil
}

func GetCapture(ctx context.Context, db *sql.DB, id int64) (Capture, error) {
	var c Capture
	err := db.QueryRowContext(ctx, `
SELECT id, uid, title, url, company, description, outcome, remote_id, error, created_at
FROM captures WHERE id = ? LIMIT 1;`, id).Scan(
		&c.ID, &c.UID, &c.Title, &c.URL, &c.Company, &c.Description,
		&c.Outcome, &c.RemoteID, &c.Error, &c.CreatedAt,
	)
	if err != nil {
		return Capture{}, err
	}
	return c, nil
}

func ListCaptures(ctx context.Context, db *sql.DB, opts ListCapturesOpts) ([]Capture, error) {
	if opts.Limit <= 0 {
		opts.Limit = 200
	}

	// created_at holds RFC3339, so the cutoff must be rendered in the same
	// shape for the string comparison to order correctly.
	where := ""
	args := []any{}
	switch opts.Window {
	case "24h":
		where = "WHERE created_at >= " + cutoffExpr("-24 hours")
	case "all", "":
		// no filter
	case "7d":
		where = "WHERE created_at >= " + cutoffExpr("-7 days")
	default:
		where = "WHERE created_at >= " + cutoffExpr("-7 days")
	}

	if opts.Outcome == OutcomeSaved || opts.Outcome == OutcomeFailed {
		if where == "" {
			where = "WHERE outcome = ?"
		} else {
			where += " AND outcome = ?"
		}
		args = append(args, opts.Outcome)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT id, uid, title, url, company, outcome, remote_id, error, created_at
FROM captures
%s
ORDER BY created_at DESC
LIMIT ?;`, where)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(
			&c.ID, &c.UID, &c.Title, &c.URL, &c.Company,
			&c.Outcome, &c.RemoteID, &c.Error, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListFailed returns failed captures with their stored descriptions, oldest
// first, for re-sending.
func ListFailed(ctx context.Context, db *sql.DB, limit int) ([]Capture, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, uid, title, url, company, description, outcome, remote_id, error, created_at
FROM captures
WHERE outcome = ?
ORDER BY created_at ASC
LIMIT ?;`, OutcomeFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(
			&c.ID, &c.UID, &c.Title, &c.URL, &c.Company, &c.Description,
			&c.Outcome, &c.RemoteID, &c.Error, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func DeleteCapture(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM captures WHERE id = ?;`, id)
	return err
}

// cutoffExpr renders a relative sqlite time as RFC3339 so it compares
// against the stored created_at strings.
func cutoffExpr(offset string) string {
	return fmt.Sprintf("strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ','now','%s')", offset)
}

func CleanupOldCaptures(db *sql.DB, retentionDays int) (deleted int64, err error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	res, err := db.Exec(fmt.Sprintf(`
DELETE FROM captures
WHERE created_at < %s;`, cutoffExpr(fmt.Sprintf("-%d days", retentionDays))))
	if err != nil {
		return 0, fmt.Errorf("cleanup old captures: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
