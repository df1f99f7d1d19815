package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"
)

const (
	TypeAttemptSubmitted = "attempt.submitted"
	TypeAttemptTimedOut  = "attempt.timed_out"
	TypeTestSaved        = "test.saved"
	TypeTestDeleted      = "test.deleted"
	TypeBackupRestored   = "backup.restored"
)

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// Recorder appends events to an audit trail.
type Recorder interface {
	Append(ctx context.Context, e Event) error
}

// NewEvent builds an event with data marshalled to JSON.
func NewEvent(typ, key string, data any) Event {
	b, err := json.Marshal(data)
	if err != nil {
		b = []byte("{}")
	}
	return Event{SiteID: "local", Type: typ, Key: key, DataJSON: string(b)}
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// List returns events after seq, oldest first.
func (r *EventRepo) List(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log WHERE seq > $1 ORDER BY seq LIMIT $2`,
		after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LogRecorder writes events to the process log; used when no SQL database is configured.
type LogRecorder struct{ Logger *log.Logger }

func (l LogRecorder) Append(_ context.Context, e Event) error {
	lg := l.Logger
	if lg == nil {
		lg = log.Default()
	}
	lg.Printf("event %s key=%s data=%s", e.Type, e.Key, e.DataJSON)
	return nil
}
