package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) ListTests(ctx context.Context, owner string) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body_json FROM tests WHERE owner_id=$1 ORDER BY created_at DESC, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Test{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var t Test
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetTest(ctx context.Context, owner, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `SELECT body_json FROM tests WHERE owner_id=$1 AND id=$2`, owner, id)
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrTestNotFound
		}
		return Test{}, err
	}
	var t Test
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) PutTest(ctx context.Context, owner string, t Test) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (owner_id,id,name,body_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (owner_id,id) DO UPDATE SET name=EXCLUDED.name, body_json=EXCLUDED.body_json, updated_at=EXCLUDED.updated_at`,
		owner, t.ID, t.Name, string(body), t.CreatedAt.Unix(), time.Now().Unix())
	return err
}

func (s *SQLStore) DeleteTest(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tests WHERE owner_id=$1 AND id=$2`, owner, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTestNotFound
	}
	return nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, owner string, opts AttemptListOpts) ([]Attempt, error) {
	q := `SELECT body_json FROM attempts WHERE owner_id=$1`
	args := []any{owner}
	if opts.TestID != "" {
		q += ` AND test_id=$2`
		args = append(args, opts.TestID)
	}
	q += ` ORDER BY completed_at DESC, id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var a Attempt
		if err := json.Unmarshal([]byte(body), &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// completed_at is stored in whole seconds; re-sort on the full timestamp.
	SortAttempts(out)
	return page(out, opts.Limit, opts.Offset), nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, owner, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT body_json FROM attempts WHERE owner_id=$1 AND id=$2`, owner, id)
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	var a Attempt
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) AddAttempt(ctx context.Context, owner string, a Attempt) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts (owner_id,id,test_id,score,completed_at,body_json)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (owner_id,id) DO NOTHING`,
		owner, a.ID, a.Test.ID, a.Score, a.CompletedAt.Unix(), string(body))
	return err
}
