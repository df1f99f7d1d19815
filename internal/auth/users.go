package auth

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/kv"
)

var (
	ErrUserExists   = errors.New("username already taken")
	ErrUserNotFound = errors.New("user not found")
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserStore interface {
	Create(ctx context.Context, u User) error
	ByUsername(ctx context.Context, username string) (User, error)
	ByID(ctx context.Context, id string) (User, error)
	SetPassword(ctx context.Context, id, hash string) error
	List(ctx context.Context) ([]User, error)
}

// ---- SQL ----

type SQLUsers struct{ db *sql.DB }

func NewSQLUsers(db *sql.DB) *SQLUsers { return &SQLUsers{db: db} }

func (s *SQLUsers) Create(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return ErrUserExists
	}
	return err
}

func (s *SQLUsers) ByUsername(ctx context.Context, username string) (User, error) {
	return s.one(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE username=$1`, username)
}

func (s *SQLUsers) ByID(ctx context.Context, id string) (User, error) {
	return s.one(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE id=$1`, id)
}

func (s *SQLUsers) one(ctx context.Context, q string, arg string) (User, error) {
	var u User
	var created int64
	err := s.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

func (s *SQLUsers) SetPassword(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLUsers) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, password_hash, role, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		var created int64
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &created); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(created, 0)
		out = append(out, u)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}

// ---- JSON file ----

const keyUsers = "users"

// storedUser has User's exact field layout so the two convert directly.
type storedUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// KVUsers keeps accounts in the "users" list of the shared JSON document.
type KVUsers struct {
	mu sync.Mutex
	g  kv.Gateway
}

func NewKVUsers(g kv.Gateway) *KVUsers { return &KVUsers{g: g} }

func (s *KVUsers) all() []storedUser { return kv.GetOr(s.g, keyUsers, []storedUser{}) }

func (s *KVUsers) Create(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.all()
	for _, x := range all {
		if x.Username == u.Username {
			return ErrUserExists
		}
	}
	all = append(all, storedUser(u))
	return s.g.Set(keyUsers, all)
}

func (s *KVUsers) find(match func(storedUser) bool) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.all() {
		if match(x) {
			return User(x), nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *KVUsers) ByUsername(_ context.Context, username string) (User, error) {
	return s.find(func(x storedUser) bool { return x.Username == username })
}

func (s *KVUsers) ByID(_ context.Context, id string) (User, error) {
	return s.find(func(x storedUser) bool { return x.ID == id })
}

func (s *KVUsers) SetPassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.all()
	for i := range all {
		if all[i].ID == id {
			all[i].PasswordHash = hash
			return s.g.Set(keyUsers, all)
		}
	}
	return ErrUserNotFound
}

func (s *KVUsers) List(_ context.Context) ([]User, error) {
	s.mu.Lock()
	all := s.all()
	s.mu.Unlock()
	out := make([]User, 0, len(all))
	for _, x := range all {
		out = append(out, User(x))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
