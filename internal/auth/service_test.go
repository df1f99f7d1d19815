package auth

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/db"
	"github.com/mind-engage/mindengage-testprep/internal/kv"
)

func userStores(t *testing.T) map[string]UserStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.Join(t.TempDir(), "users.db"))
	sqlDB, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return map[string]UserStore{
		"kv":     NewKVUsers(kv.NewMemory()),
		"sqlite": NewSQLUsers(sqlDB),
	}
}

func newTestService(users UserStore) *Service {
	s := NewService(users, authmw.NewAuthService("test-secret", time.Hour))
	s.cost = bcrypt.MinCost
	return s
}

func TestRegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	for name, users := range userStores(t) {
		t.Run(name, func(t *testing.T) {
			s := newTestService(users)

			sess, err := s.Register(ctx, Credentials{Username: " Alice ", Password: "secret1"})
			require.NoError(t, err)
			assert.NotEmpty(t, sess.AccessToken)
			assert.Equal(t, "alice", sess.User.Username)
			assert.Equal(t, RoleUser, sess.User.Role)

			_, err = s.Register(ctx, Credentials{Username: "alice", Password: "another1"})
			assert.ErrorIs(t, err, ErrUserExists)

			_, err = s.Login(ctx, Credentials{Username: "alice", Password: "wrong-pass"})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			_, err = s.Login(ctx, Credentials{Username: "nobody", Password: "secret1"})
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			in, err := s.Login(ctx, Credentials{Username: "ALICE", Password: "secret1"})
			require.NoError(t, err)

			u, err := s.Verify(ctx, in.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, sess.User.ID, u.ID)

			_, err = s.Verify(ctx, in.AccessToken+"x")
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			role, err := s.RoleOf(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, RoleUser, role)
			_, err = s.RoleOf(ctx, "ghost")
			assert.ErrorIs(t, err, authmw.ErrUnknownSubject)
		})
	}
}

func TestRegisterValidates(t *testing.T) {
	s := newTestService(NewKVUsers(kv.NewMemory()))
	for _, c := range []Credentials{
		{Username: "al", Password: "secret1"},
		{Username: "alice!", Password: "secret1"},
		{Username: "alice", Password: "123"},
		{Username: "", Password: ""},
	} {
		_, err := s.Register(context.Background(), c)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", c)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	s := newTestService(NewKVUsers(kv.NewMemory()))
	sess, err := s.Register(ctx, Credentials{Username: "bob", Password: "first-pass"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, sess.User.ID, "nope", "second-pass"), ErrInvalidCredentials)
	assert.ErrorIs(t, s.ChangePassword(ctx, sess.User.ID, "first-pass", "x"), ErrInvalidInput)
	require.NoError(t, s.ChangePassword(ctx, sess.User.ID, "first-pass", "second-pass"))

	_, err = s.Login(ctx, Credentials{Username: "bob", Password: "first-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, Credentials{Username: "bob", Password: "second-pass"})
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	for name, users := range userStores(t) {
		t.Run(name, func(t *testing.T) {
			s := newTestService(users)
			hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
			require.NoError(t, err)

			require.NoError(t, s.EnsureAdmin(ctx, "Admin", string(hash)))
			require.NoError(t, s.EnsureAdmin(ctx, "admin", string(hash)), "second call is a no-op")

			sess, err := s.Login(ctx, Credentials{Username: "admin", Password: "admin-pass"})
			require.NoError(t, err)
			assert.Equal(t, RoleAdmin, sess.User.Role)

			assert.NoError(t, s.EnsureAdmin(ctx, "", ""))
		})
	}
}
