package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

const bcryptCost = 12

type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=6,max=72"` // bcrypt reads at most 72 bytes
}

// Session is what a successful register or login returns to the client.
type Session struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type Service struct {
	users    UserStore
	tokens   *authmw.AuthService
	validate *validator.Validate
	cost     int
}

func NewService(users UserStore, tokens *authmw.AuthService) *Service {
	return &Service{users: users, tokens: tokens, validate: validator.New(), cost: bcryptCost}
}

func (s *Service) check(c *Credentials) error {
	c.Username = strings.ToLower(strings.TrimSpace(c.Username))
	if err := s.validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			parts := make([]string, 0, len(ve))
			for _, fe := range ve {
				parts = append(parts, strings.ToLower(fe.Field())+" "+fe.Tag()+fe.Param())
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(parts, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Register creates an account with the user role and signs it in.
func (s *Service) Register(ctx context.Context, c Credentials) (Session, error) {
	if err := s.check(&c); err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return Session{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     c.Username,
		Role:         RoleUser,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return Session{}, err
	}
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, c Credentials) (Session, error) {
	c.Username = strings.ToLower(strings.TrimSpace(c.Username))
	u, err := s.users.ByUsername(ctx, c.Username)
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

// Verify resolves a token to the account it was issued for.
func (s *Service) Verify(ctx context.Context, token string) (User, error) {
	c, err := s.tokens.Parse(token)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	u, err := s.users.ByID(ctx, c.Sub)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	return u, err
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	c := Credentials{Username: u.Username, Password: newPassword}
	if err := s.check(&c); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, string(hash))
}

// RoleOf implements authmw.RoleSource.
func (s *Service) RoleOf(ctx context.Context, userID string) (string, error) {
	u, err := s.users.ByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return "", authmw.ErrUnknownSubject
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// EnsureAdmin creates the admin account from a pre-computed bcrypt hash if it is missing.
func (s *Service) EnsureAdmin(ctx context.Context, username, passHash string) error {
	if username == "" || passHash == "" {
		return nil
	}
	username = strings.ToLower(username)
	if _, err := s.users.ByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	err := s.users.Create(ctx, User{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         RoleAdmin,
		PasswordHash: passHash,
		CreatedAt:    time.Now(),
	})
	if errors.Is(err, ErrUserExists) {
		return nil
	}
	if err == nil {
		log.Printf("auth: created admin account %q", username)
	}
	return err
}

func (s *Service) session(u User) (Session, error) {
	tok, err := s.tokens.IssueJWT(u.ID, u.Username, u.Role)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{AccessToken: tok, User: u}, nil
}

// Users lists every account; admin only.
func (s *Service) Users(ctx context.Context) ([]User, error) { return s.users.List(ctx) }
