package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository"
	"github.com/kirinyoku/stagepass/internal/service/ports"
)

type Config struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Service issues credentials: bcrypt password hashes (the salt is embedded
// in the hash) and HS256 access tokens.
type Service struct {
	repos ports.Repos
	cfg   Config
}

func New(repos ports.Repos, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &Service{
		repos: repos,
		cfg:   cfg,
	}
}

type Result struct {
	AccessToken string
	User        domain.User
}

// Register creates a user and returns a signed access token.
//
// Returns:
//   - *Result: token and created user.
//   - error: auth.ErrUsernameTaken if the username exists.
func (s *Service) Register(ctx context.Context, username, password string, role domain.UserRole) (*Result, error) {
	const op = "service.auth.Register"

	if role == "" {
		role = domain.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repos.Users().Create(ctx, domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.sign(*user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Result{AccessToken: token, User: *user}, nil
}

// Login verifies credentials and returns a signed access token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
//
// Returns:
//   - *Result: token and user.
//   - error: auth.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Result, error) {
	const op = "service.auth.Login"

	user, err := s.repos.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.sign(*user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Result{AccessToken: token, User: *user}, nil
}

func (s *Service) sign(u domain.User) (string, error) {
	now := time.Now().UTC()

	claims := jwt.MapClaims{
		"sub":      u.ID.String(),
		"username": u.Username,
		"role":     string(u.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.TokenTTL).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}
