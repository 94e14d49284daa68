package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"libraryapi/internal/apperr"
	"libraryapi/internal/auth"
)

type Service struct {
	repo      Repository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewService(repo Repository, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Register creates a student account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, name, surname, email, password string) (User, string, error) {
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return User{}, "", apperr.InvalidInput(err.Error())
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, "", err
	}

	u := User{
		Name:         strings.TrimSpace(name),
		Surname:      strings.TrimSpace(surname),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         auth.RoleStudent,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return User{}, "", err
	}

	token, err := s.token(u)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

// Login verifies the password and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return User{}, "", apperr.Unauthenticated("invalid email or password")
		}
		return User{}, "", err
	}

	if !auth.VerifyPassword(u.PasswordHash, password) {
		return User{}, "", apperr.Unauthenticated("invalid email or password")
	}

	token, err := s.token(u)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

func (s *Service) token(u User) (string, error) {
	return auth.GenerateToken(s.jwtSecret, auth.TokenUser{
		ID:      u.ID,
		Role:    u.Role,
		Name:    u.Name,
		Surname: u.Surname,
	}, s.tokenTTL)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// CreateByAdmin creates an account with an explicit role.
func (s *Service) CreateByAdmin(ctx context.Context, name, surname, email, password, role string) (User, error) {
	if role != auth.RoleStudent && role != auth.RoleAdmin {
		return User{}, apperr.InvalidInput("role must be student or admin")
	}
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return User{}, apperr.InvalidInput(err.Error())
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	u := User{
		Name:         strings.TrimSpace(name),
		Surname:      strings.TrimSpace(surname),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, u *User) error {
	if u.Role != auth.RoleStudent && u.Role != auth.RoleAdmin {
		return apperr.InvalidInput("role must be student or admin")
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return s.repo.Update(ctx, u)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
