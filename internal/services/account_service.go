package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"myeconomy/internal/auth"
	"myeconomy/internal/core"
	"myeconomy/internal/storage"
)

// Registration is the input of AccountService.Register.
type Registration struct {
	Name      string
	Email     string
	Password  string
	BirthDate core.Date
}

// ProfileUpdate changes name and/or birth date; nil fields are kept.
type ProfileUpdate struct {
	Name      *string
	BirthDate *core.Date
}

// AccountService manages users and issues their bearer tokens.
type AccountService struct {
	store  storage.Store
	tokens *auth.Tokens
}

func NewAccountService(store storage.Store, tokens *auth.Tokens) *AccountService {
	return &AccountService{store: store, tokens: tokens}
}

// NormalizeEmail is applied to every email entering the service.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and returns it with a fresh token.
func (s *AccountService) Register(ctx context.Context, reg Registration) (core.User, string, error) {
	u := core.User{
		Email:     NormalizeEmail(reg.Email),
		Name:      strings.TrimSpace(reg.Name),
		BirthDate: reg.BirthDate,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, "", err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return core.User{}, "", err
	}
	u.PasswordHash = hash

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, "", err
	}

	token, err := s.tokens.Issue(created.Email)
	if err != nil {
		return core.User{}, "", err
	}

	slog.InfoContext(ctx, "User registered", "email", created.Email)
	return created, token, nil
}

// Login checks the credentials. Unknown email and wrong password fail the same way.
func (s *AccountService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	u, err := s.store.GetUser(ctx, NormalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, "", core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return core.User{}, "", err
	}
	if !ok {
		slog.WarnContext(ctx, "Failed login attempt", "email", u.Email)
		return core.User{}, "", core.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.Email)
	if err != nil {
		return core.User{}, "", err
	}
	return u, token, nil
}

// Authenticate resolves a bearer token to the email of an existing user.
func (s *AccountService) Authenticate(ctx context.Context, token string) (string, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}
	if _, err := s.store.GetUser(ctx, email); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", fmt.Errorf("%w: user no longer exists", core.ErrUnauthorized)
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	return email, nil
}

func (s *AccountService) Profile(ctx context.Context, email string) (core.User, error) {
	return s.store.GetUser(ctx, email)
}

func (s *AccountService) UpdateProfile(ctx context.Context, email string, upd ProfileUpdate) (core.User, error) {
	if upd.Name == nil && upd.BirthDate == nil {
		return core.User{}, core.ErrEmptyUpdate
	}

	var updated core.User
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		u, err := q.GetUser(ctx, email)
		if err != nil {
			return err
		}
		if upd.Name != nil {
			u.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.BirthDate != nil {
			u.BirthDate = *upd.BirthDate
		}
		if err := u.Validate(); err != nil {
			return err
		}
		updated, err = q.UpdateUser(ctx, u)
		return err
	})
	if err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "Profile updated", "email", email)
	return updated, nil
}

// ChangePassword re-hashes the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, email, current, next string) error {
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(q storage.Querier) error {
		u, err := q.GetUser(ctx, email)
		if err != nil {
			return err
		}
		ok, err := auth.CheckPassword(u.PasswordHash, current)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrInvalidCredentials
		}
		u.PasswordHash = hash
		_, err = q.UpdateUser(ctx, u)
		return err
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Password changed", "email", email)
	return nil
}

// DeleteAccount removes the user together with its expenses and limits.
func (s *AccountService) DeleteAccount(ctx context.Context, email string) error {
	if err := s.store.DeleteUser(ctx, email); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account deleted", "email", email)
	return nil
}
