package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var ErrMissingField = errors.New("missing required field")

// AccountService registers users and verifies credentials.
type AccountService struct {
	storage *storage.Repository
}

func NewAccountService(storage *storage.Repository) *AccountService {
	return &AccountService{storage: storage}
}

// Register creates a new user with a bcrypt-hashed password. Duplicate
// usernames or emails surface as core.ErrDuplicate.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return core.User{}, ErrMissingField
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, username, email, hash)
	if err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies the credentials. A wrong username and a wrong password are
// indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, username, password string) (core.User, error) {
	if username == "" || password == "" {
		return core.User{}, ErrMissingField
	}

	user, err := s.storage.GetUserByUsername(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return core.User{}, core.ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword re-hashes and stores a new password for the user.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	if newPassword == "" {
		return ErrMissingField
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.storage.UpdatePassword(ctx, userID, hash)
}
