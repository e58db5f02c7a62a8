// Package auth содержит регистрацию и вход пользователей.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/servicehub/internal/lib/password"
	"github.com/magabrotheeeer/servicehub/internal/lib/phone"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
)

// ErrInvalidCredentials — неверная пара логин/пароль. Не раскрывает, что именно не так.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает пользователя по имени.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenMaker выпускает JWT.
type TokenMaker interface {
	GenerateToken(userUID, username, role string) (string, error)
}

// Service отвечает за регистрацию и авторизацию.
type Service struct {
	log    *slog.Logger
	users  UserRepository
	tokens TokenMaker
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, users UserRepository, tokens TokenMaker) *Service {
	return &Service{
		log:    log,
		users:  users,
		tokens: tokens,
	}
}

// Register создаёт пользователя с ролью user. Телефон приводится к формату +233XXXXXXXXX.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	const op = "auth.Register"

	normalized, err := phone.Normalize(req.Phone)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.Hash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.users.CreateUser(ctx, models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     req.Username,
		Phone:        normalized,
		PasswordHash: hashed,
		Role:         models.RoleUser,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_uid", uid))
	return uid, nil
}

// Login проверяет пароль и возвращает токен доступа вместе с пользователем.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.Compare(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err := s.tokens.GenerateToken(user.UID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}
