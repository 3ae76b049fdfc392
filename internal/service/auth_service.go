package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrCredentialsRequired = errors.New("username and password are required")

// loginAPI is the subset of api.Client that AuthService requires.
type loginAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthService struct {
	api    loginAPI
	logger *slog.Logger
}

func NewAuthService(api loginAPI, logger *slog.Logger) *AuthService {
	return &AuthService{api: api, logger: logger}
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrCredentialsRequired
	}
	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("admin login failed", "username", username, "error", err)
		return "", fmt.Errorf("login failed: %w", err)
	}
	s.logger.Info("admin logged in", "username", username)
	return token, nil
}
