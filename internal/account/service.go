package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/haesinais/aisdash/internal/remote"
	"github.com/haesinais/aisdash/pkg/logger"
)

var (
	// ErrPasswordMismatch is returned when the confirmation does not match the password
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrMissingCredentials is returned when the username or password is empty
	ErrMissingCredentials = errors.New("username and password are required")
)

// Messages shown inline next to the login and registration forms
const (
	MsgLoginOK            = "Logged in."
	MsgLoginFailed        = "Login failed. Check your username and password."
	MsgRegisterOK         = "Registration complete!"
	MsgRegisterFailed     = "Registration failed. Please try again."
	MsgPasswordMismatch   = "Passwords do not match."
	MsgMissingCredentials = "Enter a username and password."
)

// Authenticator is the part of the remote API handling accounts
type Authenticator interface {
	Login(ctx context.Context, creds remote.Credentials) error
	Join(ctx context.Context, creds remote.Credentials) error
}

// Result is what the user sees after submitting a form
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Service runs the login and registration flows. Failures are never
// retried; they become an inline message.
type Service struct {
	auth   Authenticator
	logger *logger.Logger
}

// NewService creates a new account service
func NewService(auth Authenticator, loggerObj *logger.Logger) *Service {
	return &Service{
		auth:   auth,
		logger: loggerObj.Named("account"),
	}
}

// Login authenticates the user. The returned error is for logging; the
// Result always carries the message to display.
func (s *Service) Login(ctx context.Context, username, password string) (Result, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return Result{Message: MsgMissingCredentials}, ErrMissingCredentials
	}

	if err := s.auth.Login(ctx, remote.Credentials{Username: username, Password: password}); err != nil {
		s.logger.Info("Login failed", logger.String("username", username), logger.Error(err))
		return Result{Message: MsgLoginFailed}, fmt.Errorf("login %s: %w", username, err)
	}

	s.logger.Info("Login succeeded", logger.String("username", username))
	return Result{OK: true, Message: MsgLoginOK}, nil
}

// Register creates a new member after checking the password confirmation
// locally; a mismatch never reaches the remote API
func (s *Service) Register(ctx context.Context, username, password, confirm string) (Result, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return Result{Message: MsgMissingCredentials}, ErrMissingCredentials
	}
	if password != confirm {
		return Result{Message: MsgPasswordMismatch}, ErrPasswordMismatch
	}

	if err := s.auth.Join(ctx, remote.Credentials{Username: username, Password: password}); err != nil {
		s.logger.Info("Registration failed", logger.String("username", username), logger.Error(err))
		return Result{Message: MsgRegisterFailed}, fmt.Errorf("join %s: %w", username, err)
	}

	s.logger.Info("Registration succeeded", logger.String("username", username))
	return Result{OK: true, Message: MsgRegisterOK}, nil
}
