package account

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/qa-forum/frontend/internal/logger"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/session"
)

// API is the part of the forum backend that handles accounts.
type API interface {
	Login(ctx context.Context, form account.LoginForm) (account.LoginResult, error)
	Register(ctx context.Context, form account.RegisterForm) (account.RegisterResult, error)
}

// Service runs the login, registration and logout flows and keeps the
// resulting session in the store.
type Service struct {
	api      API
	sessions session.Store
	log      zerolog.Logger
}

// NewService creates the account service.
func NewService(api API, sessions session.Store) *Service {
	return &Service{api: api, sessions: sessions, log: logger.Component("account")}
}

// Login validates the form, authenticates and stores the session.
func (s *Service) Login(ctx context.Context, form account.LoginForm) (account.User, error) {
	if err := form.Validate(); err != nil {
		return account.User{}, err
	}

	result, err := s.api.Login(ctx, form)
	if err != nil {
		return account.User{}, err
	}

	user := account.User{ID: result.UserID, Username: result.Username}
	if user.Username == "" {
		user.Username = form.UsernameOrEmail
	}
	if err := s.sessions.Save(ctx, user); err != nil {
		return account.User{}, fmt.Errorf("save session: %w", err)
	}
	s.log.Info().Str("user_id", string(user.ID)).Msg("logged in")
	return user, nil
}

// Register validates the form, creates the account and logs the new user in.
func (s *Service) Register(ctx context.Context, form account.RegisterForm) (account.User, error) {
	if err := form.Validate(); err != nil {
		return account.User{}, err
	}

	result, err := s.api.Register(ctx, form)
	if err != nil {
		return account.User{}, err
	}

	user := account.User{ID: result.UserID, Username: form.Username}
	if err := s.sessions.Save(ctx, user); err != nil {
		return account.User{}, fmt.Errorf("save session: %w", err)
	}
	s.log.Info().Str("user_id", string(user.ID)).Msg("registered")
	return user, nil
}

// Logout forgets the stored session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the logged-in user, or nil for a guest.
func (s *Service) Current(ctx context.Context) (*account.User, error) {
	return s.sessions.Load(ctx)
}
