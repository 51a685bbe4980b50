// Package auth wraps the backend's authentication endpoints and owns the
// client-side session lifecycle.
package auth

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/barale2906/carmot-go/api"
	"github.com/barale2906/carmot-go/internal/errors"
)

// Service maps the auth REST resource to plain functions. It holds no
// state; the session store layers the lifecycle on top.
type Service struct {
	client *api.Client
}

// NewService creates an auth Service over client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Login exchanges credentials for a bearer token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	env, err := s.client.Post(ctx, "/login", creds)
	if err != nil {
		return nil, err
	}
	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := env.DecodeInto(&payload); err != nil {
		return nil, err
	}
	if payload.AccessToken == "" {
		return nil, errors.ErrLoginFailed
	}
	tokenType := payload.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{AccessToken: payload.AccessToken, TokenType: tokenType}, nil
}

// RefreshToken forces a token refresh with the current credential. The
// client coalesces concurrent refreshes into one backend call.
func (s *Service) RefreshToken(ctx context.Context) error {
	return s.client.Refresh(ctx)
}

// Logout notifies the backend that the session is over.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.client.Post(ctx, "/logout", nil)
	return err
}

// CurrentUser fetches the principal for the active credential.
func (s *Service) CurrentUser(ctx context.Context) (*Principal, error) {
	env, err := s.client.Get(ctx, "/user", nil)
	if err != nil {
		return nil, err
	}
	var principal Principal
	if err := env.DecodeInto(&principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// Permissions fetches the caller's permission grants.
func (s *Service) Permissions(ctx context.Context) ([]Permission, error) {
	env, err := s.client.Get(ctx, "/auth/permissions", nil)
	if err != nil {
		return nil, err
	}
	var perms []Permission
	if err := env.DecodeInto(&perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// ChangePassword updates the authenticated user's password.
func (s *Service) ChangePassword(ctx context.Context, current, updated string) error {
	_, err := s.client.Post(ctx, "/auth/change-password", map[string]string{
		"current_password": current,
		"password":         updated,
	})
	return err
}

// RequestPasswordReset asks the backend to mail a reset link.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := s.client.Post(ctx, "/auth/forgot-password", map[string]string{"email": email})
	return err
}

// ResetPassword completes a password reset started by mail.
func (s *Service) ResetPassword(ctx context.Context, token, email, password string) error {
	_, err := s.client.Post(ctx, "/auth/reset-password", map[string]string{
		"token":    token,
		"email":    email,
		"password": password,
	})
	return err
}
