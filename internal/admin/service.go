// Package admin implements account provisioning: public access
// requests, and the master-session review and user management flows.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/artmixer/atelier/internal/api"
	"github.com/artmixer/atelier/internal/domain"
	apperrors "github.com/artmixer/atelier/internal/errors"
)

// ServiceOptions groups dependencies for Service.
type ServiceOptions struct {
	Client *api.Client
	Logger *slog.Logger
}

// Service performs the admin workflow against the remote service. It
// holds the last fetched request and user lists; every mutation goes
// to the server first and then refetches the affected list wholesale,
// the server being the only source of truth for review state.
type Service struct {
	client *api.Client
	logger *slog.Logger

	mu       sync.RWMutex
	requests []domain.PermissionRequest
	users    []domain.User

	// reloads collapses concurrent list refetches into one trip per key.
	reloads singleflight.Group
}

// NewService constructs an admin service with empty lists.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		client: opts.Client,
		logger: opts.Logger,
	}, nil
}

// Requests returns the last fetched permission requests.
func (s *Service) Requests() []domain.PermissionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PermissionRequest(nil), s.requests...)
}

// Users returns the last fetched users.
func (s *Service) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.User(nil), s.users...)
}

// SubmitRequest files a public access petition. It needs no session.
func (s *Service) SubmitRequest(ctx context.Context, name, email, reason string) (string, error) {
	if email == "" {
		return "", apperrors.ValidationField("email", "an email address is required")
	}
	if reason == "" {
		return "", apperrors.ValidationField("reason", "a reason is required")
	}

	var resp struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
	}
	body := map[string]string{"name": name, "email": email, "reason": reason}
	if err := s.client.PostJSON(ctx, "/auth/requests", body, &resp); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "access request submitted", "request_id", resp.RequestID)
	return resp.RequestID, nil
}

// requireAdmin rejects before any network call unless the session
// carries admin rights.
func (s *Service) requireAdmin() error {
	if !s.client.Session().IsAdmin() {
		return apperrors.AuthRequired("Master access required")
	}
	return nil
}

// RefreshRequests refetches the pending-review list. Concurrent
// callers share one request.
func (s *Service) RefreshRequests(ctx context.Context) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	_, err, _ := s.reloads.Do("requests", func() (any, error) {
		var body struct {
			Requests []domain.PermissionRequest `json:"requests"`
		}
		if err := s.client.GetJSON(ctx, "/auth/requests", &body); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.requests = body.Requests
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

// RefreshUsers refetches the provisioned user list. Concurrent callers
// share one request.
func (s *Service) RefreshUsers(ctx context.Context) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	_, err, _ := s.reloads.Do("users", func() (any, error) {
		var body struct {
			Users []domain.User `json:"users"`
		}
		if err := s.client.GetJSON(ctx, "/auth/users", &body); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.users = body.Users
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

// ListRequests refetches and returns the permission requests.
func (s *Service) ListRequests(ctx context.Context) ([]domain.PermissionRequest, error) {
	if err := s.RefreshRequests(ctx); err != nil {
		return nil, err
	}
	return s.Requests(), nil
}

// ListUsers refetches and returns the users.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := s.RefreshUsers(ctx); err != nil {
		return nil, err
	}
	return s.Users(), nil
}

// Approve grants a pending request. Approval provisions an account on
// the server side, so both lists are refetched afterwards.
func (s *Service) Approve(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.ValidationField("id", "request id is required")
	}
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.client.PostJSON(ctx, "/auth/requests/"+url.PathEscape(id)+"/approve", nil, nil); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "request approved", "request_id", id)
	if err := s.RefreshRequests(ctx); err != nil {
		return err
	}
	return s.RefreshUsers(ctx)
}

// Reject declines a pending request with an optional reason.
func (s *Service) Reject(ctx context.Context, id, reason string) error {
	if id == "" {
		return apperrors.ValidationField("id", "request id is required")
	}
	if err := s.requireAdmin(); err != nil {
		return err
	}
	body := map[string]string{"reason": reason}
	if err := s.client.PostJSON(ctx, "/auth/requests/"+url.PathEscape(id)+"/reject", body, nil); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "request rejected", "request_id", id)
	return s.RefreshRequests(ctx)
}

// DeleteRequest removes a request record entirely.
func (s *Service) DeleteRequest(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.ValidationField("id", "request id is required")
	}
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, "/auth/requests/"+url.PathEscape(id)); err != nil {
		return err
	}
	return s.RefreshRequests(ctx)
}

// CreateUser provisions an account directly, bypassing the request
// flow.
func (s *Service) CreateUser(ctx context.Context, email, password string) error {
	if email == "" {
		return apperrors.ValidationField("email", "an email address is required")
	}
	if password == "" {
		return apperrors.ValidationField("password", "a password is required")
	}
	if err := s.requireAdmin(); err != nil {
		return err
	}
	body := map[string]string{"email": email, "password": password}
	if err := s.client.PostJSON(ctx, "/auth/users", body, nil); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user created", "email", email)
	return s.RefreshUsers(ctx)
}

// DeleteUser removes a provisioned account.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.ValidationField("email", "an email address is required")
	}
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, "/auth/users/"+url.PathEscape(email)); err != nil {
		return err
	}
	return s.RefreshUsers(ctx)
}
