// Package auth signs staff in and resolves bearer tokens into sessions.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/profile"
	"leadcompass/internal/pkg/jwt"
	"leadcompass/internal/pkg/logger"
	"leadcompass/internal/pkg/metrics"
)

// ProfileLookup is the part of the profile service sign-in needs
type ProfileLookup interface {
	GetByEmail(ctx context.Context, email string) (*profile.Profile, error)
	Get(ctx context.Context, id string) (*profile.Profile, error)
}

type tokenService interface {
	GenerateToken(profileID string, role string) (string, error)
	ValidateToken(token string) (*jwt.Claims, error)
	TTL() time.Duration
}

type Service struct {
	profiles ProfileLookup
	tokens   tokenService
	metrics  *metrics.Metrics
	log      logger.Logger
}

func NewService(profiles ProfileLookup, tokens tokenService, m *metrics.Metrics, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{profiles: profiles, tokens: tokens, metrics: m, log: log}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Profile     *profile.Profile `json:"profile"`
	Session     *access.Session  `json:"session"`
}

// Login checks credentials and issues an access token.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	p, err := s.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, profile.ErrProfileNotFound) {
		s.metrics.IncLogin("invalid")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.IncLogin("error")
		return nil, err
	}

	if !p.CheckPassword(req.Password) {
		s.metrics.IncLogin("invalid")
		s.log.Warn("sign-in rejected", "email", p.Email)
		return nil, ErrInvalidCredentials
	}
	if p.IsTerminated {
		s.metrics.IncLogin("terminated")
		return nil, ErrAccountTerminated
	}

	token, err := s.tokens.GenerateToken(p.ID, string(p.Role))
	if err != nil {
		s.metrics.IncLogin("error")
		return nil, err
	}

	s.metrics.IncLogin("success")
	s.log.Info("signed in", "profile_id", p.ID, "role", p.Role)
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.tokens.TTL()),
		Profile:     p,
		Session:     p.Session(),
	}, nil
}

// Resolve validates a bearer token and loads the current profile behind it.
// The role comes from the profile row, so a role change takes effect on the next request.
func (s *Service) Resolve(ctx context.Context, token string) (*access.Session, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	p, err := s.profiles.Get(ctx, claims.ProfileID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if p.IsTerminated {
		return nil, ErrAccountTerminated
	}
	return p.Session(), nil
}

// VerifyPassword re-checks a signed-in profile's password before a destructive action.
func (s *Service) VerifyPassword(ctx context.Context, profileID, password string) (bool, error) {
	p, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return false, err
	}
	return p.CheckPassword(password), nil
}
