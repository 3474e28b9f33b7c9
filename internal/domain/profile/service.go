package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/pkg/apperr"
	"leadcompass/internal/pkg/logger"
	"leadcompass/internal/pkg/validator"
)

// Service handles staff profile business logic
type Service struct {
	repo *Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

// Create adds a staff account. CEO only.
func (s *Service) Create(ctx context.Context, sess *access.Session, req CreateRequest) (*Profile, error) {
	if err := access.Require(sess, access.CapProfileManage); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if fields := validator.Messages(&req); fields != nil {
		return nil, &apperr.ValidationError{Fields: fields}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		Role:         req.Role,
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: strings.TrimSpace(req.MobileNumber),
		Salary:       req.Salary,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.Validation("email", "already exists")
		}
		return nil, apperr.Persistence("create profile", err)
	}

	s.log.Info("profile created", "profile_id", p.ID, "role", p.Role, "actor", sess.Name)
	return p, nil
}

// Update applies a partial change to a profile. CEO only.
// Renaming does not rewrite the assigned_to of existing leads.
func (s *Service) Update(ctx context.Context, sess *access.Session, id string, req UpdateRequest) (*Profile, error) {
	if err := access.Require(sess, access.CapProfileManage); err != nil {
		return nil, err
	}
	if fields := validator.Messages(&req); fields != nil {
		return nil, &apperr.ValidationError{Fields: fields}
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name", "is required")
		}
		p.Name = name
	}
	if req.Email != nil {
		p.Email = normalizeEmail(*req.Email)
	}
	if req.Role != nil {
		p.Role = *req.Role
	}
	if req.MobileNumber != nil {
		p.MobileNumber = strings.TrimSpace(*req.MobileNumber)
	}
	if req.Salary != nil {
		p.Salary = req.Salary
	}

	if err := s.repo.Save(ctx, p); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.Validation("email", "already exists")
		}
		return nil, apperr.Persistence("update profile", err)
	}
	return p, nil
}

// Terminate soft-deletes a profile. Terminating twice keeps the first date.
func (s *Service) Terminate(ctx context.Context, sess *access.Session, id string) (*Profile, error) {
	if err := access.Require(sess, access.CapProfileManage); err != nil {
		return nil, err
	}
	if id == sess.ProfileID {
		return nil, apperr.Validation("id", "cannot terminate your own profile")
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsTerminated {
		return p, nil
	}

	p.IsTerminated = true
	p.TerminationDate = s.now().Format("2006-01-02")
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, apperr.Persistence("terminate profile", err)
	}

	s.log.Warn("profile terminated", "profile_id", p.ID, "name", p.Name, "actor", sess.Name)
	return p, nil
}

// List returns every profile. CEO only.
func (s *Service) List(ctx context.Context, sess *access.Session) ([]Profile, error) {
	if err := access.Require(sess, access.CapProfileManage); err != nil {
		return nil, err
	}
	out, err := s.repo.List(ctx, "")
	if err != nil {
		return nil, apperr.Persistence("list profiles", err)
	}
	return out, nil
}

// ListEmployees returns Employee profiles for any signed-in user.
// Salaries are only shown to callers who can manage profiles.
func (s *Service) ListEmployees(ctx context.Context, sess *access.Session) ([]Profile, error) {
	if sess == nil {
		return nil, &apperr.PermissionError{Capability: "session"}
	}
	out, err := s.repo.List(ctx, access.RoleEmployee)
	if err != nil {
		return nil, apperr.Persistence("list employees", err)
	}
	if !access.Can(sess, access.CapProfileManage) {
		for i := range out {
			out[i] = out[i].redacted()
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, &apperr.NotFoundError{Entity: "profile", ID: id}
	}
	if err != nil {
		return nil, apperr.Persistence("load profile", err)
	}
	return p, nil
}

// GetByEmail returns ErrProfileNotFound unwrapped so sign-in can treat it as bad credentials.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return s.repo.GetByEmail(ctx, email)
}

// TerminatedNames returns the set of names that may no longer receive leads.
func (s *Service) TerminatedNames(ctx context.Context) (map[string]bool, error) {
	names, err := s.repo.Names(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

// AssignableNames lists active staff names, sorted
func (s *Service) AssignableNames(ctx context.Context) ([]string, error) {
	names, err := s.repo.Names(ctx, false)
	if err != nil {
		return nil, apperr.Persistence("list assignable names", err)
	}
	return names, nil
}

// EmployeeNames lists every Employee name, terminated or not, for team reports.
func (s *Service) EmployeeNames(ctx context.Context) ([]string, error) {
	profiles, err := s.repo.List(ctx, access.RoleEmployee)
	if err != nil {
		return nil, apperr.Persistence("list employees", err)
	}
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names, nil
}

// EnsureCEO creates the first CEO account when none exists. It reports whether one was created.
func (s *Service) EnsureCEO(ctx context.Context, name, email, password string) (*Profile, bool, error) {
	n, err := s.repo.CountByRole(ctx, access.RoleCEO)
	if err != nil {
		return nil, false, err
	}
	if n > 0 {
		return nil, false, nil
	}

	bootstrap := &access.Session{Name: "bootstrap", Role: access.RoleCEO}
	p, err := s.Create(ctx, bootstrap, CreateRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     access.RoleCEO,
	})
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}
