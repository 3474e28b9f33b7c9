package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"leadcompass/internal/domain/access"
)

// Repository handles profile data access
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *Profile) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *Repository) Save(ctx context.Context, p *Profile) error {
	err := r.db.WithContext(ctx).Save(p).Error
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail looks up a profile by its normalised email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return r.first(ctx, "email = ?", normalizeEmail(email))
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns profiles ordered by name. An empty role lists every role.
func (r *Repository) List(ctx context.Context, role access.Role) ([]Profile, error) {
	q := r.db.WithContext(ctx).Order("name asc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var out []Profile
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Names returns the names of profiles with the given termination state
func (r *Repository) Names(ctx context.Context, terminated bool) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&Profile{}).
		Where("is_terminated = ?", terminated).
		Order("name asc").
		Pluck("name", &names).Error
	return names, err
}

func (r *Repository) CountByRole(ctx context.Context, role access.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Profile{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation recognises duplicate-key errors from PostgreSQL and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "sqlstate 23505") ||
		strings.Contains(msg, "duplicate key")
}
