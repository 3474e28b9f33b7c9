package activity

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"leadcompass/internal/domain/lead"
	"leadcompass/internal/pkg/metrics"
)

var ErrActivityNotFound = errors.New("activity not found")

// Store persists activities. It is also the lead store's ChangeRecorder, so
// activities are written in the same transaction as the lead row.
type Store struct {
	db      *gorm.DB
	hub     *Hub
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewStore creates the activity store. hub and m may be nil.
func NewStore(db *gorm.DB, hub *Hub, m *metrics.Metrics) *Store {
	return &Store{db: db, hub: hub, metrics: m, now: time.Now}
}

var _ lead.ChangeRecorder = (*Store)(nil)

// RecordChanges inserts one activity per change using tx. The returned func
// publishes the new activities and must only run after tx commits.
func (s *Store) RecordChanges(tx *gorm.DB, actor string, l *lead.Lead, changes []lead.FieldChange) (func(), error) {
	if len(changes) == 0 {
		return nil, nil
	}

	at := s.now()
	rows := make([]Activity, len(changes))
	for i, c := range changes {
		rows[i] = Activity{
			EmployeeName: actor,
			LeadID:       l.ID,
			CustomerName: l.CustomerName,
			FieldChanged: c.Field,
			OldValue:     c.OldValue,
			NewValue:     c.NewValue,
			CreatedAt:    at,
		}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, err
	}

	return func() {
		for _, a := range rows {
			s.hub.Publish(a)
			s.metrics.IncActivity()
		}
	}, nil
}

// ListSince returns non-dismissed activities created at or after since, newest first.
func (s *Store) ListSince(ctx context.Context, since time.Time) ([]Activity, error) {
	var out []Activity
	err := s.db.WithContext(ctx).
		Where("is_dismissed = ? AND created_at >= ?", false, since).
		Order("created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Activity, error) {
	var a Activity
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Dismiss flips is_dismissed to true. Dismissing twice is not an error.
func (s *Store) Dismiss(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&Activity{}).Where("id = ?", id).Update("is_dismissed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DismissOlderThan dismisses every open activity created before cutoff
func (s *Store) DismissOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&Activity{}).
		Where("is_dismissed = ? AND created_at < ?", false, cutoff).
		Update("is_dismissed", true)
	return res.RowsAffected, res.Error
}
