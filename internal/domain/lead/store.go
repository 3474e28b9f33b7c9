package lead

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// GormStore keeps leads in a relational table
type GormStore struct {
	db       *gorm.DB
	recorder ChangeRecorder
}

// NewGormStore creates the lead store. recorder may be nil, in which case updates are not audited.
func NewGormStore(db *gorm.DB, recorder ChangeRecorder) *GormStore {
	return &GormStore{db: db, recorder: recorder}
}

func (s *GormStore) List(ctx context.Context) ([]Lead, error) {
	var leads []Lead
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Lead, error) {
	var l Lead
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *GormStore) Create(ctx context.Context, l *Lead) error {
	return s.db.WithContext(ctx).Create(l).Error
}

// CreateBatch inserts leads in a single statement
func (s *GormStore) CreateBatch(ctx context.Context, leads []Lead) error {
	if len(leads) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&leads).Error
}

func (s *GormStore) UpdateTracked(ctx context.Context, l *Lead, actor string, changes []FieldChange) error {
	var afterCommit func()

	l.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Lead{}).
			Where("id = ?", l.ID).
			Select("*").
			Omit("id", "created_at").
			Updates(l)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLeadNotFound
		}

		if s.recorder == nil || len(changes) == 0 {
			return nil
		}
		var err error
		afterCommit, err = s.recorder.RecordChanges(tx, actor, l, changes)
		return err
	})
	if err != nil {
		return err
	}

	if afterCommit != nil {
		afterCommit()
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Lead{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// DeleteAll wipes the table and returns the number of removed rows
func (s *GormStore) DeleteAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Lead{})
	return res.RowsAffected, res.Error
}
