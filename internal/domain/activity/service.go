package activity

import (
	"context"
	"errors"
	"time"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/lead"
	"leadcompass/internal/pkg/apperr"
	"leadcompass/internal/pkg/logger"
)

// LeadEditor applies a patch to a lead on behalf of a session
type LeadEditor interface {
	Update(ctx context.Context, sess *access.Session, id string, p lead.Patch) (*lead.Lead, error)
}

type Service struct {
	store  *Store
	leads  LeadEditor
	window time.Duration
	log    logger.Logger
	now    func() time.Time
}

func NewService(store *Store, leads LeadEditor, window time.Duration, log logger.Logger) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{store: store, leads: leads, window: window, log: log, now: time.Now}
}

// Window is the recency window of the feed
func (s *Service) Window() time.Duration { return s.window }

// Recent lists open activities from the last window, newest first.
func (s *Service) Recent(ctx context.Context, sess *access.Session) ([]Activity, error) {
	if err := access.Require(sess, access.CapActivityView); err != nil {
		return nil, err
	}
	out, err := s.store.ListSince(ctx, s.now().Add(-s.window))
	if err != nil {
		return nil, apperr.Persistence("list activities", err)
	}
	return out, nil
}

// Dismiss hides an activity from the feed for good.
func (s *Service) Dismiss(ctx context.Context, sess *access.Session, id string) error {
	if err := access.Require(sess, access.CapActivityView); err != nil {
		return err
	}
	if err := s.store.Dismiss(ctx, id); err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			return &apperr.NotFoundError{Entity: "activity", ID: id}
		}
		return apperr.Persistence("dismiss activity", err)
	}
	return nil
}

// Revert writes the recorded old value back to the lead and then dismisses the activity.
// The revert goes through the lead repository, so it produces its own activity.
func (s *Service) Revert(ctx context.Context, sess *access.Session, id string) (*lead.Lead, error) {
	if err := access.Require(sess, access.CapActivityView); err != nil {
		return nil, err
	}

	a, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrActivityNotFound) {
		return nil, &apperr.NotFoundError{Entity: "activity", ID: id}
	}
	if err != nil {
		return nil, apperr.Persistence("load activity", err)
	}

	patch, err := lead.PatchForField(a.FieldChanged, a.OldValue)
	if err != nil {
		return nil, apperr.Validation("field_changed", "cannot revert "+a.FieldChanged+": "+err.Error())
	}

	updated, err := s.leads.Update(ctx, sess, a.LeadID, patch)
	if err != nil {
		s.log.Warn("activity revert failed", "activity_id", id, "lead_id", a.LeadID, "error", err)
		return nil, err
	}

	if err := s.store.Dismiss(ctx, id); err != nil {
		return nil, apperr.Persistence("dismiss activity", err)
	}
	s.log.Info("activity reverted", "activity_id", id, "lead_id", a.LeadID, "field", a.FieldChanged, "actor", sess.Name)
	return updated, nil
}

// SweepExpired dismisses activities that have aged out of the window
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DismissOlderThan(ctx, s.now().Add(-s.window))
	if err != nil {
		return 0, apperr.Persistence("sweep activities", err)
	}
	return n, nil
}
