package lead

import (
	"context"

	"gorm.io/gorm"
)

// Store is the system of record for leads.
type Store interface {
	List(ctx context.Context) ([]Lead, error)
	Get(ctx context.Context, id string) (*Lead, error)
	Create(ctx context.Context, l *Lead) error
	CreateBatch(ctx context.Context, leads []Lead) error
	// UpdateTracked writes l and its field changes atomically.
	UpdateTracked(ctx context.Context, l *Lead, actor string, changes []FieldChange) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// ChangeRecorder persists field-change records inside the lead update transaction.
// The returned func, when not nil, is called once the transaction has committed.
type ChangeRecorder interface {
	RecordChanges(tx *gorm.DB, actor string, l *Lead, changes []FieldChange) (afterCommit func(), err error)
}

// Roster answers assignment-eligibility questions about staff names.
type Roster interface {
	TerminatedNames(ctx context.Context) (map[string]bool, error)
}

// PasswordVerifier re-checks the acting profile's credential.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, profileID, password string) (bool, error)
}
