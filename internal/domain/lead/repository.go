package lead

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/pkg/apperr"
	"leadcompass/internal/pkg/logger"
	"leadcompass/internal/pkg/metrics"
	"leadcompass/internal/pkg/validator"
)

const (
	DefaultBatchSize    = 50
	DefaultFetchTimeout = 15 * time.Second
	DefaultFollowupDays = 7

	maxTrackedMutations = 100
	maxFetchAttempts    = 3
)

var errNoVerifier = errors.New("password verifier not configured")

// MutationState tags an in-flight or finished single-record mutation.
type MutationState string

const (
	MutationPending   MutationState = "pending"
	MutationConfirmed MutationState = "confirmed"
	MutationFailed    MutationState = "failed"
)

// Mutation is the lifecycle record of one write against the working set.
type Mutation struct {
	ID        string        `json:"id"`
	Op        string        `json:"op"`
	LeadID    string        `json:"lead_id,omitempty"`
	Actor     string        `json:"actor"`
	State     MutationState `json:"state"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
}

type Options struct {
	BatchSize    int
	FetchTimeout time.Duration
	Roster       Roster
	Verifier     PasswordVerifier
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

// Repository owns the in-memory working set of leads and is its only writer.
// Every mutation goes to the store first and the working set is reconciled with the store's answer.
type Repository struct {
	store        Store
	roster       Roster
	verifier     PasswordVerifier
	log          logger.Logger
	metrics      *metrics.Metrics
	batchSize    int
	fetchTimeout time.Duration
	now          func() time.Time

	mu        sync.RWMutex
	leads     []Lead
	loaded    bool
	gen       uint64 // bumped by every local patch
	mutations []Mutation

	inflight singleflight.Group
}

func NewRepository(store Store, opts Options) *Repository {
	r := &Repository{
		store:        store,
		roster:       opts.Roster,
		verifier:     opts.Verifier,
		log:          opts.Logger,
		metrics:      opts.Metrics,
		batchSize:    opts.BatchSize,
		fetchTimeout: opts.FetchTimeout,
		now:          opts.Now,
	}
	if r.log == nil {
		r.log = logger.Default()
	}
	if r.batchSize <= 0 {
		r.batchSize = DefaultBatchSize
	}
	if r.fetchTimeout <= 0 {
		r.fetchTimeout = DefaultFetchTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// ListAll fetches the full working set from the store.
// On failure the previous working set is kept and a PersistenceError is returned.
// A fetch that overlaps a local patch is discarded and retried.
func (r *Repository) ListAll(ctx context.Context) ([]Lead, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		r.mu.RLock()
		gen := r.gen
		r.mu.RUnlock()

		leads, err := r.store.List(fetchCtx)
		if err == nil {
			// a response that arrives after the caller gave up is stale
			err = fetchCtx.Err()
		}
		if err != nil {
			r.log.Warn("lead fetch failed, keeping previous working set", "error", err)
			return nil, apperr.Persistence("fetch leads", err)
		}

		r.mu.Lock()
		if r.gen == gen {
			r.leads = leads
			r.loaded = true
			r.mu.Unlock()
			return cloneLeads(leads), nil
		}
		if attempt >= maxFetchAttempts {
			current := cloneLeads(r.leads)
			r.mu.Unlock()
			r.log.Warn("working set kept: every fetch overlapped a local change", "attempts", attempt)
			return current, nil
		}
		r.mu.Unlock()
	}
}

// Current returns the working set, loading it on first use.
func (r *Repository) Current(ctx context.Context) ([]Lead, error) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if !loaded {
		return r.ListAll(ctx)
	}
	return r.Snapshot(), nil
}

// Snapshot returns a copy of the working set
func (r *Repository) Snapshot() []Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneLeads(r.leads)
}

// Get returns the store's current copy of a lead
func (r *Repository) Get(ctx context.Context, id string) (*Lead, error) {
	l, err := r.store.Get(ctx, id)
	if errors.Is(err, ErrLeadNotFound) {
		r.forget(id)
		return nil, &apperr.NotFoundError{Entity: "lead", ID: id}
	}
	if err != nil {
		return nil, apperr.Persistence("load lead", err)
	}
	return l, nil
}

// Create validates f, inserts it and adds the stored row to the working set
func (r *Repository) Create(ctx context.Context, sess *access.Session, f Fields) (*Lead, error) {
	if err := access.Require(sess, access.CapLeadCreate); err != nil {
		return nil, err
	}

	f = FieldsOf(f.WithDefaults().toLead())
	if f.NextFollowupDate == "" {
		f.NextFollowupDate = r.now().AddDate(0, 0, DefaultFollowupDays).Format(DateLayout)
	}
	if err := validateNew(f); err != nil {
		return nil, err
	}
	if err := r.checkAssignable(ctx, f.AssignedTo); err != nil {
		return nil, err
	}

	v, err, _ := r.inflight.Do(mutationKey("create", sess, "", f), func() (any, error) {
		l := f.toLead()
		m := r.beginMutation("create", "", sess)
		if err := r.store.Create(ctx, &l); err != nil {
			r.endMutation(m, err)
			r.metrics.RecordMutation("create", err)
			return nil, apperr.Persistence("create lead", err)
		}

		r.prependLocal(l)

		r.endMutation(m, nil)
		r.metrics.RecordMutation("create", nil)
		r.log.Info("lead created", "lead_id", l.ID, "actor", sess.Name)
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	created := v.(Lead)
	return &created, nil
}

// Update merges p into the lead and records one activity per changed tracked field.
// The row and its activities are written in one transaction.
func (r *Repository) Update(ctx context.Context, sess *access.Session, id string, p Patch) (*Lead, error) {
	v, err, _ := r.inflight.Do(mutationKey("update", sess, id, p), func() (any, error) {
		return r.update(ctx, sess, id, p)
	})
	if err != nil {
		return nil, err
	}
	updated := v.(Lead)
	return &updated, nil
}

func (r *Repository) update(ctx context.Context, sess *access.Session, id string, p Patch) (Lead, error) {
	if sess == nil {
		return Lead{}, &apperr.PermissionError{Capability: string(access.CapLeadEditAny)}
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	if err := access.CanEditLead(sess, current.AssignedTo); err != nil {
		return Lead{}, err
	}

	next := p.ApplyTo(*current)
	if err := validateExisting(next); err != nil {
		return Lead{}, err
	}
	if next.AssignedTo != current.AssignedTo {
		if err := r.checkAssignable(ctx, next.AssignedTo); err != nil {
			return Lead{}, err
		}
	}

	changes := Diff(*current, next)
	if len(changes) == 0 {
		return *current, nil
	}

	m := r.beginMutation("update", id, sess)
	prev, hadPrev := r.replaceLocal(next)

	if err := r.store.UpdateTracked(ctx, &next, sess.Name, changes); err != nil {
		if hadPrev {
			r.replaceLocal(prev)
		}
		r.endMutation(m, err)
		r.metrics.RecordMutation("update", err)
		if errors.Is(err, ErrLeadNotFound) {
			r.forget(id)
			return Lead{}, &apperr.NotFoundError{Entity: "lead", ID: id}
		}
		return Lead{}, apperr.Persistence("update lead", err)
	}

	r.replaceLocal(next)
	r.endMutation(m, nil)
	r.metrics.RecordMutation("update", nil)
	r.log.Info("lead updated", "lead_id", id, "actor", sess.Name, "changed_fields", len(changes))
	return next, nil
}

// Delete removes a single lead. CEO only.
func (r *Repository) Delete(ctx context.Context, sess *access.Session, id string) error {
	if err := access.Require(sess, access.CapLeadDelete); err != nil {
		return err
	}

	_, err, _ := r.inflight.Do(mutationKey("delete", sess, id, nil), func() (any, error) {
		m := r.beginMutation("delete", id, sess)
		removed, idx, ok := r.removeLocal(id)

		if err := r.store.Delete(ctx, id); err != nil {
			r.endMutation(m, err)
			r.metrics.RecordMutation("delete", err)
			if errors.Is(err, ErrLeadNotFound) {
				return nil, &apperr.NotFoundError{Entity: "lead", ID: id}
			}
			if ok {
				r.insertLocal(removed, idx)
			}
			return nil, apperr.Persistence("delete lead", err)
		}

		r.endMutation(m, nil)
		r.metrics.RecordMutation("delete", nil)
		r.log.Info("lead deleted", "lead_id", id, "actor", sess.Name)
		return nil, nil
	})
	return err
}

// DeleteAll wipes every lead after re-verifying the actor's password.
// It returns false and deletes nothing when the password does not match.
// The wipe is not written to the activity log.
func (r *Repository) DeleteAll(ctx context.Context, sess *access.Session, password string) (bool, error) {
	if err := access.Require(sess, access.CapLeadDeleteAll); err != nil {
		return false, err
	}
	if r.verifier == nil {
		return false, apperr.Persistence("verify password", errNoVerifier)
	}

	v, err, _ := r.inflight.Do(mutationKey("delete_all", sess, "", password), func() (any, error) {
		ok, err := r.verifier.VerifyPassword(ctx, sess.ProfileID, password)
		if err != nil {
			return false, apperr.Persistence("verify password", err)
		}
		if !ok {
			r.log.Warn("delete-all rejected: password mismatch", "actor", sess.Name)
			return false, nil
		}

		m := r.beginMutation("delete_all", "", sess)
		n, err := r.store.DeleteAll(ctx)
		if err != nil {
			r.endMutation(m, err)
			r.metrics.RecordMutation("delete_all", err)
			return false, apperr.Persistence("delete all leads", err)
		}

		r.mu.Lock()
		r.leads = nil
		r.loaded = true
		r.gen++
		r.mu.Unlock()

		r.endMutation(m, nil)
		r.metrics.RecordMutation("delete_all", nil)
		r.log.Warn("all leads deleted", "actor", sess.Name, "count", n)
		r.refresh(ctx)
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// BulkCreate inserts rows in batches. Rows without a customer name or email are skipped.
// The first failing batch stops the import; the result still counts what was inserted before it.
func (r *Repository) BulkCreate(ctx context.Context, sess *access.Session, rows []Fields) (BulkResult, error) {
	if err := access.Require(sess, access.CapLeadImport); err != nil {
		return BulkResult{}, err
	}

	var res BulkResult
	valid := make([]Lead, 0, len(rows))
	for i, f := range rows {
		if !f.HasIdentity() {
			res.Skipped++
			continue
		}
		l := f.WithDefaults().toLead()
		if fields := shapeErrors(l); len(fields) > 0 {
			return res, &apperr.ValidationError{Fields: prefixFields(fmt.Sprintf("row %d", i+1), fields)}
		}
		valid = append(valid, l)
	}
	if len(valid) == 0 {
		return res, nil
	}

	v, err, _ := r.inflight.Do(mutationKey("bulk_create", sess, "", rows), func() (any, error) {
		out := res
		m := r.beginMutation("bulk_create", "", sess)
		defer r.refresh(ctx)

		for start := 0; start < len(valid); start += r.batchSize {
			end := min(start+r.batchSize, len(valid))
			if err := r.store.CreateBatch(ctx, valid[start:end]); err != nil {
				r.endMutation(m, err)
				r.metrics.RecordMutation("bulk_create", err)
				r.metrics.AddImported(out.Inserted)
				r.log.Error("lead import aborted", "actor", sess.Name, "inserted", out.Inserted, "error", err)
				return out, apperr.Persistence(fmt.Sprintf("import batch %d", start/r.batchSize+1), err)
			}
			out.Inserted += end - start
		}

		r.endMutation(m, nil)
		r.metrics.RecordMutation("bulk_create", nil)
		r.metrics.AddImported(out.Inserted)
		r.log.Info("leads imported", "actor", sess.Name, "inserted", out.Inserted, "skipped", out.Skipped)
		return out, nil
	})
	if v != nil {
		res = v.(BulkResult)
	}
	return res, err
}

// Mutations returns the most recent mutation records, oldest first
func (r *Repository) Mutations() []Mutation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Mutation, len(r.mutations))
	copy(out, r.mutations)
	return out
}

func (r *Repository) refresh(ctx context.Context) {
	if _, err := r.ListAll(ctx); err != nil {
		r.log.Warn("working set refresh failed", "error", err)
	}
}

func (r *Repository) checkAssignable(ctx context.Context, name string) error {
	if name == "" || r.roster == nil {
		return nil
	}
	terminated, err := r.roster.TerminatedNames(ctx)
	if err != nil {
		return apperr.Persistence("load roster", err)
	}
	if terminated[name] {
		return apperr.Validation("assigned_to", "is a terminated profile")
	}
	return nil
}

func (r *Repository) beginMutation(op, leadID string, sess *access.Session) string {
	m := Mutation{
		ID:        uuid.NewString(),
		Op:        op,
		LeadID:    leadID,
		State:     MutationPending,
		StartedAt: r.now(),
	}
	if sess != nil {
		m.Actor = sess.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations = append(r.mutations, m)
	if len(r.mutations) > maxTrackedMutations {
		r.mutations = r.mutations[len(r.mutations)-maxTrackedMutations:]
	}
	return m.ID
}

func (r *Repository) endMutation(id string, err error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.mutations) - 1; i >= 0; i-- {
		if r.mutations[i].ID != id {
			continue
		}
		r.mutations[i].EndedAt = &now
		if err != nil {
			r.mutations[i].State = MutationFailed
			r.mutations[i].Error = err.Error()
		} else {
			r.mutations[i].State = MutationConfirmed
		}
		return
	}
}

// replaceLocal swaps the working-set copy of l and returns what was there before.
func (r *Repository) replaceLocal(l Lead) (Lead, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.leads {
		if r.leads[i].ID == l.ID {
			prev := r.leads[i]
			r.leads[i] = l
			r.gen++
			return prev, true
		}
	}
	return Lead{}, false
}

func (r *Repository) removeLocal(id string) (Lead, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.leads {
		if r.leads[i].ID == id {
			removed := r.leads[i]
			r.leads = append(r.leads[:i:i], r.leads[i+1:]...)
			r.gen++
			return removed, i, true
		}
	}
	return Lead{}, -1, false
}

func (r *Repository) insertLocal(l Lead, idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || idx > len(r.leads) {
		idx = len(r.leads)
	}
	r.leads = append(r.leads[:idx:idx], append([]Lead{l}, r.leads[idx:]...)...)
	r.gen++
}

// prependLocal puts l first, dropping any copy a concurrent fetch already brought in.
func (r *Repository) prependLocal(l Lead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]Lead, 0, len(r.leads)+1)
	next = append(next, l)
	for _, existing := range r.leads {
		if existing.ID != l.ID {
			next = append(next, existing)
		}
	}
	r.leads = next
	r.gen++
}

func (r *Repository) forget(id string) {
	r.removeLocal(id)
}

func validateNew(f Fields) error {
	fields := validator.Messages(f)
	if fields == nil {
		fields = map[string]string{}
	}
	for k, v := range shapeErrors(f.toLead()) {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

func validateExisting(l Lead) error {
	fields := shapeErrors(l)
	if fields == nil {
		fields = map[string]string{}
	}
	if strings.TrimSpace(l.CustomerName) == "" {
		fields["customer_name"] = "is required"
	}
	if strings.TrimSpace(l.Email) == "" {
		fields["email"] = "is required"
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

// shapeErrors checks the invariants every stored lead must satisfy.
func shapeErrors(l Lead) map[string]string {
	var out map[string]string
	add := func(k, v string) {
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}

	if !l.DealStatus.Valid() {
		add("deal_status", "must be one of Not Contacted, Follow-up, Site Visit, Closed, Dropped")
	}
	if !l.InterestLevel.Valid() {
		add("interest_level", "must be one of Red, Yellow, Green")
	}
	if !l.PropertyType.Valid() {
		add("property_type", "must be one of apartment, house, villa, plot, commercial")
	}
	if l.Budget < 0 || math.IsNaN(l.Budget) || math.IsInf(l.Budget, 0) {
		add("budget", "must be a number >= 0")
	}
	if !validDate(l.LastContactedDate) {
		add("last_contacted_date", "must be a YYYY-MM-DD date")
	}
	if !validDate(l.NextFollowupDate) {
		add("next_followup_date", "must be a YYYY-MM-DD date")
	}
	return out
}

func validDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func prefixFields(prefix string, fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[prefix+": "+k] = v
	}
	return out
}

// mutationKey identifies "the same call" for double-submit collapsing.
func mutationKey(op string, sess *access.Session, target string, payload any) string {
	actor := ""
	if sess != nil {
		actor = sess.ProfileID
	}
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return op + "|" + actor + "|" + target + "|" + hex.EncodeToString(sum[:8])
}

func cloneLeads(in []Lead) []Lead {
	out := make([]Lead, len(in))
	copy(out, in)
	return out
}
