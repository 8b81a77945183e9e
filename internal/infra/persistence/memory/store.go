// Package memory provides the in-memory transactional manifest store that
// the durable backends build upon. Transactions run against a cloned state
// and commit atomically after rule evaluation.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"manifestcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

type memoryState struct {
	manifests map[string]domain.Manifest
	// counters holds the per-year readable id sequence, keyed by full year.
	counters map[int]int64
}

// Snapshot is the serialisable representation of the in-memory state.
type Snapshot struct {
	Manifests map[string]domain.Manifest `json:"manifests"`
	Counters  map[int]int64              `json:"counters"`
}

func newMemoryState() memoryState {
	return memoryState{
		manifests: map[string]domain.Manifest{},
		counters:  map[int]int64{},
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.manifests {
		cloned.manifests[k] = v.Clone()
	}
	for year, n := range s.counters {
		cloned.counters[year] = n
	}
	return cloned
}

// Store provides an in-memory transactional store for manifests.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

type transaction struct {
	state   memoryState
	changes []domain.Change
	now     time.Time
}

type view struct {
	state *memoryState
}

// ListManifests returns all manifests within the snapshot.
func (v view) ListManifests() []domain.Manifest {
	out := make([]domain.Manifest, 0, len(v.state.manifests))
	for _, m := range v.state.manifests {
		out = append(out, m.Clone())
	}
	return out
}

// FindManifest retrieves a manifest by ID from the snapshot.
func (v view) FindManifest(id string) (domain.Manifest, bool) {
	m, ok := v.state.manifests[id]
	if !ok {
		return domain.Manifest{}, false
	}
	return m.Clone(), true
}

// Snapshot exposes the transactional state as a read-only view.
func (tx *transaction) Snapshot() domain.TransactionView {
	return view{state: &tx.state}
}

// CreateManifest stores a new manifest within the transaction.
func (tx *transaction) CreateManifest(m domain.Manifest) (domain.Manifest, error) {
	if m.ID == "" {
		m.ID = newID()
	}
	if _, exists := tx.state.manifests[m.ID]; exists {
		return domain.Manifest{}, fmt.Errorf("manifest %q already exists", m.ID)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = tx.now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = tx.now
	}
	tx.state.manifests[m.ID] = m.Clone()
	tx.changes = append(tx.changes, domain.Change{Entity: domain.EntityManifest, Action: domain.ActionCreate, After: m.Clone()})
	return m.Clone(), nil
}

// UpdateManifest mutates a manifest using the provided mutator function.
func (tx *transaction) UpdateManifest(id string, mutator func(*domain.Manifest) error) (domain.Manifest, error) {
	current, ok := tx.state.manifests[id]
	if !ok {
		return domain.Manifest{}, fmt.Errorf("manifest %q not found", id)
	}
	before := current.Clone()
	working := current.Clone()
	if err := mutator(&working); err != nil {
		return domain.Manifest{}, err
	}
	working.ID = id
	if working.UpdatedAt.Equal(before.UpdatedAt) {
		working.UpdatedAt = tx.now
	}
	tx.state.manifests[id] = working.Clone()
	tx.changes = append(tx.changes, domain.Change{Entity: domain.EntityManifest, Action: domain.ActionUpdate, Before: before, After: working.Clone()})
	return working.Clone(), nil
}

// FindManifest retrieves a manifest by ID from the transaction state.
func (tx *transaction) FindManifest(id string) (domain.Manifest, bool) {
	m, ok := tx.state.manifests[id]
	if !ok {
		return domain.Manifest{}, false
	}
	return m.Clone(), true
}

// AllocateReadableSequence increments and returns the per-year counter. The
// increment lives in the transaction state and commits with it, so two
// committed allocations can never observe the same value.
func (tx *transaction) AllocateReadableSequence(year int) (int64, error) {
	next := tx.state.counters[year] + 1
	tx.state.counters[year] = next
	return next, nil
}

// RunInTransaction executes fn within a transactional copy of the store
// state, evaluates the rules engine against the accumulated changes, and
// commits only when nothing blocks.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &tx.state}, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

// GetManifest retrieves a manifest by ID from committed state.
func (s *Store) GetManifest(id string) (domain.Manifest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.manifests[id]
	if !ok {
		return domain.Manifest{}, false
	}
	return m.Clone(), true
}

// ListManifests returns all manifests from committed state.
func (s *Store) ListManifests() []domain.Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Manifest, 0, len(s.state.manifests))
	for _, m := range s.state.manifests {
		out = append(out, m.Clone())
	}
	return out
}

// ListRecentByReadableID returns up to n manifests ordered by readable id,
// most recent first.
func (s *Store) ListRecentByReadableID(n int) []domain.Manifest {
	all := s.ListManifests()
	sort.Slice(all, func(i, j int) bool { return all[i].ReadableID > all[j].ReadableID })
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// ExportState returns a serialisable snapshot of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Manifests: make(map[string]domain.Manifest, len(s.state.manifests)),
		Counters:  make(map[int]int64, len(s.state.counters)),
	}
	for k, v := range s.state.manifests {
		snap.Manifests[k] = v.Clone()
	}
	for year, n := range s.state.counters {
		snap.Counters[year] = n
	}
	return snap
}

// ImportState replaces the committed state with the snapshot. Snapshots
// written before the counter bucket existed get their counters rebuilt from
// the greatest readable id seen per year.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snap.Manifests {
		state.manifests[k] = v.Clone()
	}
	for year, n := range snap.Counters {
		state.counters[year] = n
	}
	if len(state.counters) == 0 {
		state.counters = seedCounters(state.manifests)
	}
	s.state = state
}

func seedCounters(manifests map[string]domain.Manifest) map[int]int64 {
	counters := map[int]int64{}
	current := time.Now().UTC().Year()
	century := (current / 100) * 100
	for _, m := range manifests {
		yy, seq, err := domain.DecodeReadableID(m.ReadableID)
		if err != nil {
			continue
		}
		year := century + yy
		if year > current {
			year -= 100
		}
		if seq > counters[year] {
			counters[year] = seq
		}
	}
	return counters
}
