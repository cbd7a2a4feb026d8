// Package store holds the authoritative employee collection and keeps it in
// sync with a key/value persistence backend.
//
// The whole collection is stored as one JSON array under a single key and
// rewritten on every mutation. A failed write keeps the in-memory change and
// marks the store dirty until a later write succeeds.
package store

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/logger"
	"github.com/locvowork/employee_directory/internal/metrics"
	"github.com/locvowork/employee_directory/internal/validation"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "employeeDirectory"

// Mutation names used in logs, metrics and PersistenceError.Op.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpFlush  = "flush"
)

// Option configures a RecordStore.
type Option func(*RecordStore)

// WithKey stores the collection under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(s *RecordStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithValidator replaces the default field validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *RecordStore) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithMetrics reports mutations and the collection size to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *RecordStore) {
		s.metrics = m
	}
}

// OnChange registers fn to run after every mutation that changed the
// collection, with the store unlocked. Live sessions use it to re-render.
func OnChange(fn func()) Option {
	return func(s *RecordStore) {
		if fn != nil {
			s.listeners = append(s.listeners, fn)
		}
	}
}

// RecordStore owns the employee collection. Each mutation runs
// load-validate-modify-persist under one lock.
type RecordStore struct {
	mu        sync.Mutex
	kv        domain.KVStore
	key       string
	validator *validation.Validator
	metrics   *metrics.Metrics

	records []domain.Employee
	lastID  int64
	dirty   bool

	listenersMu sync.RWMutex
	listeners   []func()
}

var _ domain.EmployeeDirectory = (*RecordStore)(nil)

// New builds a store over kv and loads the stored collection.
func New(ctx context.Context, kv domain.KVStore, opts ...Option) *RecordStore {
	s := &RecordStore{
		kv:  kv,
		key: DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = validation.New()
	}
	s.Load(ctx)
	return s
}

// Subscribe adds a change listener after construction.
func (s *RecordStore) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

// Load replaces the collection with the stored one and returns a copy.
// Absent, empty or malformed data and backend read errors all give an empty
// collection. Records repeating an id or email are dropped, first wins.
func (s *RecordStore) Load(ctx context.Context) []domain.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.read(ctx)
	s.lastID = 0
	for _, e := range s.records {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
	}
	s.dirty = false
	s.metrics.SetRecords(len(s.records))
	logger.InfoLog(ctx, "Loaded %d employees from key %q", len(s.records), s.key)
	return slices.Clone(s.records)
}

func (s *RecordStore) read(ctx context.Context) []domain.Employee {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		logger.WarnLog(ctx, "Failed to read stored employees, starting empty: %v", err)
		return []domain.Employee{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []domain.Employee{}
	}

	var decoded []domain.Employee
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		logger.WarnLog(ctx, "Stored employees are malformed, starting empty: %v", err)
		return []domain.Employee{}
	}

	out := make([]domain.Employee, 0, len(decoded))
	ids := make(map[int64]bool, len(decoded))
	emails := make(map[string]bool, len(decoded))
	for _, e := range decoded {
		email := strings.ToLower(e.Email)
		if ids[e.ID] || emails[email] {
			logger.WarnLog(ctx, "Dropping stored employee %d: duplicate id or email", e.ID)
			continue
		}
		ids[e.ID] = true
		emails[email] = true
		out = append(out, e)
	}
	return out
}

// All returns a copy of the collection in insertion order.
func (s *RecordStore) All() []domain.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns the record with id.
func (s *RecordStore) Get(id int64) (domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], nil
	}
	return domain.Employee{}, &domain.NotFoundError{ID: id}
}

// Validate checks fields against every rule, email uniqueness included,
// without mutating anything. Pass excludeID 0 for a new record.
func (s *RecordStore) Validate(fields domain.EmployeeFields, excludeID int64) error {
	fields.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator.Validate(s.records, fields, excludeID)
}

// Create validates fields, appends a record with a fresh id and persists.
// On a write failure the record is kept and returned with a PersistenceError.
func (s *RecordStore) Create(ctx context.Context, fields domain.EmployeeFields) (domain.Employee, error) {
	fields.Normalize()

	s.mu.Lock()
	if err := s.validator.Validate(s.records, fields, 0); err != nil {
		s.mu.Unlock()
		s.metrics.ObserveMutation(OpCreate, metrics.ResultInvalid)
		return domain.Employee{}, err
	}

	s.lastID++
	e := fields.WithID(s.lastID)
	s.records = append(s.records, e)
	err := s.persist(ctx, OpCreate)
	s.mu.Unlock()

	s.observe(ctx, OpCreate, e, err)
	return e, err
}

// Update replaces the fields of record id, keeping its id and position.
func (s *RecordStore) Update(ctx context.Context, id int64, fields domain.EmployeeFields) (domain.Employee, error) {
	fields.Normalize()

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.metrics.ObserveMutation(OpUpdate, metrics.ResultNotFound)
		return domain.Employee{}, &domain.NotFoundError{ID: id}
	}
	if err := s.validator.Validate(s.records, fields, id); err != nil {
		s.mu.Unlock()
		s.metrics.ObserveMutation(OpUpdate, metrics.ResultInvalid)
		return domain.Employee{}, err
	}

	e := fields.WithID(id)
	s.records[i] = e
	err := s.persist(ctx, OpUpdate)
	s.mu.Unlock()

	s.observe(ctx, OpUpdate, e, err)
	return e, err
}

// Delete removes record id and returns it.
func (s *RecordStore) Delete(ctx context.Context, id int64) (domain.Employee, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.metrics.ObserveMutation(OpDelete, metrics.ResultNotFound)
		return domain.Employee{}, &domain.NotFoundError{ID: id}
	}

	e := s.records[i]
	s.records = slices.Delete(s.records, i, i+1)
	err := s.persist(ctx, OpDelete)
	s.mu.Unlock()

	s.observe(ctx, OpDelete, e, err)
	return e, err
}

// Flush rewrites the full collection. It retries a write that failed earlier.
func (s *RecordStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, OpFlush)
}

// Dirty reports whether the last mutation has not reached the backend.
func (s *RecordStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Close releases the backend.
func (s *RecordStore) Close() error {
	return s.kv.Close()
}

// persist writes the collection. The caller holds mu.
func (s *RecordStore) persist(ctx context.Context, op string) error {
	payload, err := json.Marshal(s.records)
	if err == nil {
		err = s.kv.Set(ctx, s.key, string(payload))
	}
	if err != nil {
		s.dirty = true
		return &domain.PersistenceError{Op: op, Err: err}
	}
	s.dirty = false
	return nil
}

func (s *RecordStore) indexOf(id int64) int {
	return slices.IndexFunc(s.records, func(e domain.Employee) bool { return e.ID == id })
}

func (s *RecordStore) observe(ctx context.Context, op string, e domain.Employee, err error) {
	s.metrics.SetRecords(s.Len())
	if err != nil {
		s.metrics.ObserveMutation(op, metrics.ResultPersistErr)
		logger.ErrLog(ctx, err, "Employee %s kept in memory but not persisted", op)
	} else {
		s.metrics.ObserveMutation(op, metrics.ResultOK)
		logger.InfoLog(ctx, "Employee %d %sd", e.ID, op)
	}

	s.listenersMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}
