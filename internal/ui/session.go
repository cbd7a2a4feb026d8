package ui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/view"
	"github.com/locvowork/employee_directory/pkg/debounce"
)

// Input field names accepted by Session.Input.
const (
	FieldSearch     = "search"
	FieldFirstName  = "firstName"
	FieldDepartment = "department"
	FieldRole       = "role"
	FieldSortBy     = "sortBy"
	FieldPageSize   = "pageSize"
	FieldPage       = "page"
	FieldView       = "view"
)

// MsgFiltersCleared is attached to the page emitted by ClearFilters.
const MsgFiltersCleared = "Filters cleared"

// Source is the collection a session lists.
type Source interface {
	All() []domain.Employee
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebounceWindow sets the quiescence window of the text inputs.
func WithDebounceWindow(d time.Duration) SessionOption {
	return func(s *Session) { s.window = d }
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) SessionOption {
	return func(s *Session) {
		if size > 0 {
			s.input.PageSize = size
		}
	}
}

// Session is the listing state of one connected client. The text inputs
// (search and first name) are applied once typing pauses; every other input
// applies immediately. After each applied change the session recomputes the
// view and emits the rendered page.
type Session struct {
	ID string

	src    Source
	emit   func(Page)
	window time.Duration

	mu     sync.Mutex
	input  domain.ViewParams // form state, text fields possibly not applied yet
	params domain.ViewParams // what the last emitted page was computed from
	mode   Mode
	closed bool

	searchInput    *debounce.Debouncer
	firstNameInput *debounce.Debouncer
}

// NewSession creates a session over src that hands each rendered page to emit.
func NewSession(src Source, emit func(Page), opts ...SessionOption) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		src:    src,
		emit:   emit,
		window: debounce.DefaultWindow,
		input:  domain.DefaultViewParams(),
		mode:   DefaultMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.params = s.input
	s.searchInput = debounce.New(s.window)
	s.firstNameInput = debounce.New(s.window)
	return s
}

// Params returns the params the current page is computed from.
func (s *Session) Params() domain.ViewParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Mode returns the current layout.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Input applies one input event. Text inputs are debounced and return
// before the page is emitted.
func (s *Session) Input(field, value string) error {
	switch field {
	case FieldSearch:
		s.update(func(p *domain.ViewParams) { p.Search = value })
		s.searchInput.Trigger(func() { s.commit(true, "") })
	case FieldFirstName:
		s.update(func(p *domain.ViewParams) { p.FirstName = value })
		s.firstNameInput.Trigger(func() { s.commit(true, "") })
	case FieldDepartment:
		if value != "" && !domain.ValidDepartment(value) {
			return fmt.Errorf("unknown department %q", value)
		}
		s.update(func(p *domain.ViewParams) { p.Department = value })
		s.commit(true, "")
	case FieldRole:
		s.update(func(p *domain.ViewParams) { p.Role = value })
		s.commit(true, "")
	case FieldSortBy:
		s.update(func(p *domain.ViewParams) { p.SortBy = domain.ParseSortKey(value) })
		s.commit(false, "")
	case FieldPageSize:
		size, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || size < 1 {
			return fmt.Errorf("invalid page size %q", value)
		}
		s.update(func(p *domain.ViewParams) { p.PageSize = size })
		s.commit(true, "")
	case FieldPage:
		page, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || page < 1 {
			return fmt.Errorf("invalid page %q", value)
		}
		s.update(func(p *domain.ViewParams) { p.Page = page })
		s.commit(false, "")
	case FieldView:
		mode, ok := ParseMode(value)
		if !ok {
			return fmt.Errorf("unknown view mode %q", value)
		}
		s.mu.Lock()
		s.mode = mode
		s.mu.Unlock()
		s.commit(false, "")
	default:
		return fmt.Errorf("unknown input field %q", field)
	}
	return nil
}

// ClearFilters resets search, filters and sort, drops pending text input
// and emits the first page.
func (s *Session) ClearFilters() {
	s.searchInput.Cancel()
	s.firstNameInput.Cancel()
	s.update(func(p *domain.ViewParams) {
		p.Search = ""
		p.FirstName = ""
		p.Department = ""
		p.Role = ""
		p.SortBy = domain.DefaultSortKey
	})
	s.commit(true, MsgFiltersCleared)
}

// Refresh recomputes the page, e.g. after the collection changed.
func (s *Session) Refresh() {
	s.commit(false, "")
}

// Flush applies pending text input now.
func (s *Session) Flush() {
	s.searchInput.Flush()
	s.firstNameInput.Flush()
}

// Current computes the page for the applied params without emitting it.
func (s *Session) Current() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked()
}

// Close stops the debouncers; no page is emitted afterwards.
func (s *Session) Close() {
	s.searchInput.Stop()
	s.firstNameInput.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) update(fn func(p *domain.ViewParams)) {
	s.mu.Lock()
	fn(&s.input)
	s.mu.Unlock()
}

// commit applies the form state and emits the page. resetPage moves back to
// the first page, as every filter change does.
func (s *Session) commit(resetPage bool, message string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if resetPage {
		s.input.Page = domain.DefaultPage
	}
	s.params = s.input
	page := s.renderLocked()
	page.Message = message
	s.mu.Unlock()

	if s.emit != nil {
		s.emit(page)
	}
}

// renderLocked computes and renders the applied params, moving to page 1
// when the current page is past the results.
func (s *Session) renderLocked() Page {
	collection := s.src.All()
	v := view.Compute(collection, s.params)
	if view.NeedsPageReset(v) {
		s.params.Page = domain.DefaultPage
		s.input.Page = domain.DefaultPage
		v = view.Compute(collection, s.params)
	}
	page := Render(v, s.mode)
	params := s.params
	page.Params = &params
	return page
}
