package listquery

import (
	"net/url"
	"strconv"
	"sync"
)

// Query parameter names shared by every paginated listing.
const (
	ParamPage       = "Page"
	ParamLimit      = "Limit"
	ParamSearchText = "SearchText"
)

type Defaults struct {
	Page     int
	PageSize int
}

// Model is the pagination pair a grid consumes.
// Synchronizer.PaginationModel returns the same pointer until page or page size changes.
type Model struct {
	Page     int
	PageSize int
}

// Synchronizer keeps page, page size and search text in step with a URL.
// The URL is the source of truth; the fields are a cache of it.
type Synchronizer struct {
	loc      URL
	defaults Defaults

	lock       sync.Mutex
	page       int
	pageSize   int
	searchText string
	model      *Model
}

// New reads the initial state from loc, using defaults for absent parameters.
func New(loc URL, defaults Defaults) *Synchronizer {
	s := &Synchronizer{
		loc:      loc,
		defaults: defaults,
	}
	s.Sync()
	return s
}

// Sync re-derives the state from the URL after an outside change.
// A parameter missing from the URL takes its default, so any URL maps to
// one state regardless of what was shown before.
func (s *Synchronizer) Sync() {
	s.lock.Lock()
	defer s.lock.Unlock()

	q := s.loc.Query()
	s.page = max(0, s.defaults.Page)
	if q.Has(ParamPage) {
		s.page = parsePage(q.Get(ParamPage))
	}
	s.pageSize = s.defaults.PageSize
	if q.Has(ParamLimit) {
		s.pageSize = s.parseLimit(q.Get(ParamLimit))
	}
	s.searchText = q.Get(ParamSearchText)
}

// SetPage sets the page, clamped to zero or more, and rewrites Page in the URL.
func (s *Synchronizer) SetPage(page int) {
	page = max(0, page)
	s.lock.Lock()
	defer s.lock.Unlock()
	s.page = page
	s.updateParam(ParamPage, strconv.Itoa(page))
}

func (s *Synchronizer) SetLimit(limit int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pageSize = limit
	s.updateParam(ParamLimit, strconv.Itoa(limit))
}

func (s *Synchronizer) SetSearchText(text string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.searchText = text
	s.updateParam(ParamSearchText, text)
}

func (s *Synchronizer) Page() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.page
}

func (s *Synchronizer) PageSize() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pageSize
}

func (s *Synchronizer) SearchText() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.searchText
}

// PaginationModel returns the current {page, pageSize}.
func (s *Synchronizer) PaginationModel() *Model {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.model == nil || s.model.Page != s.page || s.model.PageSize != s.pageSize {
		s.model = &Model{Page: s.page, PageSize: s.pageSize}
	}
	return s.model
}

// Params is the fetch query for the current state.
func (s *Synchronizer) Params() url.Values {
	s.lock.Lock()
	defer s.lock.Unlock()
	return url.Values{
		ParamLimit:      {strconv.Itoa(s.pageSize)},
		ParamPage:       {strconv.Itoa(s.page)},
		ParamSearchText: {s.searchText},
	}
}

// updateParam rewrites one parameter and keeps every other one.
// Callers hold s.lock so concurrent setters never drop each other's URL write.
func (s *Synchronizer) updateParam(key, value string) {
	q := s.loc.Query()
	q.Set(key, value)
	s.loc.SetQuery(q)
}

func parsePage(v string) int {
	page, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return max(0, page)
}

func (s *Synchronizer) parseLimit(v string) int {
	limit, err := strconv.Atoi(v)
	if err != nil {
		return s.defaults.PageSize
	}
	return limit
}
