package listquery

import (
	"net/url"
	"sync"

	"github.com/pkg/errors"
)

// URL is the addressable location a Synchronizer mirrors its state into.
type URL interface {
	Query() url.Values
	SetQuery(q url.Values)
}

// Location is an in-process URL: a path plus query, such as a CLI deep link.
type Location struct {
	lock  sync.RWMutex
	path  string
	query url.Values
}

var _ URL = (*Location)(nil)

// NewLocation parses rawURL, which may be relative ("/products?Page=2").
func NewLocation(rawURL string) (*Location, error) {
	l := &Location{}
	if err := l.Navigate(rawURL); err != nil {
		return nil, err
	}
	return l, nil
}

// Navigate replaces the whole location, as a deep link or history move would.
func (l *Location) Navigate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrapf(err, "[Location.Navigate] invalid url %q", rawURL)
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	l.path = u.Path
	l.query = u.Query()
	return nil
}

func (l *Location) Path() string {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.path
}

// Query returns a copy of the query parameters.
func (l *Location) Query() url.Values {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return cloneValues(l.query)
}

func (l *Location) SetQuery(q url.Values) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.query = cloneValues(q)
}

func (l *Location) String() string {
	l.lock.RLock()
	defer l.lock.RUnlock()
	u := url.URL{Path: l.path, RawQuery: l.query.Encode()}
	return u.String()
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
