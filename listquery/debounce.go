package listquery

import (
	"sync"
	"time"
)

// DefaultSearchDelay matches the product screen's search box.
const DefaultSearchDelay = 500 * time.Millisecond

// SearchDebouncer applies typed search text after the typing pauses.
// Applying sets the search text and goes back to the first page.
type SearchDebouncer struct {
	target  *Synchronizer
	delay   time.Duration
	applied func(text string)

	lock  sync.Mutex
	timer *time.Timer
}

// NewSearchDebouncer returns a debouncer for s. applied, when not nil, runs after each applied search.
func NewSearchDebouncer(s *Synchronizer, delay time.Duration, applied func(text string)) *SearchDebouncer {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &SearchDebouncer{target: s, delay: delay, applied: applied}
}

// Type records text and restarts the delay.
func (d *SearchDebouncer) Type(text string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.target.SetSearchText(text)
		d.target.SetPage(0)
		if d.applied != nil {
			d.applied(text)
		}
	})
}

// Cancel drops any pending text. Call it on teardown.
func (d *SearchDebouncer) Cancel() {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
