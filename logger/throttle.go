package logger

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Throttle logs at most once per interval under a single tag. Calls in
// between are counted and the count is reported with the next entry.
// It is safe for concurrent use.
type Throttle struct {
	tag        string
	sometimes  rate.Sometimes
	suppressed atomic.Uint64
}

// NewThrottle returns a throttle for tag.
func NewThrottle(tag string, interval time.Duration) *Throttle {
	return &Throttle{
		tag:       tag,
		sometimes: rate.Sometimes{First: 1, Interval: interval},
	}
}

// Logf logs the formatted detail if the interval has elapsed since the
// last entry.
func (t *Throttle) Logf(detail string, args ...any) {
	logged := false
	t.sometimes.Do(func() {
		logged = true
		msg := fmt.Sprintf(detail, args...)
		if n := t.suppressed.Swap(0); n > 0 {
			msg = fmt.Sprintf("%s [%d suppressed]", msg, n)
		}
		central.log(t.tag, msg)
	})
	if !logged {
		t.suppressed.Add(1)
	}
}
