package browse

import (
	"sync"
	"time"

	"github.com/VoxDroid/bhub/internal/clock"
)

// debouncer runs the most recently scheduled function once input has been
// quiet for delay. Only one timer exists at a time; a generation counter
// makes a timer that lost a Stop race fire into nothing.
type debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu    sync.Mutex
	timer *clock.Timer
	gen   uint64
}

func newDebouncer(c clock.Clock, delay time.Duration) *debouncer {
	return &debouncer{clock: c, delay: delay}
}

// trigger cancels the pending call, if any, and schedules f.
func (d *debouncer) trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	gen := d.gen
	d.timer.Stop()
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.gen++
		d.timer = nil
		d.mu.Unlock()
		f()
	})
}

// cancel drops the pending call. Safe to call when nothing is pending.
func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.timer.Stop()
	d.timer = nil
}

func (d *debouncer) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
