package attempt

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a one-second countdown. It calls onExpire exactly once when it reaches zero
// and never ticks afterwards. Stop cancels it; a stopped timer never expires.
type Timer struct {
	remaining atomic.Int64
	stop      chan struct{}
	stopOnce  sync.Once
}

func StartTimer(clock Clock, seconds int, onExpire func()) *Timer {
	t := &Timer{stop: make(chan struct{})}
	t.remaining.Store(int64(seconds))
	tk := clock.NewTicker(time.Second)
	go t.run(tk, onExpire)
	return t
}

func (t *Timer) run(tk Ticker, onExpire func()) {
	defer tk.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-tk.C():
			// Stop may race with a pending tick; honour it first.
			select {
			case <-t.stop:
				return
			default:
			}
			if t.remaining.Add(-1) > 0 {
				continue
			}
			t.remaining.Store(0)
			t.stopOnce.Do(func() { close(t.stop) })
			if onExpire != nil {
				onExpire()
			}
			return
		}
	}
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	if t == nil {
		return 0
	}
	return int(t.remaining.Load())
}

// Stop cancels the countdown. It is safe to call more than once and from onExpire.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() { close(t.stop) })
}
