package race

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// StartCountdown runs an advisory once-per-second countdown, calling tick
// with the seconds remaining (tick(0) signals expiry). It is decoupled from
// any resolver deadline: the returned stop function must be called on every
// phase exit so the ticker never outlives its phase. stop is idempotent.
func StartCountdown(clock clockwork.Clock, seconds int, tick func(remaining int)) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() { close(done) })
	}

	if seconds <= 0 {
		stop()
		return stop
	}

	go func() {
		ticker := clock.NewTicker(time.Second)
		defer ticker.Stop()

		remaining := seconds
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				remaining--
				select {
				case <-done:
					return
				default:
				}
				tick(remaining)
				if remaining <= 0 {
					return
				}
			}
		}
	}()

	return stop
}
