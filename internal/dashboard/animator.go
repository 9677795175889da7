package dashboard

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	MinSpeed     = 250
	MaxSpeed     = 2000
	DefaultSpeed = 1000

	speedBase = 2250 * time.Millisecond
)

type animation struct {
	cancel context.CancelFunc
	speed  int
}

// Interval is the tick period for a speed setting. Faster settings tick
// more often.
func Interval(speed int) time.Duration {
	return speedBase - time.Duration(clampSpeed(speed))*time.Millisecond
}

func clampSpeed(speed int) int {
	if speed == 0 {
		return DefaultSpeed
	}
	return max(MinSpeed, min(MaxSpeed, speed))
}

// Play starts advancing the year range on a timer. Calling Play while
// already playing does nothing.
func (s *Synchronizer) Play(ctx context.Context, speed int) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anim != nil {
		return s.current
	}

	speed = clampSpeed(speed)
	runCtx, cancel := context.WithCancel(context.Background())
	s.anim = &animation{cancel: cancel, speed: speed}
	ticker := s.clock.NewTicker(Interval(speed))

	s.wg.Add(1)
	go s.animate(runCtx, ticker)

	s.metrics.Animating.Set(1)
	s.logger.Info("animation started", "speed", speed, "interval", Interval(speed))
	return s.syncLocked(ctx)
}

func (s *Synchronizer) Pause(ctx context.Context) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anim == nil {
		return s.current
	}
	s.stopAnimationLocked()
	return s.syncLocked(ctx)
}

// Close stops the animation and waits for its goroutine to exit.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.stopAnimationLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

// stopAnimationLocked cancels the running animation's token. Any tick
// already waiting on the lock sees the cancelled token and does nothing.
func (s *Synchronizer) stopAnimationLocked() {
	if s.anim == nil {
		return
	}
	s.anim.cancel()
	s.anim = nil
	s.metrics.Animating.Set(0)
	s.logger.Info("animation stopped")
}

func (s *Synchronizer) animate(ctx context.Context, ticker clockwork.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.step(ctx)
		}
	}
}

// step advances the year range: grow the end year until it reaches the
// last catalog year, then slide a single-year window forward, then wrap to
// the first year.
func (s *Synchronizer) step(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	first, last := s.state.Filters.YearBounds()
	cur := s.state.Filters.Years
	switch {
	case cur.End < last:
		s.state.Filters.SetYearRange(cur.Start, cur.End+1)
	case cur.Start < last:
		s.state.Filters.SetYearRange(cur.Start+1, cur.Start+1)
	default:
		s.state.Filters.SetYearRange(first, first)
	}

	s.metrics.AnimationTicks.Inc()
	s.syncLocked(ctx)
}
