package delivery

import (
	"context"
	"time"
)

const DefaultDelay = 100 * time.Millisecond

// EmitFunc receives one segment. last is true for the final segment.
type EmitFunc func(index int, segment string, last bool) error

// Scheduler emits segments one at a time with a fixed pause between them.
type Scheduler struct {
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

func NewScheduler(delay time.Duration) *Scheduler {
	if delay < 0 {
		delay = 0
	}
	return &Scheduler{delay: delay, sleep: sleepContext}
}

// Deliver calls emit for every segment in order. There is no pause before
// the first segment. Cancellation during a pause stops delivery with the
// context's error; an emit error stops it with that error.
func (s *Scheduler) Deliver(ctx context.Context, segments []string, emit EmitFunc) error {
	for i, segment := range segments {
		if i > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return err
			}
		}
		if err := emit(i, segment, i == len(segments)-1); err != nil {
			return err
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
