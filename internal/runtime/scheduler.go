package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/vemulator/pkg/bus"
	"github.com/aretw0/vemulator/pkg/domain"
)

// Task is one pending run bound to a deadline. Fire is called with the
// scheduler's lock held and returns the successor, or nil to stop repeating.
type Task struct {
	Key      domain.FieldKey
	Deadline time.Time
	Fire     func(deadline time.Time) *Task

	timer *time.Timer
}

// Scheduler keeps at most one pending Task per field.
type Scheduler struct {
	mu     sync.Locker
	tasks  map[domain.FieldKey]*Task
	closed bool
}

// NewScheduler creates a scheduler that serializes on mu. Task functions run
// with mu held, so they must not lock it again.
func NewScheduler(mu sync.Locker) *Scheduler {
	return &Scheduler{
		mu:    mu,
		tasks: make(map[domain.FieldKey]*Task),
	}
}

// Schedule arms t, replacing any pending task of the same field.
func (s *Scheduler) Schedule(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(t)
}

func (s *Scheduler) scheduleLocked(t *Task) {
	if s.closed || t == nil {
		return
	}
	s.cancelLocked(t.Key)
	s.tasks[t.Key] = t
	t.timer = time.AfterFunc(max(time.Until(t.Deadline), 0), func() { s.fire(t) })
}

// Cancel drops the pending task of key, if any.
func (s *Scheduler) Cancel(key domain.FieldKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(key)
}

func (s *Scheduler) cancelLocked(key domain.FieldKey) {
	if old, ok := s.tasks[key]; ok {
		old.timer.Stop()
		delete(s.tasks, key)
	}
}

// Pending reports the number of armed tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every pending task. A task already firing completes its run.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for k := range s.tasks {
		s.cancelLocked(k)
	}
}

func (s *Scheduler) fire(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A replaced or cancelled task may still fire once its timer raced Stop.
	if s.closed || s.tasks[t.Key] != t {
		return
	}
	delete(s.tasks, t.Key)
	if next := t.Fire(t.Deadline); next != nil {
		s.scheduleLocked(next)
	}
}

// fieldTaskLocked builds the task generating key's next value from its current
// head. The deadline is base plus the head's interval, so successive runs do
// not drift.
func (e *Engine) fieldTaskLocked(key domain.FieldKey, base time.Time) *Task {
	owner, ok := e.headLocked(key)
	if !ok {
		return nil
	}
	return &Task{
		Key:      key,
		Deadline: base.Add(owner.Interval()),
		Fire: func(deadline time.Time) *Task {
			if head, ok := e.headLocked(key); !ok || head != owner {
				e.logger.Debug("scenario no longer active, not repeating", "key", key.String())
				return nil
			}
			v := owner.Next(e.store)
			e.retireLocked(key)
			e.logger.Debug("timed value", "key", key.String(), "value", v.String())
			return e.fieldTaskLocked(key, deadline)
		},
	}
}

// startTimed generates a first value for every field and arms one task per
// field. Overwrites reschedule the field immediately. The returned function
// stops all timers.
func (e *Engine) startTimed(ctx context.Context) func() {
	overwrites := e.bus.Subscribe(bus.TopicOverwrite)

	e.mu.Lock()
	now := time.Now()
	for _, k := range e.Keys() {
		e.retireLocked(k)
		if head, ok := e.headLocked(k); ok {
			head.Next(e.store)
			e.retireLocked(k)
		}
	}
	for _, k := range e.Keys() {
		e.scheduler.scheduleLocked(e.fieldTaskLocked(k, now))
	}
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-overwrites.Ready():
				for _, ev := range overwrites.Drain() {
					e.reschedule(ev.Key)
				}
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
		overwrites.Close()
		e.scheduler.Stop()
	}
}

// reschedule replaces the pending task of key with one for its new head.
func (e *Engine) reschedule(key domain.FieldKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t := e.fieldTaskLocked(key, time.Now()); t != nil {
		e.scheduler.scheduleLocked(t)
	} else {
		e.scheduler.cancelLocked(key)
	}
	e.logger.Debug("field rescheduled", "key", key.String())
}
