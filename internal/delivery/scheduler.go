package delivery

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs delayed tasks keyed by an identity (a message id) and
// tagged with a group (its chat id). Scheduling a key that is already
// pending replaces the earlier task.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	stopped bool
	running sync.WaitGroup
	logger  *zap.Logger
}

type task struct {
	group string
	timer *time.Timer
}

// NewScheduler creates an idle scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]*task),
		logger: logger,
	}
}

// Schedule arranges for fn to run once after delay. It reports false if the
// scheduler has been stopped.
func (s *Scheduler) Schedule(key, group string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
		s.logger.Debug("superseding pending task", zap.String("key", key))
	}
	t := &task{group: group}
	t.timer = time.AfterFunc(delay, func() { s.fire(key, t, fn) })
	s.tasks[key] = t
	return true
}

func (s *Scheduler) fire(key string, t *task, fn func()) {
	s.mu.Lock()
	if s.stopped || s.tasks[key] != t {
		// Cancelled or superseded after the timer went off.
		s.mu.Unlock()
		return
	}
	delete(s.tasks, key)
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	fn()
}

// Cancel drops the pending task for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	return true
}

// CancelGroup drops every pending task in group and returns how many were
// dropped.
func (s *Scheduler) CancelGroup(group string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, t := range s.tasks {
		if t.group == group {
			t.timer.Stop()
			delete(s.tasks, key)
			n++
		}
	}
	return n
}

// CancelAll drops every pending task. The scheduler stays usable.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.tasks)
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	return n
}

// Pending returns the number of tasks waiting to run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels all pending tasks, refuses new ones, and waits for tasks
// already running. It must not be called from inside a task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	n := len(s.tasks)
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	s.mu.Unlock()

	s.running.Wait()
	if n > 0 {
		s.logger.Info("delivery scheduler stopped", zap.Int("cancelled", n))
	}
}
