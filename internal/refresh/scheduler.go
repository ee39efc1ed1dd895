// Package refresh owns every periodic wallet refresh: a cron-driven
// scheduler keyed by (address, kind) and a TTL cache those jobs fill.
package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron"
)

// Kind is the resource a job refreshes.
type Kind string

const (
	KindBalance Kind = "balance"
	KindTokens  Kind = "tokens"
	KindNFTs    Kind = "nfts"
	KindHistory Kind = "history"
)

// Kinds lists every resource kind.
func Kinds() []Kind { return []Kind{KindBalance, KindTokens, KindNFTs, KindHistory} }

// Default intervals per kind.
var DefaultIntervals = map[Kind]time.Duration{
	KindBalance: 10 * time.Second,
	KindTokens:  10 * time.Second,
	KindNFTs:    60 * time.Second,
	KindHistory: 30 * time.Second,
}

// Key identifies one refresh job or cache entry.
type Key struct {
	Address string
	Kind    Kind
}

// NewKey normalises the address so keys compare case-insensitively.
func NewKey(addr string, kind Kind) Key {
	return Key{Address: strings.ToLower(strings.TrimSpace(addr)), Kind: kind}
}

func (k Key) String() string { return k.Address + "/" + string(k.Kind) }

// JobFunc is the work a job performs on each tick.
type JobFunc func(ctx context.Context)

type job struct {
	cron   *cron.Cron
	fn     JobFunc
	ctx    context.Context
	cancel context.CancelFunc
	runs   atomic.Int64
	again  atomic.Bool

	// running is held for the duration of fn.
	running sync.Mutex
	stopped bool
}

// tick is the cron entry point. A tick that lands on a running job is
// dropped.
func (j *job) tick() { j.run(false) }

// run executes fn unless a previous run is still going. A triggered run that
// finds the job busy makes it go round once more.
func (j *job) run(triggered bool) {
	if !j.running.TryLock() {
		if triggered {
			j.again.Store(true)
		}
		return
	}
	defer j.running.Unlock()
	for !j.stopped && j.ctx.Err() == nil {
		j.again.Store(false)
		j.runs.Add(1)
		j.fn(j.ctx)
		if !j.again.Load() {
			return
		}
	}
}

// stop cancels the job and waits for an in-flight run.
func (j *job) stop() {
	j.cancel()
	j.cron.Stop()
	j.running.Lock()
	j.stopped = true
	j.running.Unlock()
}

// Scheduler runs one @every job per key. Scheduling a key again replaces
// its job. Intervals below one second are rounded up by cron.
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[Key]*job
	logger *log.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(l *log.Logger) SchedulerOption { return func(s *Scheduler) { s.logger = l } }

// NewScheduler creates an empty scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{jobs: map[Key]*job{}, logger: log.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule registers fn to run every interval for key and runs it once
// straight away. The job's context ends when the key is removed or the
// scheduler stops.
func (s *Scheduler) Schedule(ctx context.Context, key Key, every time.Duration, fn JobFunc) error {
	if every <= 0 {
		return fmt.Errorf("refresh %s: interval must be positive", key)
	}
	jctx, cancel := context.WithCancel(ctx)
	j := &job{cron: cron.New(), fn: fn, ctx: jctx, cancel: cancel}
	if err := j.cron.AddFunc("@every "+every.String(), j.tick); err != nil {
		cancel()
		return fmt.Errorf("refresh %s: %w", key, err)
	}

	s.mu.Lock()
	old := s.jobs[key]
	s.jobs[key] = j
	s.mu.Unlock()
	if old != nil {
		old.stop()
	}

	j.cron.Start()
	go j.run(true)
	s.logger.Debug("refresh scheduled", "key", key.String(), "every", every)
	return nil
}

// Trigger runs the job for key now, off the schedule. It reports whether a
// job exists.
func (s *Scheduler) Trigger(key Key) bool {
	s.mu.Lock()
	j := s.jobs[key]
	s.mu.Unlock()
	if j == nil {
		return false
	}
	go j.run(true)
	return true
}

// TriggerAddress runs every job of addr now.
func (s *Scheduler) TriggerAddress(addr string) {
	for _, k := range Kinds() {
		s.Trigger(NewKey(addr, k))
	}
}

// Remove stops the job for key.
func (s *Scheduler) Remove(key Key) {
	s.mu.Lock()
	j := s.jobs[key]
	delete(s.jobs, key)
	s.mu.Unlock()
	if j != nil {
		j.stop()
	}
}

// RemoveAddress stops every job of addr.
func (s *Scheduler) RemoveAddress(addr string) {
	for _, k := range Kinds() {
		s.Remove(NewKey(addr, k))
	}
}

// Keys returns the scheduled keys.
func (s *Scheduler) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Key, 0, len(s.jobs))
	for k := range s.jobs {
		out = append(out, k)
	}
	return out
}

// Stop stops every job and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = map[Key]*job{}
	s.mu.Unlock()
	for _, j := range jobs {
		j.stop()
	}
}
