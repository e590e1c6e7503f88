// Package workers runs jobs on a bounded set of lazily started background
// goroutines.
//
// Each worker owns the handler built by its handshake, processes its jobs in
// submission order and publishes completions on its own result channel,
// where a collector matches them to callers by job id. Idle workers are torn
// down once they have been idle for the configured TTL. Whenever no worker
// can take a job, it runs on the pool's local handler instead, so every
// submission completes.
package workers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/internal/clock"
)

// Config bounds the pool.
type Config struct {
	// MaxWorkers is the largest number of live workers, at least 1.
	MaxWorkers int
	// TTL is how long a worker may stay idle before it is torn down.
	TTL time.Duration
}

// Handler executes one job.
type Handler[J, R any] func(job J) (R, error)

// Factory builds the handler owned by a new worker. It runs on the worker
// goroutine as its handshake and receives the configuration the pool had
// when the worker was created.
type Factory[J, R any] func(cfg Config) (Handler[J, R], error)

// Result is the outcome of a job.
type Result[R any] struct {
	Value R
	Err   error
}

type job[J any] struct {
	id      uint64
	payload J
}

type completion[R any] struct {
	id    uint64
	value R
	err   error
}

// Pool dispatches jobs to workers. All bookkeeping is guarded by mu.
type Pool[J, R any] struct {
	mu        sync.Mutex
	cfg       Config
	factory   Factory[J, R]
	local     Handler[J, R]
	clock     clock.Clock
	logger    *slog.Logger
	members   []*member[J, R]
	nextJobID uint64
	nextID    uint64
	closed    bool
	wg        sync.WaitGroup
}

// New creates a pool. No worker starts until the first submission.
//
// Parameters:
//   - cfg: Pool bounds
//   - factory: Builds each worker's handler during its handshake
//   - local: Runs jobs that no worker can take
//   - clk: Time source for idle-duration checks
//   - logger: Destination of lifecycle logs
func New[J, R any](cfg Config, factory Factory[J, R], local Handler[J, R], clk clock.Clock, logger *slog.Logger) *Pool[J, R] {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}

	return &Pool[J, R]{
		cfg:     cfg,
		factory: factory,
		local:   local,
		clock:   clk,
		logger:  logger,
	}
}

// Config returns the current bounds.
func (p *Pool[J, R]) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cfg
}

// SetConfig replaces the bounds. Existing workers beyond a lowered
// MaxWorkers stay until they idle out; a new TTL applies to the next expiry
// check.
func (p *Pool[J, R]) SetConfig(cfg Config) error {
	if cfg.MaxWorkers < 1 || cfg.TTL < 0 {
		return fmt.Errorf("%w: max workers %d, ttl %s", errs.ErrInvalidConfig, cfg.MaxWorkers, cfg.TTL)
	}

	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()

	return nil
}

// Size returns the number of live workers.
func (p *Pool[J, R]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.members)
}

// Outstanding returns the number of jobs dispatched to workers and not yet
// completed.
func (p *Pool[J, R]) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, m := range p.members {
		n += len(m.pending)
	}

	return n
}

// Submit dispatches payload to a worker and returns a channel that receives
// exactly one Result. When the pool is closed the job runs on the local
// handler before Submit returns.
func (p *Pool[J, R]) Submit(payload J) <-chan Result[R] {
	out := make(chan Result[R], 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Debug("pool closed, running job locally", "error", errs.ErrPoolClosed)
		out <- runHandler(p.local, payload)

		return out
	}

	m := p.pickLocked()
	id := p.nextJobID
	p.nextJobID++

	m.cancelIdleLocked()
	m.pending[id] = out
	m.queue = append(m.queue, job[J]{id: id, payload: payload})
	p.mu.Unlock()

	p.logger.Debug("job dispatched", "worker", m.id, "job", id)
	m.signal()

	return out
}

// pickLocked selects a worker: an idle one, else a new one while below
// MaxWorkers, else the one with the fewest outstanding jobs.
func (p *Pool[J, R]) pickLocked() *member[J, R] {
	for _, m := range p.members {
		if len(m.pending) == 0 {
			return m
		}
	}

	if len(p.members) < p.cfg.MaxWorkers {
		return p.spawnLocked()
	}

	least := p.members[0]
	for _, m := range p.members[1:] {
		if len(m.pending) < len(least.pending) {
			least = m
		}
	}

	return least
}

func (p *Pool[J, R]) spawnLocked() *member[J, R] {
	m := newMember[J, R](p.nextID)
	p.nextID++
	p.members = append(p.members, m)

	p.wg.Add(2)
	go p.runWorker(m, p.cfg)
	go p.collect(m)

	p.logger.Debug("worker spawned", "worker", m.id, "workers", len(p.members))

	return m
}

// removeLocked drops m from the pool and stops its goroutines. It reports
// whether m was still a member.
func (p *Pool[J, R]) removeLocked(m *member[J, R]) bool {
	if m.gone {
		return false
	}
	m.gone = true
	m.cancelIdleLocked()
	close(m.stop)

	for i, other := range p.members {
		if other == m {
			p.members = append(p.members[:i], p.members[i+1:]...)
			break
		}
	}

	return true
}

// abandon handles a failed handshake: m leaves the pool and every job
// queued on it runs on the local handler.
func (p *Pool[J, R]) abandon(m *member[J, R], cause error) {
	p.mu.Lock()
	p.removeLocked(m)
	queue := m.queue
	m.queue = nil
	pending := m.pending
	m.pending = make(map[uint64]chan Result[R])
	p.mu.Unlock()

	p.logger.Warn("worker unavailable, running its jobs locally",
		"worker", m.id,
		"jobs", len(queue),
		"error", fmt.Errorf("%w: %w", errs.ErrWorkerUnavailable, cause),
	)

	for _, j := range queue {
		if out, ok := pending[j.id]; ok {
			out <- runHandler(p.local, j.payload)
		}
	}
}

// complete delivers a completion to its caller and starts the idle
// countdown once the worker has nothing outstanding.
func (p *Pool[J, R]) complete(m *member[J, R], c completion[R]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out, ok := m.pending[c.id]
	if !ok {
		return
	}
	delete(m.pending, c.id)
	out <- Result[R]{Value: c.value, Err: c.err}

	if len(m.pending) == 0 && !m.gone && !p.closed {
		m.idleSince = p.clock.Now()
		p.armIdleLocked(m, p.cfg.TTL)
	}
}

func (p *Pool[J, R]) armIdleLocked(m *member[J, R], d time.Duration) {
	m.cancelIdleLocked()
	gen := m.timerGen
	m.timer = time.AfterFunc(d, func() {
		p.expire(m, gen)
	})
}

// expire runs when an idle countdown fires. A worker that received work in
// the meantime is left alone; one that has not been idle for the full TTL
// by the pool clock is re-armed for the remainder.
func (p *Pool[J, R]) expire(m *member[J, R], gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != m.timerGen || m.gone || len(m.pending) > 0 {
		return
	}

	idle := clock.Since(p.clock, m.idleSince)
	if idle < p.cfg.TTL {
		p.armIdleLocked(m, p.cfg.TTL-idle)
		return
	}

	if p.removeLocked(m) {
		p.logger.Debug("idle worker torn down", "worker", m.id, "idle", idle, "workers", len(p.members))
	}
}

// Close tears down every worker after it finishes its queued jobs and
// waits for them. Later submissions run on the local handler.
func (p *Pool[J, R]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	members := append([]*member[J, R](nil), p.members...)
	for _, m := range members {
		p.removeLocked(m)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// runHandler executes h, turning a panic into an error.
func runHandler[J, R any](h Handler[J, R], payload J) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Err: fmt.Errorf("job panicked: %v", r)}
		}
	}()

	v, err := h(payload)

	return Result[R]{Value: v, Err: err}
}
