package workers

import (
	"fmt"
	"time"
)

// member is one background worker. Fields other than the channels are
// guarded by the pool mutex.
type member[J, R any] struct {
	id      uint64
	queue   []job[J]
	pending map[uint64]chan Result[R]
	results chan completion[R]
	wake    chan struct{}
	stop    chan struct{}
	gone    bool

	idleSince time.Time
	timer     *time.Timer
	timerGen  uint64
}

func newMember[J, R any](id uint64) *member[J, R] {
	return &member[J, R]{
		id:      id,
		pending: make(map[uint64]chan Result[R]),
		results: make(chan completion[R], 16),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// signal wakes the worker without blocking; one pending wake-up is enough
// since the worker drains the whole queue.
func (m *member[J, R]) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// cancelIdleLocked invalidates any armed idle countdown.
func (m *member[J, R]) cancelIdleLocked() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// runWorker performs the handshake and then serves jobs until stopped. On
// stop it drains the jobs already queued.
func (p *Pool[J, R]) runWorker(m *member[J, R], cfg Config) {
	defer p.wg.Done()
	defer close(m.results)

	handler, err := p.handshake(cfg)
	if err != nil {
		p.abandon(m, err)
		return
	}

	for {
		select {
		case <-m.wake:
			p.drain(m, handler)
		case <-m.stop:
			p.drain(m, handler)
			return
		}
	}
}

func (p *Pool[J, R]) handshake(cfg Config) (h Handler[J, R], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handshake panicked: %v", r)
		}
	}()

	h, err = p.factory(cfg)
	if err == nil && h == nil {
		err = fmt.Errorf("handshake returned no handler")
	}

	return h, err
}

func (p *Pool[J, R]) drain(m *member[J, R], handler Handler[J, R]) {
	for {
		p.mu.Lock()
		if len(m.queue) == 0 {
			p.mu.Unlock()
			return
		}
		j := m.queue[0]
		m.queue = m.queue[1:]
		p.mu.Unlock()

		res := runHandler(handler, j.payload)
		m.results <- completion[R]{id: j.id, value: res.Value, err: res.Err}
	}
}

// collect matches completions published by the worker to their callers.
func (p *Pool[J, R]) collect(m *member[J, R]) {
	defer p.wg.Done()

	for c := range m.results {
		p.complete(m, c)
	}
}
