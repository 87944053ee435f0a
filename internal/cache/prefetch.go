package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// prefetchQueue is a thread-safe FIFO of document paths.
//
// The queue is unbounded so a large corpus can be enqueued without
// blocking the caller. A buffered signal channel coalesces wakeups for
// waiting workers; done broadcasts Close to all of them.
type prefetchQueue struct {
	mu     sync.Mutex
	paths  []string
	closed bool
	signal chan struct{}
	done   chan struct{}
}

func newPrefetchQueue() *prefetchQueue {
	return &prefetchQueue{
		paths:  make([]string, 0, 64),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Enqueue adds a path to the back of the queue. Returns false if the
// queue is closed.
func (q *prefetchQueue) Enqueue(path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.paths = append(q.paths, path)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front path without blocking.
func (q *prefetchQueue) TryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.paths) == 0 {
		return "", false
	}
	path := q.paths[0]
	q.paths[0] = ""
	if len(q.paths) == 1 {
		q.paths = q.paths[:0]
	} else {
		q.paths = q.paths[1:]
	}
	return path, true
}

// Wait blocks until a path may be available. Returns false once the
// queue is closed and drained.
func (q *prefetchQueue) Wait() bool {
	q.mu.Lock()
	if len(q.paths) > 0 {
		q.mu.Unlock()
		return true
	}
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.mu.Unlock()

	select {
	case <-q.signal:
		return true
	case <-q.done:
		// Drain any remaining paths before shutting down.
		q.mu.Lock()
		remaining := len(q.paths) > 0
		q.mu.Unlock()
		return remaining
	}
}

// Close rejects further enqueues and wakes all waiting workers.
func (q *prefetchQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
}

// Prefetcher drains a queue of document paths through the engine with a
// fixed worker pool, warming the cache-first tier ahead of offline use.
type Prefetcher struct {
	engine  *Engine
	base    string
	ctx     context.Context
	queue   *prefetchQueue
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

// NewPrefetcher starts workers fetching against baseURL. Close stops
// accepting paths and waits for the pool to drain.
func NewPrefetcher(ctx context.Context, engine *Engine, baseURL string, workers int) *Prefetcher {
	if workers < 1 {
		workers = 1
	}
	p := &Prefetcher{
		engine: engine,
		base:   baseURL,
		ctx:    ctx,
		queue:  newPrefetchQueue(),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Enqueue schedules one document path. Returns false after Close.
func (p *Prefetcher) Enqueue(path string) bool {
	return p.queue.Enqueue(path)
}

// Close drains the queue, stops the workers, and returns the first
// fetch error, if any.
func (p *Prefetcher) Close() error {
	p.queue.Close()
	p.wg.Wait()
	return p.err
}

func (p *Prefetcher) worker() {
	defer p.wg.Done()
	for {
		path, ok := p.queue.TryDequeue()
		if !ok {
			if !p.queue.Wait() {
				return
			}
			continue
		}
		if p.ctx.Err() != nil {
			p.fail(p.ctx.Err())
			return
		}
		if err := p.fetch(path); err != nil {
			slog.Debug("prefetch failed", "path", path, "err", err)
			p.fail(fmt.Errorf("prefetch %s: %w", path, err))
		}
	}
}

// fetch issues one document navigation through the engine so the
// response lands in the matching tier.
func (p *Prefetcher) fetch(path string) error {
	req, err := http.NewRequestWithContext(p.ctx, http.MethodGet, p.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	resp, err := p.engine.RoundTrip(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (p *Prefetcher) fail(err error) {
	p.errOnce.Do(func() { p.err = err })
}
