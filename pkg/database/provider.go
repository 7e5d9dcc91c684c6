package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// State is the lifecycle of the shared connection handle.
type State int32

const (
	StateNotReady State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "not_ready"
	}
}

var (
	ErrNotReady = errors.New("database connection not ready")
	ErrFailed   = errors.New("database connection failed")
	ErrClosed   = errors.New("database provider closed")
)

// ConnectFunc establishes (and prepares) the pool.
type ConnectFunc func(ctx context.Context) (*sqlx.DB, error)

// Provider owns the process-wide pool. It is established once in the
// background; consumers ask for it through DB and never block on it.
type Provider struct {
	connect ConnectFunc

	once  sync.Once
	done  chan struct{}
	mu     sync.RWMutex
	state  State
	db     *sqlx.DB
	err    error
	closed bool
}

func NewProvider(connect ConnectFunc) *Provider {
	return &Provider{connect: connect, done: make(chan struct{})}
}

// NewReadyProvider wraps an already connected pool.
func NewReadyProvider(db *sqlx.DB) *Provider {
	p := &Provider{done: make(chan struct{}), state: StateReady, db: db}
	p.once.Do(func() { close(p.done) })
	return p
}

// Start connects in a new goroutine. Calling it more than once is a no-op.
func (p *Provider) Start(ctx context.Context) {
	p.once.Do(func() {
		go func() {
			defer close(p.done)
			db, err := p.connect(ctx)
			p.mu.Lock()
			defer p.mu.Unlock()
			if p.closed {
				// Close ran while connecting; nobody will release this pool.
				if db != nil {
					_ = db.Close()
				}
				p.err = ErrClosed
				return
			}
			if err != nil {
				p.state, p.err = StateFailed, err
				return
			}
			p.state, p.db = StateReady, db
		}()
	})
}

// Wait blocks until the connection attempt finished or ctx is done.
func (p *Provider) Wait(ctx context.Context) error {
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	_, err := p.DB()
	return err
}

// DB returns the pool, or ErrNotReady / ErrFailed / ErrClosed without
// blocking.
func (p *Provider) DB() (*sqlx.DB, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	switch p.state {
	case StateReady:
		return p.db, nil
	case StateFailed:
		return nil, fmt.Errorf("%w: %v", ErrFailed, p.err)
	default:
		return nil, ErrNotReady
	}
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Close releases the pool. A connection attempt still in flight is closed
// when it completes.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	p.state = StateNotReady
	return err
}
