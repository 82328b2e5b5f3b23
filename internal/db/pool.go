package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
	"golang.org/x/sync/semaphore"
)

var errPoolClosed = errors.New("connection pool is closed")

// Pool bounds concurrent connection use to MaxConns. Callers that find every
// connection checked out wait in FIFO order; when QueueLimit is positive and
// that many callers are already waiting, Acquire fails with ErrPoolExhausted.
//
// Thread-Safety: Safe for concurrent use.
type Pool struct {
	source     connSource
	gate       *semaphore.Weighted
	maxConns   int
	queueLimit int

	inUse   atomic.Int64
	waiting atomic.Int64
	closed  atomic.Bool

	closeOnce sync.Once
	onClose   func()
}

// NewPool wraps a pgx pool with the recorder admission rules.
func NewPool(pool *pgxpool.Pool, maxConns, queueLimit int) *Pool {
	return newPool(pgxSource{pool: pool}, maxConns, queueLimit)
}

func newPool(source connSource, maxConns, queueLimit int) *Pool {
	if maxConns < 1 {
		maxConns = 1
	}
	if queueLimit < 0 {
		queueLimit = 0
	}
	return &Pool{
		source:     source,
		gate:       semaphore.NewWeighted(int64(maxConns)),
		maxConns:   maxConns,
		queueLimit: queueLimit,
	}
}

func (p *Pool) Acquire(ctx context.Context) (recorder.PooledConn, error) {
	if p.closed.Load() {
		return nil, errPoolClosed
	}

	if !p.gate.TryAcquire(1) {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
	}

	conn, err := p.source.acquire(ctx)
	if err != nil {
		p.gate.Release(1)
		return nil, err
	}

	p.inUse.Add(1)
	return &gatedConn{PooledConn: conn, pool: p}, nil
}

// wait queues the caller for a free slot.
func (p *Pool) wait(ctx context.Context) error {
	waiting := p.waiting.Add(1)
	defer p.waiting.Add(-1)

	if p.queueLimit > 0 && waiting > int64(p.queueLimit) {
		return fmt.Errorf("%w: %d connections in use and %d callers already waiting",
			recorder.ErrPoolExhausted, p.maxConns, p.queueLimit)
	}

	return p.gate.Acquire(ctx, 1)
}

func (p *Pool) Stat() recorder.PoolStats {
	return recorder.PoolStats{
		MaxConns:   p.maxConns,
		QueueLimit: p.queueLimit,
		InUse:      int(p.inUse.Load()),
		Waiting:    int(p.waiting.Load()),
	}
}

func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.source.close()
		if p.onClose != nil {
			p.onClose()
		}
	})
}

// gatedConn returns its admission slot exactly once.
type gatedConn struct {
	recorder.PooledConn
	pool *Pool
	once sync.Once
}

func (c *gatedConn) Release() {
	c.once.Do(func() {
		c.PooledConn.Release()
		c.pool.inUse.Add(-1)
		c.pool.gate.Release(1)
	})
}

var _ recorder.ConnPool = (*Pool)(nil)
