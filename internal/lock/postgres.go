package lock

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pxbackup-system/cluster-orchestration/internal/metrics"
)

// DistributedLock is a named, TTL'd mutual-exclusion primitive shared by
// every instance of the service.
type DistributedLock interface {
	// Acquire polls for the lock until it is obtained or wait elapses.
	// Returns false when the wait window lapses without the lock.
	Acquire(ctx context.Context, key string, wait, ttl time.Duration) (bool, error)
	Release(key string)
}

// PostgresLock implements DistributedLock on Postgres session advisory
// locks. Each held lock pins one connection; releasing the lock (or the
// connection dying with the process) frees it, so a crashed holder cannot
// leave the key locked forever. The TTL watchdog force-releases a lock
// held past its deadline.
type PostgresLock struct {
	db   *sql.DB
	mu   sync.Mutex
	held map[string]*heldLock
}

type heldLock struct {
	conn     *sql.Conn
	watchdog *time.Timer
}

const pollInterval = 250 * time.Millisecond

func NewPostgresLock(db *sql.DB) *PostgresLock {
	return &PostgresLock{
		db:   db,
		held: make(map[string]*heldLock),
	}
}

func (l *PostgresLock) Acquire(ctx context.Context, key string, wait, ttl time.Duration) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.LockWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}

	deadline := time.Now().Add(wait)
	for {
		var acquired bool
		err := conn.QueryRowContext(ctx,
			"SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&acquired)
		if err != nil {
			conn.Close()
			return false, err
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			conn.Close()
			return false, nil
		}
		select {
		case <-ctx.Done():
			conn.Close()
			return false, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	l.mu.Lock()
	l.held[key] = &heldLock{
		conn: conn,
		watchdog: time.AfterFunc(ttl, func() {
			log.Warn().Str("key", key).Dur("ttl", ttl).Msg("lock held past TTL, force releasing")
			l.Release(key)
		}),
	}
	l.mu.Unlock()

	return true, nil
}

func (l *PostgresLock) Release(key string) {
	l.mu.Lock()
	h, ok := l.held[key]
	if ok {
		delete(l.held, key)
	}
	l.mu.Unlock()
	if !ok {
		return
	}

	h.watchdog.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to release advisory lock")
	}
	h.conn.Close()
}
