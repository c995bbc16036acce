package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hallslot/internal/logger"
	"hallslot/internal/metrics"
)

// HallLocker serialises check-then-persist sequences per hall. Lock blocks
// until the hall is free or ctx is done; the returned func releases it.
// Work done under the lock must use the returned context, which ends before
// the lock can lapse.
type HallLocker interface {
	Lock(ctx context.Context, hall string) (held context.Context, unlock func(), err error)
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyedLocker holds one mutex per normalised hall name inside this process.
// Entries are dropped once nobody holds or waits for them.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*keyedEntry)}
}

func (l *KeyedLocker) Lock(ctx context.Context, hall string) (context.Context, func(), error) {
	key := NormalizeHall(hall)
	start := time.Now()

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyedEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// the waiter still gets the mutex eventually; hand it straight back
		go func() {
			<-acquired
			l.release(key, e)
		}()
		return nil, nil, fmt.Errorf("lock hall %q: %w", hall, ctx.Err())
	}

	metrics.ObserveHallLockWait(time.Since(start).Seconds())

	var once sync.Once
	return ctx, func() {
		once.Do(func() { l.release(key, e) })
	}, nil
}

func (l *KeyedLocker) release(key string, e *keyedEntry) {
	e.mu.Unlock()

	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

const (
	lockKeyPrefix     = "hall-lock:"
	defaultLockTTL    = 10 * time.Second
	defaultLockRetry  = 50 * time.Millisecond
	defaultLockWindow = 5 * time.Second
)

// releaseScript deletes the key only while it still carries our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

var (
	ErrLockNotAcquired = errors.New("hall lock not acquired")
	// ErrLockExpired is returned when work under a hall lock outlives its lease.
	ErrLockExpired = errors.New("hall lock lease expired")
)

// RedisLocker is a HallLocker shared by every instance that talks to the
// same redis. The key expires after ttl so a crashed holder cannot wedge a hall.
// The context handed back to the holder ends a fifth of ttl before the key does.
type RedisLocker struct {
	client redis.Cmdable
	ttl    time.Duration
	retry  time.Duration
	wait   time.Duration
	token  func() string
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  defaultLockRetry,
		wait:   defaultLockWindow,
		token:  uuid.NewString,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, hall string) (context.Context, func(), error) {
	key := lockKeyPrefix + NormalizeHall(hall)
	token := l.token()
	start := time.Now()

	waitCtx := ctx
	if _, ok := ctx.Deadline(); !ok && l.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	for {
		acquiredAt := time.Now()
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("lock hall %q: %w", hall, err)
		}
		if ok {
			metrics.ObserveHallLockWait(acquiredAt.Sub(start).Seconds())
			return l.hold(ctx, hall, key, token, acquiredAt)
		}

		select {
		case <-waitCtx.Done():
			return nil, nil, fmt.Errorf("lock hall %q: %w", hall, ErrLockNotAcquired)
		case <-time.After(l.retry):
		}
	}
}

// lease is how long a holder may work before the key can expire under it.
func (l *RedisLocker) lease() time.Duration {
	return l.ttl - l.ttl/5
}

func (l *RedisLocker) hold(ctx context.Context, hall, key, token string, acquiredAt time.Time) (context.Context, func(), error) {
	held, cancel := context.WithDeadlineCause(ctx, acquiredAt.Add(l.lease()), ErrLockExpired)

	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			if err := l.client.Eval(context.Background(), releaseScript, []string{key}, token).Err(); err != nil {
				logger.WithError(err).Warn("failed to release hall lock", "hall", hall)
			}
		})
	}, nil
}
