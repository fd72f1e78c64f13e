package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starford/habitu/internal/testutil"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "u1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Lock err = %v, want deadline exceeded", err)
	}

	// other keys are independent
	unlock2, err := l.Lock(context.Background(), "u2")
	if err != nil {
		t.Fatalf("Lock u2: %v", err)
	}
	unlock2()

	unlock()
	unlock() // idempotent
	unlock3, err := l.Lock(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	unlock3()
}

func TestLocal_WaiterAcquiresAfterRelease(t *testing.T) {
	l := NewLocal()
	unlock, _ := l.Lock(context.Background(), "u1")

	acquired := make(chan struct{})
	go func() {
		u, err := l.Lock(context.Background(), "u1")
		if err == nil {
			u()
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("waiter acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestRedis_FailsOpenWhenUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	l := NewRedis(rdb, time.Second, testutil.Logger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	unlock, err := l.Lock(ctx, "u1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlock()
}

func TestChain_LocalHoldsWhenRedisFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := Chain{NewLocal(), NewRedis(rdb, time.Second, testutil.Logger())}
	unlock, err := c.Lock(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Lock(ctx, "u1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Lock err = %v, want deadline exceeded", err)
	}

	unlock()
	unlock2, err := c.Lock(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	unlock2()
}

func TestChain_ReleasesEarlierLocksOnFailure(t *testing.T) {
	first, second := NewLocal(), NewLocal()
	held, _ := second.Lock(context.Background(), "u1")
	defer held()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := (Chain{first, second}).Lock(ctx, "u1"); err == nil {
		t.Fatal("expected error while second lock is held")
	}

	// first must have been released
	unlock, err := first.Lock(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first still held: %v", err)
	}
	unlock()
}
