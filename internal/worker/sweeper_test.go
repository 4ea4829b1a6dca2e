package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubCleaner struct {
	removed int64
	err     error
	calls   int
}

func (s *stubCleaner) DeleteExpiredPending(_ context.Context) (int64, error) {
	s.calls++
	return s.removed, s.err
}

type stubReleaser struct {
	released int64
	err      error
	calls    int
	maxAge   time.Duration
}

func (s *stubReleaser) ReleaseStale(_ context.Context, maxAge time.Duration) (int64, error) {
	s.calls++
	s.maxAge = maxAge
	return s.released, s.err
}

func TestSweep(t *testing.T) {
	t.Parallel()

	pending := &stubCleaner{removed: 2}
	coupons := &stubReleaser{released: 1}
	sw := NewSweeper(pending, coupons, time.Minute, 30*time.Minute)

	sw.sweep(context.Background())

	if pending.calls != 1 || coupons.calls != 1 {
		t.Fatalf("sweep calls: pending=%d coupons=%d, want 1 each", pending.calls, coupons.calls)
	}
	if coupons.maxAge != 30*time.Minute {
		t.Errorf("reservation TTL passed to release: got %v, want 30m", coupons.maxAge)
	}
}

func TestSweep_PendingFailureDoesNotSkipReservations(t *testing.T) {
	t.Parallel()

	pending := &stubCleaner{err: errors.New("db down")}
	coupons := &stubReleaser{}
	sw := NewSweeper(pending, coupons, time.Minute, 30*time.Minute)

	sw.sweep(context.Background())

	if coupons.calls != 1 {
		t.Fatalf("stale reservation release ran %d times, want 1", coupons.calls)
	}
}

func TestNewSweeperDefaults(t *testing.T) {
	t.Parallel()

	sw := NewSweeper(&stubCleaner{}, &stubReleaser{}, 0, 0)
	if sw.interval != 10*time.Minute {
		t.Errorf("default interval: got %v, want 10m", sw.interval)
	}
	if sw.reservationTTL != 30*time.Minute {
		t.Errorf("default reservation TTL: got %v, want 30m", sw.reservationTTL)
	}
}
