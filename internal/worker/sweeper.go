package worker

import (
	"context"
	"log/slog"
	"time"
)

type pendingCleaner interface {
	DeleteExpiredPending(ctx context.Context) (int64, error)
}

type reservationReleaser interface {
	ReleaseStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Sweeper enforces lifecycle rules that nothing else owns: pending signups
// expire 24 hours after creation, and coupon reservations orphaned by a
// crashed saga go back to the pool after reservationTTL.
type Sweeper struct {
	pending        pendingCleaner
	coupons        reservationReleaser
	interval       time.Duration
	reservationTTL time.Duration
}

func NewSweeper(pending pendingCleaner, coupons reservationReleaser, interval, reservationTTL time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if reservationTTL <= 0 {
		reservationTTL = 30 * time.Minute
	}
	return &Sweeper{
		pending:        pending,
		coupons:        coupons,
		interval:       interval,
		reservationTTL: reservationTTL,
	}
}

func (w *Sweeper) Start(ctx context.Context) {
	slog.Info("starting maintenance sweeper", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	if n, err := w.pending.DeleteExpiredPending(ctx); err != nil {
		slog.Error("pending signup sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("expired pending signups removed", "count", n)
	}

	if n, err := w.coupons.ReleaseStale(ctx, w.reservationTTL); err != nil {
		slog.Error("stale reservation sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("stale coupon reservations released", "count", n)
	}
}
