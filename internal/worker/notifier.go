package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"medicart/internal/model"
)

type orderSource interface {
	Unconfirmed(ctx context.Context, limit int) ([]model.Order, error)
}

type confirmationRunner interface {
	Run(ctx context.Context, order *model.Order) error
}

// Notifier drains the confirmation outbox: orders are written with
// confirmation='pending' and picked up here, so a restart between order
// creation and the SMS send loses nothing. Each order's saga runs once;
// failed attempts are terminal and left for operators to spot in the logs.
type Notifier struct {
	orders       orderSource
	confirmation confirmationRunner
	interval     time.Duration
	batchSize    int
	parallelism  int
}

func NewNotifier(orders orderSource, confirmation confirmationRunner, interval time.Duration) *Notifier {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Notifier{
		orders:       orders,
		confirmation: confirmation,
		interval:     interval,
		batchSize:    10,
		parallelism:  4,
	}
}

func (w *Notifier) Start(ctx context.Context) {
	slog.Info("starting confirmation notifier", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("confirmation notifier stopped")
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				slog.Error("confirmation batch failed", "error", err)
			}
		}
	}
}

// processBatch runs sagas for a batch of unconfirmed orders. Sagas of
// different orders are independent, so they run concurrently with a bound.
func (w *Notifier) processBatch(ctx context.Context) error {
	orders, err := w.orders.Unconfirmed(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get unconfirmed orders: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallelism)

	for i := range orders {
		order := orders[i]
		g.Go(func() error {
			if err := w.confirmation.Run(ctx, &order); err != nil {
				// Already logged and recorded by the saga; do not cancel
				// the sibling sagas.
				slog.Warn("order confirmation attempt failed", "order", order.ID)
			}
			return nil
		})
	}

	return g.Wait()
}
