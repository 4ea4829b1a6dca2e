package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medicart/internal/model"
)

type stubSource struct {
	orders []model.Order
	err    error
}

func (s *stubSource) Unconfirmed(_ context.Context, limit int) ([]model.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.orders) > limit {
		return s.orders[:limit], nil
	}
	return s.orders, nil
}

type stubRunner struct {
	mu   sync.Mutex
	ran  []string
	fail map[string]bool
}

func (r *stubRunner) Run(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ran = append(r.ran, order.ID)
	if r.fail[order.ID] {
		return errors.New("send failed")
	}
	return nil
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	source := &stubSource{orders: []model.Order{{ID: "o1"}, {ID: "o2"}, {ID: "o3"}}}
	runner := &stubRunner{}
	n := NewNotifier(source, runner, time.Second)

	if err := n.processBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.ran) != 3 {
		t.Fatalf("expected 3 saga runs, got %d", len(runner.ran))
	}
}

func TestProcessBatch_FailureDoesNotCancelSiblings(t *testing.T) {
	t.Parallel()

	source := &stubSource{orders: []model.Order{{ID: "o1"}, {ID: "o2"}}}
	runner := &stubRunner{fail: map[string]bool{"o1": true}}
	n := NewNotifier(source, runner, time.Second)

	if err := n.processBatch(context.Background()); err != nil {
		t.Fatalf("one failed saga must not fail the batch: %v", err)
	}

	if len(runner.ran) != 2 {
		t.Fatalf("expected both sagas attempted, got %d", len(runner.ran))
	}
}

func TestProcessBatch_SourceError(t *testing.T) {
	t.Parallel()

	source := &stubSource{err: errors.New("db down")}
	n := NewNotifier(source, &stubRunner{}, time.Second)

	if err := n.processBatch(context.Background()); err == nil {
		t.Fatal("expected an error when the source fails")
	}
}
