package service

import (
	"context"
	"testing"
)

func TestEnsure_NonMeteredAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	// Non-metered checks short-circuit before the store; a nil db proves it.
	s := NewQuotaService(nil, 0)

	if err := s.Ensure(context.Background(), "03001234567", false); err != nil {
		t.Fatalf("non-metered check must never fail, got %v", err)
	}
}

func TestRecordSuccess_NonMeteredIsNoOp(t *testing.T) {
	t.Parallel()

	s := NewQuotaService(nil, 5)

	if err := s.RecordSuccess(context.Background(), "03001234567", false); err != nil {
		t.Fatalf("non-metered record must be a no-op, got %v", err)
	}
}
