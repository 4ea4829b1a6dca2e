package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrQuotaExceeded rejects order creation before any persistence happens.
// Handlers map it to 429.
var ErrQuotaExceeded = errors.New("sms quota exceeded for this mobile number")

// QuotaService caps successful metered SMS sends per mobile number. Only
// orders touching the coupon-eligible partner lab are metered; the caller
// decides and passes metered explicitly.
//
// The cap is soft: the count is checked before order creation but incremented
// only after a confirmed send, so near-simultaneous orders from one customer
// can overshoot the limit slightly.
type QuotaService struct {
	db    *sql.DB
	limit int
}

func NewQuotaService(db *sql.DB, limit int) *QuotaService {
	return &QuotaService{db: db, limit: limit}
}

// Ensure returns ErrQuotaExceeded when the mobile's recorded count is at or
// above the limit. Non-metered calls always succeed without a store lookup.
func (s *QuotaService) Ensure(ctx context.Context, mobile string, metered bool) error {
	if !metered {
		return nil
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT sent_count FROM sms_quota WHERE mobile = $1`,
		mobile,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("get quota: %w", err)
	}

	if count >= s.limit {
		return ErrQuotaExceeded
	}
	return nil
}

// RecordSuccess increments the counter for a confirmed metered send.
// The count is never decremented.
func (s *QuotaService) RecordSuccess(ctx context.Context, mobile string, metered bool) error {
	if !metered {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sms_quota (mobile, sent_count, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (mobile)
		DO UPDATE SET sent_count = sms_quota.sent_count + 1, updated_at = NOW()
	`, mobile)
	if err != nil {
		return fmt.Errorf("record quota: %w", err)
	}
	return nil
}
