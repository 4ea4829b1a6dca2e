package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"medicart/internal/model"
)

var (
	ErrNoCoupons   = errors.New("no coupons available for lab")
	ErrNotReserved = errors.New("coupon is not in reserved state")
)

// CouponService manages the single-use discount coupon pool. A coupon moves
// available -> reserved -> sent, or back to available when a send fails.
type CouponService struct {
	db *sql.DB
}

func NewCouponService(db *sql.DB) *CouponService {
	return &CouponService{db: db}
}

// Reserve atomically claims one available coupon for the given lab and records
// the reservation holder. Two concurrent callers can never claim the same
// coupon: the claim is a single conditional update over a row picked with
// FOR UPDATE SKIP LOCKED.
func (s *CouponService) Reserve(ctx context.Context, labID, orderID, mobile string) (*model.Coupon, error) {
	var c model.Coupon
	err := s.db.QueryRowContext(ctx, `
		UPDATE coupons SET
			state = 'reserved',
			reserved_order_id = $1,
			reserved_mobile = $2,
			reserved_at = NOW()
		WHERE id = (
			SELECT id FROM coupons
			WHERE lab_id = $3 AND state = 'available'
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, code, lab_id, state
	`, orderID, mobile, labID).Scan(&c.ID, &c.Code, &c.LabID, &c.State)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoCoupons
		}
		return nil, fmt.Errorf("reserve coupon: %w", err)
	}

	c.ReservedOrderID = orderID
	c.ReservedMobile = mobile
	return &c, nil
}

// MarkSent commits a reservation. Calling it on a coupon that is not reserved
// returns ErrNotReserved and changes nothing.
func (s *CouponService) MarkSent(ctx context.Context, couponID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE coupons SET state = 'sent' WHERE id = $1 AND state = 'reserved'`,
		couponID,
	)
	if err != nil {
		return fmt.Errorf("mark coupon sent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotReserved
	}
	return nil
}

// Release undoes a reservation so the coupon can be claimed again.
func (s *CouponService) Release(ctx context.Context, couponID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE coupons SET
			state = 'available',
			reserved_order_id = NULL,
			reserved_mobile = NULL,
			reserved_at = NULL
		WHERE id = $1 AND state = 'reserved'
	`, couponID)
	if err != nil {
		return fmt.Errorf("release coupon: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotReserved
	}
	return nil
}

// ReleaseStale returns to the pool every reservation older than maxAge.
// Reservations can outlive their saga when the process dies between reserve
// and commit/release; the maintenance sweep reconciles them here.
func (s *CouponService) ReleaseStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE coupons SET
			state = 'available',
			reserved_order_id = NULL,
			reserved_mobile = NULL,
			reserved_at = NULL
		WHERE state = 'reserved' AND reserved_at < NOW() - make_interval(secs => $1)
	`, maxAge.Seconds())
	if err != nil {
		return 0, fmt.Errorf("release stale coupons: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
