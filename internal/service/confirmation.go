package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"medicart/internal/model"
)

// Collaborators the saga needs, narrowed so tests can stub them.
type couponPool interface {
	Reserve(ctx context.Context, labID, orderID, mobile string) (*model.Coupon, error)
	MarkSent(ctx context.Context, couponID string) error
	Release(ctx context.Context, couponID string) error
}

type quotaLedger interface {
	RecordSuccess(ctx context.Context, mobile string, metered bool) error
}

type smsSender interface {
	Send(ctx context.Context, to, sender, text string) error
}

type confirmationStore interface {
	SetConfirmation(ctx context.Context, id, state string) error
}

// ConfirmationService runs the post-creation side effects for one order:
// deterministic reserve -> send -> commit-or-release, with coupon release as
// the single compensating action. The order row itself is never rolled back;
// a failed send leaves the order valid and Pending.
type ConfirmationService struct {
	coupons      couponPool
	quota        quotaLedger
	sms          smsSender
	orders       confirmationStore
	partnerLabID string
	sender       string
	supportPhone string
	brand        string
}

func NewConfirmationService(
	coupons couponPool,
	quota quotaLedger,
	sms smsSender,
	orders confirmationStore,
	partnerLabID, sender, supportPhone string,
) *ConfirmationService {
	return &ConfirmationService{
		coupons:      coupons,
		quota:        quota,
		sms:          sms,
		orders:       orders,
		partnerLabID: partnerLabID,
		sender:       sender,
		supportPhone: supportPhone,
		brand:        "Medicart",
	}
}

// Run executes the confirmation flow for an order whose confirmation is still
// owed. Quota was already checked before the order was accepted; here only the
// post-send bookkeeping happens.
func (s *ConfirmationService) Run(ctx context.Context, order *model.Order) error {
	mobile := strings.TrimSpace(order.Customer.Mobile)
	metered := order.TouchesLab(s.partnerLabID)

	var reserved *model.Coupon
	if metered {
		coupon, err := s.coupons.Reserve(ctx, s.partnerLabID, order.ID, mobile)
		switch {
		case err == nil:
			reserved = coupon
		case errors.Is(err, ErrNoCoupons):
			// Pool exhausted: the confirmation still goes out, just without
			// a discount code.
			slog.Info("coupon pool exhausted, sending without coupon",
				"order", order.ID, "lab", s.partnerLabID)
		default:
			return s.fail(ctx, order, reserved, fmt.Errorf("reserve coupon: %w", err))
		}
	}

	text := s.composeMessage(order, reserved)

	if err := s.sms.Send(ctx, mobile, s.sender, text); err != nil {
		return s.fail(ctx, order, reserved, fmt.Errorf("send confirmation: %w", err))
	}

	if err := s.quota.RecordSuccess(ctx, mobile, metered); err != nil {
		slog.Error("failed to record sms quota", "order", order.ID, "error", err)
	}

	if reserved != nil {
		if err := s.coupons.MarkSent(ctx, reserved.ID); err != nil {
			slog.Error("failed to mark coupon sent", "order", order.ID, "coupon", reserved.ID, "error", err)
		}
	}

	if err := s.orders.SetConfirmation(ctx, order.ID, model.ConfirmationSent); err != nil {
		slog.Error("failed to record confirmation outcome", "order", order.ID, "error", err)
	}

	return nil
}

// fail releases a reserved coupon back to the pool and records the failed
// attempt. The customer keeps their order.
func (s *ConfirmationService) fail(ctx context.Context, order *model.Order, reserved *model.Coupon, cause error) error {
	if reserved != nil {
		if err := s.coupons.Release(ctx, reserved.ID); err != nil {
			slog.Error("failed to release coupon", "order", order.ID, "coupon", reserved.ID, "error", err)
		}
	}

	if err := s.orders.SetConfirmation(ctx, order.ID, model.ConfirmationFailed); err != nil {
		slog.Error("failed to record confirmation outcome", "order", order.ID, "error", err)
	}

	slog.Error("order confirmation failed", "order", order.ID, "error", cause)
	return cause
}

func (s *ConfirmationService) composeMessage(order *model.Order, coupon *model.Coupon) string {
	labName := strings.Join(order.LabNames(), ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s: Your tests are booked.", labName, s.brand)
	if coupon != nil {
		fmt.Fprintf(&b, " Use Coupon: %s.", coupon.Code)
	}
	fmt.Fprintf(&b, " For help: %s. Thank you for trusting %s!", s.supportPhone, s.brand)

	return b.String()
}
