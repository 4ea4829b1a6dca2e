package model

import "time"

// Coupon lifecycle: available -> reserved -> sent, or reserved -> available
// on release. A sent coupon is never reused.
const (
	CouponAvailable = "available"
	CouponReserved  = "reserved"
	CouponSent      = "sent"
)

type Coupon struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	LabID           string     `json:"lab_id"`
	State           string     `json:"state"`
	ReservedOrderID string     `json:"reserved_order_id,omitempty"`
	ReservedMobile  string     `json:"reserved_mobile,omitempty"`
	ReservedAt      *time.Time `json:"reserved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
