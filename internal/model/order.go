package model

import (
	"time"
)

// Order statuses an operator can set. New orders always start as Pending.
const (
	StatusReceived  = "Received"
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

// Confirmation states of the post-creation notification flow.
const (
	ConfirmationPending = "pending"
	ConfirmationSent    = "sent"
	ConfirmationFailed  = "failed"
)

type Customer struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email,omitempty"`
	Age    string `json:"age"`
	City   string `json:"city"`
}

type OrderItem struct {
	TestID          string  `json:"testId"`
	TestName        string  `json:"testName"`
	LabID           string  `json:"labId"`
	LabName         string  `json:"labName"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
	Pinned          bool    `json:"pinned"`
}

type Totals struct {
	Original     float64 `json:"original"`
	Final        float64 `json:"final"`
	PlanCoverage float64 `json:"planCoverage"`
}

type Order struct {
	ID            string      `json:"id"`
	Customer      Customer    `json:"customer"`
	PreferredDate string      `json:"preferredDate"`
	PreferredTime string      `json:"preferredTime"`
	Items         []OrderItem `json:"items"`
	Totals        Totals      `json:"totals"`
	Status        string      `json:"status"`
	Confirmation  string      `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// ValidStatus reports whether s is one of the operator-settable statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusReceived, StatusPending, StatusCompleted:
		return true
	}
	return false
}

// TouchesLab reports whether any item in the order belongs to the given lab.
func (o *Order) TouchesLab(labID string) bool {
	for _, item := range o.Items {
		if item.LabID == labID {
			return true
		}
	}
	return false
}

// LabNames returns the unique lab names across items, in first-seen order.
func (o *Order) LabNames() []string {
	seen := make(map[string]bool, len(o.Items))
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if !seen[item.LabName] {
			seen[item.LabName] = true
			names = append(names, item.LabName)
		}
	}
	return names
}
