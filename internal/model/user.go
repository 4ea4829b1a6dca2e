package model

import "time"

type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Mobile          string     `json:"mobile"`
	PasswordHash    []byte     `json:"-"`
	MobileVerified  bool       `json:"isMobileVerified"`
	ResetCode       string     `json:"-"`
	ResetCodeExpiry *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}

// PendingUser is a signup awaiting mobile verification. Records expire
// 24 hours after creation and are removed by the maintenance sweep.
type PendingUser struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Mobile           string    `json:"mobile"`
	PasswordHash     []byte    `json:"-"`
	VerificationCode string    `json:"-"`
	CodeExpiry       time.Time `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}
