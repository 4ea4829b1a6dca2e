package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medicart/internal/model"
)

var (
	ErrMobileRegistered   = errors.New("mobile number already registered")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrNoPendingSignup    = errors.New("no pending signup for this mobile number")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code has expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidResetCode   = errors.New("invalid reset code")
	ErrResetCodeExpired   = errors.New("reset code has expired")
	ErrMobileNotVerified  = errors.New("mobile number is not verified")
)

const (
	verificationCodeTTL = 24 * time.Hour
	resetCodeTTL        = time.Hour
)

// AuthService handles signup via short-lived pending records, mobile
// verification, login, and the password reset flow. Passwords are bcrypt
// hashed before they ever reach the store.
type AuthService struct {
	db     *sql.DB
	sms    smsSender
	sender string
}

func NewAuthService(db *sql.DB, sms smsSender, sender string) *AuthService {
	return &AuthService{db: db, sms: sms, sender: sender}
}

// Signup creates or refreshes a pending signup with a fresh 6-digit code and
// sends it by SMS. A failed send does not fail the signup; the caller learns
// via the returned flag and the customer can ask for a resend.
func (s *AuthService) Signup(ctx context.Context, name, mobile, password string) (smsSent bool, err error) {
	mobile = strings.TrimSpace(mobile)

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE mobile = $1)`, mobile,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	if exists {
		return false, ErrMobileRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	code, err := GenerateVerificationCode()
	if err != nil {
		return false, fmt.Errorf("generate code: %w", err)
	}
	expiry := time.Now().Add(verificationCodeTTL)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_users (name, mobile, password_hash, verification_code, code_expiry)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mobile)
		DO UPDATE SET
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			verification_code = EXCLUDED.verification_code,
			code_expiry = EXCLUDED.code_expiry
	`, name, mobile, hash, code, expiry)
	if err != nil {
		return false, fmt.Errorf("upsert pending user: %w", err)
	}

	return s.sendCode(ctx, mobile, code), nil
}

// VerifyMobile checks the code against the pending signup and promotes it to
// a permanent, verified user record.
func (s *AuthService) VerifyMobile(ctx context.Context, mobile, code string) (*model.User, error) {
	mobile = strings.TrimSpace(mobile)
	code = strings.TrimSpace(code)

	var pending model.PendingUser
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, mobile, password_hash, verification_code, code_expiry
		FROM pending_users WHERE mobile = $1
	`, mobile).Scan(
		&pending.ID, &pending.Name, &pending.Mobile,
		&pending.PasswordHash, &pending.VerificationCode, &pending.CodeExpiry,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if scanErr := s.db.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM users WHERE mobile = $1)`, mobile,
			).Scan(&exists); scanErr == nil && exists {
				return nil, ErrAlreadyVerified
			}
			return nil, ErrNoPendingSignup
		}
		return nil, fmt.Errorf("get pending user: %w", err)
	}

	if pending.VerificationCode != code {
		return nil, ErrInvalidCode
	}
	if time.Now().After(pending.CodeExpiry) {
		return nil, ErrCodeExpired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var user model.User
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (name, mobile, password_hash, mobile_verified)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, name, mobile, mobile_verified, created_at
	`, pending.Name, pending.Mobile, pending.PasswordHash).Scan(
		&user.ID, &user.Name, &user.Mobile, &user.MobileVerified, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM pending_users WHERE mobile = $1`, mobile); err != nil {
		return nil, fmt.Errorf("delete pending user: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &user, nil
}

// ResendCode regenerates the verification code for an existing pending signup
// and sends it again.
func (s *AuthService) ResendCode(ctx context.Context, mobile string) (smsSent bool, err error) {
	mobile = strings.TrimSpace(mobile)

	code, err := GenerateVerificationCode()
	if err != nil {
		return false, fmt.Errorf("generate code: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE pending_users SET verification_code = $1, code_expiry = $2 WHERE mobile = $3
	`, code, time.Now().Add(verificationCodeTTL), mobile)
	if err != nil {
		return false, fmt.Errorf("update pending user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if scanErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE mobile = $1)`, mobile,
		).Scan(&exists); scanErr == nil && exists {
			return false, ErrAlreadyVerified
		}
		return false, ErrNoPendingSignup
	}

	return s.sendCode(ctx, mobile, code), nil
}

// Authenticate checks mobile + password. Unknown mobile and wrong password
// both produce ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, mobile, password string) (*model.User, error) {
	user, err := s.getByMobile(ctx, strings.TrimSpace(mobile))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser returns a user by id for the /me endpoint.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, mobile, mobile_verified, created_at FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.Mobile, &user.MobileVerified, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// RequestPasswordReset stores a fresh reset code for a verified user and
// sends it by SMS. ErrUserNotFound is returned so the handler can answer
// without revealing whether the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, mobile string) (smsSent bool, err error) {
	mobile = strings.TrimSpace(mobile)

	user, err := s.getByMobile(ctx, mobile)
	if err != nil {
		return false, err
	}
	if !user.MobileVerified {
		return false, ErrMobileNotVerified
	}

	code, err := GenerateVerificationCode()
	if err != nil {
		return false, fmt.Errorf("generate code: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET reset_code = $1, reset_code_expiry = $2 WHERE id = $3
	`, code, time.Now().Add(resetCodeTTL), user.ID)
	if err != nil {
		return false, fmt.Errorf("store reset code: %w", err)
	}

	text := fmt.Sprintf("Your Medicart password reset code is %s. It expires in 1 hour.", code)
	if sendErr := s.sms.Send(ctx, mobile, s.sender, text); sendErr != nil {
		return false, nil
	}
	return true, nil
}

// VerifyResetCode checks a reset code without consuming it.
func (s *AuthService) VerifyResetCode(ctx context.Context, mobile, code string) error {
	user, err := s.getByMobile(ctx, strings.TrimSpace(mobile))
	if err != nil {
		return err
	}
	return checkResetCode(user, code)
}

// ResetPassword sets a new password after a final code check and clears the
// reset code so it cannot be replayed.
func (s *AuthService) ResetPassword(ctx context.Context, mobile, code, newPassword string) error {
	user, err := s.getByMobile(ctx, strings.TrimSpace(mobile))
	if err != nil {
		return err
	}
	if err := checkResetCode(user, code); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, reset_code = NULL, reset_code_expiry = NULL WHERE id = $2
	`, hash, user.ID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// DeleteExpiredPending removes pending signups 24 hours after creation,
// verified or not. The schema has no native TTL, so the maintenance sweep
// calls this on an interval.
func (s *AuthService) DeleteExpiredPending(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_users WHERE created_at < NOW() - INTERVAL '24 hours'`,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired pending users: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *AuthService) getByMobile(ctx context.Context, mobile string) (*model.User, error) {
	var (
		user      model.User
		resetCode sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, mobile, password_hash, mobile_verified, reset_code, reset_code_expiry, created_at
		FROM users WHERE mobile = $1
	`, mobile).Scan(
		&user.ID, &user.Name, &user.Mobile, &user.PasswordHash,
		&user.MobileVerified, &resetCode, &user.ResetCodeExpiry, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.ResetCode = resetCode.String
	return &user, nil
}

func checkResetCode(user *model.User, code string) error {
	if user.ResetCode == "" || user.ResetCode != strings.TrimSpace(code) {
		return ErrInvalidResetCode
	}
	if user.ResetCodeExpiry == nil || time.Now().After(*user.ResetCodeExpiry) {
		return ErrResetCodeExpired
	}
	return nil
}

func (s *AuthService) sendCode(ctx context.Context, mobile, code string) bool {
	text := fmt.Sprintf("Your Medicart verification code is %s. It expires in 24 hours.", code)
	if err := s.sms.Send(ctx, mobile, s.sender, text); err != nil {
		// The pending record is saved either way; the customer can resend.
		return false
	}
	return true
}

// GenerateVerificationCode returns a random 6-digit numeric code.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
