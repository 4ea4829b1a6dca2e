package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"medicart/internal/service"
)

type passwordResetService interface {
	RequestPasswordReset(ctx context.Context, mobile string) (bool, error)
	VerifyResetCode(ctx context.Context, mobile, code string) error
	ResetPassword(ctx context.Context, mobile, code, newPassword string) error
}

const resetRequestedMessage = "If an account exists with this mobile, a password reset code has been sent."

// RequestPasswordResetHandler never reveals whether an account exists:
// unknown mobiles get the same response as successful sends.
func RequestPasswordResetHandler(auth passwordResetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Mobile == "" {
			writeError(w, http.StatusBadRequest, "Mobile number is required")
			return
		}

		smsSent, err := auth.RequestPasswordReset(r.Context(), req.Mobile)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserNotFound):
				writeJSON(w, http.StatusOK, map[string]any{
					"message": resetRequestedMessage,
					"smsSent": true,
				})
			case errors.Is(err, service.ErrMobileNotVerified):
				writeError(w, http.StatusBadRequest, "Please verify your mobile number first before resetting password.")
			default:
				slog.Error("password reset request failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": resetRequestedMessage,
			"smsSent": smsSent,
		})
	}
}

type verifyResetRequest struct {
	Mobile string `json:"mobile"`
	Code   string `json:"code"`
}

func VerifyResetCodeHandler(auth passwordResetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyResetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Mobile == "" || req.Code == "" {
			writeError(w, http.StatusBadRequest, "Mobile and reset code are required")
			return
		}

		if err := auth.VerifyResetCode(r.Context(), req.Mobile, req.Code); err != nil {
			writeResetError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Reset code verified successfully"})
	}
}

type resetPasswordRequest struct {
	Mobile      string `json:"mobile"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func ResetPasswordHandler(auth passwordResetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Mobile == "" || req.Code == "" || req.NewPassword == "" {
			writeError(w, http.StatusBadRequest, "Mobile, reset code, and new password are required")
			return
		}
		if len(req.NewPassword) < 6 {
			writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
			return
		}

		if err := auth.ResetPassword(r.Context(), req.Mobile, req.Code, req.NewPassword); err != nil {
			writeResetError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Password reset successfully. You can now login with your new password.",
		})
	}
}

func writeResetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrInvalidResetCode):
		writeError(w, http.StatusBadRequest, "Invalid reset code")
	case errors.Is(err, service.ErrResetCodeExpired):
		writeError(w, http.StatusBadRequest, "Reset code has expired. Please request a new one.")
	default:
		slog.Error("password reset failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}
