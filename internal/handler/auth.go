package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"medicart/internal/model"
	"medicart/internal/mw"
	"medicart/internal/service"
)

type authService interface {
	Signup(ctx context.Context, name, mobile, password string) (bool, error)
	VerifyMobile(ctx context.Context, mobile, code string) (*model.User, error)
	ResendCode(ctx context.Context, mobile string) (bool, error)
	Authenticate(ctx context.Context, mobile, password string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

type signupRequest struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func SignupHandler(auth authService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Name == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Name and password are required")
			return
		}
		if req.Mobile == "" {
			writeError(w, http.StatusBadRequest, "Mobile number is required")
			return
		}

		smsSent, err := auth.Signup(r.Context(), req.Name, req.Mobile, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrMobileRegistered) {
				writeError(w, http.StatusBadRequest, "Mobile number already registered")
				return
			}
			slog.Error("signup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Server error during signup")
			return
		}

		message := "Verification code sent. Please check your mobile."
		if !smsSent {
			message = "User data saved. Failed to send SMS, please use the resend option."
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": message,
			"smsSent": smsSent,
		})
	}
}

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func LoginHandler(auth authService, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Password == "" {
			writeError(w, http.StatusBadRequest, "Password is required")
			return
		}
		if req.Mobile == "" {
			writeError(w, http.StatusBadRequest, "Mobile number is required")
			return
		}

		user, err := auth.Authenticate(r.Context(), req.Mobile, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			slog.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Server error during login")
			return
		}

		token, err := issueToken(secret, user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "token generation failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"token":   token,
			"user":    userPayload(user),
		})
	}
}

type verifyMobileRequest struct {
	Mobile string `json:"mobile"`
	Code   string `json:"code"`
}

func VerifyMobileHandler(auth authService, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyMobileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Mobile == "" || req.Code == "" {
			writeError(w, http.StatusBadRequest, "Mobile number and verification code are required")
			return
		}

		user, err := auth.VerifyMobile(r.Context(), req.Mobile, req.Code)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAlreadyVerified):
				writeError(w, http.StatusBadRequest, "Account already verified and created.")
			case errors.Is(err, service.ErrNoPendingSignup):
				writeError(w, http.StatusNotFound, "No pending signup found for this mobile number.")
			case errors.Is(err, service.ErrInvalidCode):
				writeError(w, http.StatusBadRequest, "Invalid verification code")
			case errors.Is(err, service.ErrCodeExpired):
				writeError(w, http.StatusBadRequest, "Verification code has expired")
			default:
				slog.Error("mobile verification failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Server error during verification")
			}
			return
		}

		token, err := issueToken(secret, user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "token generation failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Mobile number verified and account created successfully",
			"token":   token,
			"user":    userPayload(user),
		})
	}
}

type resendRequest struct {
	Mobile string `json:"mobile"`
}

func ResendCodeHandler(auth authService) http.HandlerFunc {
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

		smsSent, err := auth.ResendCode(r.Context(), req.Mobile)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAlreadyVerified):
				writeError(w, http.StatusBadRequest, "Account already verified.")
			case errors.Is(err, service.ErrNoPendingSignup):
				writeError(w, http.StatusNotFound, "No pending signup found for this mobile number.")
			default:
				slog.Error("resend verification failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Server error")
			}
			return
		}

		message := "Verification code resent successfully"
		if !smsSent {
			message = "Failed to send verification code. Please try again."
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": message,
			"smsSent": smsSent,
		})
	}
}

func CurrentUserHandler(auth authService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(mw.UserCtxKey).(string)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := auth.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "User not found")
				return
			}
			slog.Error("get current user failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"user": userPayload(user)})
	}
}

func userPayload(u *model.User) map[string]any {
	return map[string]any{
		"id":               u.ID,
		"name":             u.Name,
		"mobile":           u.Mobile,
		"isMobileVerified": u.MobileVerified,
	}
}
