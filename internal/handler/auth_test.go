package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"medicart/internal/model"
	"medicart/internal/service"
)

type stubAuth struct {
	smsSent   bool
	signupErr error
	verifyErr error
	resendErr error
	loginErr  error
	user      *model.User
}

func (s *stubAuth) Signup(_ context.Context, _, _, _ string) (bool, error) {
	return s.smsSent, s.signupErr
}

func (s *stubAuth) VerifyMobile(_ context.Context, _, _ string) (*model.User, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.user, nil
}

func (s *stubAuth) ResendCode(_ context.Context, _ string) (bool, error) {
	return s.smsSent, s.resendErr
}

func (s *stubAuth) Authenticate(_ context.Context, _, _ string) (*model.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.user, nil
}

func (s *stubAuth) GetUser(_ context.Context, _ string) (*model.User, error) {
	return s.user, nil
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestSignupHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		stub       *stubAuth
		wantStatus int
	}{
		{
			name:       "ok_sms_sent",
			body:       `{"name":"A","mobile":"03001234567","password":"secret1"}`,
			stub:       &stubAuth{smsSent: true},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "ok_sms_failed",
			body:       `{"name":"A","mobile":"03001234567","password":"secret1"}`,
			stub:       &stubAuth{smsSent: false},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing_name",
			body:       `{"mobile":"03001234567","password":"secret1"}`,
			stub:       &stubAuth{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing_mobile",
			body:       `{"name":"A","password":"secret1"}`,
			stub:       &stubAuth{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "already_registered",
			body:       `{"name":"A","mobile":"03001234567","password":"secret1"}`,
			stub:       &stubAuth{signupErr: service.ErrMobileRegistered},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := postJSON(t, SignupHandler(tt.stub), tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}

			if tt.wantStatus != http.StatusCreated {
				return
			}
			var resp struct {
				SMSSent bool `json:"smsSent"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.SMSSent != tt.stub.smsSent {
				t.Errorf("expected smsSent=%v, got %v", tt.stub.smsSent, resp.SMSSent)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "u1", Name: "A", Mobile: "03001234567", MobileVerified: true}

	tests := []struct {
		name       string
		body       string
		stub       *stubAuth
		wantStatus int
		wantToken  bool
	}{
		{
			name:       "ok",
			body:       `{"mobile":"03001234567","password":"secret1"}`,
			stub:       &stubAuth{user: user},
			wantStatus: http.StatusOK,
			wantToken:  true,
		},
		{
			name:       "invalid_credentials",
			body:       `{"mobile":"03001234567","password":"wrong"}`,
			stub:       &stubAuth{loginErr: service.ErrInvalidCredentials},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing_password",
			body:       `{"mobile":"03001234567"}`,
			stub:       &stubAuth{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := postJSON(t, LoginHandler(tt.stub, "test-secret"), tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}

			if !tt.wantToken {
				return
			}
			var resp struct {
				Token string `json:"token"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a token in the response")
			}
		})
	}
}

func TestVerifyMobileHandler(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "u1", Name: "A", Mobile: "03001234567", MobileVerified: true}

	tests := []struct {
		name       string
		body       string
		stub       *stubAuth
		wantStatus int
	}{
		{
			name:       "ok",
			body:       `{"mobile":"03001234567","code":"123456"}`,
			stub:       &stubAuth{user: user},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing_code",
			body:       `{"mobile":"03001234567"}`,
			stub:       &stubAuth{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no_pending",
			body:       `{"mobile":"03001234567","code":"123456"}`,
			stub:       &stubAuth{verifyErr: service.ErrNoPendingSignup},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "already_verified",
			body:       `{"mobile":"03001234567","code":"123456"}`,
			stub:       &stubAuth{verifyErr: service.ErrAlreadyVerified},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong_code",
			body:       `{"mobile":"03001234567","code":"000000"}`,
			stub:       &stubAuth{verifyErr: service.ErrInvalidCode},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "expired_code",
			body:       `{"mobile":"03001234567","code":"123456"}`,
			stub:       &stubAuth{verifyErr: service.ErrCodeExpired},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := postJSON(t, VerifyMobileHandler(tt.stub, "test-secret"), tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
