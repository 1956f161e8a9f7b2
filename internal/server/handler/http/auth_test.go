package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	registerReturn bool
	registerErr    error
	authReturn     bool
	authErr        error
	logoutErr      error

	session  *SessionResponse
	gotLogin string
}

func (f *fakeAuthService) Register(ctx context.Context, login, password string) (bool, error) {
	f.gotLogin = login
	return f.registerReturn, f.registerErr
}

func (f *fakeAuthService) Authenticate(ctx context.Context, login, password string) (bool, error) {
	f.gotLogin = login
	if f.authReturn {
		f.session = &SessionResponse{UserID: 1, Login: login}
	}
	return f.authReturn, f.authErr
}

func (f *fakeAuthService) Logout() error {
	f.session = nil
	return f.logoutErr
}

func (f *fakeAuthService) CurrentUserID() (int64, bool) {
	if f.session == nil {
		return 0, false
	}
	return f.session.UserID, true
}

func (f *fakeAuthService) CurrentLogin() (string, bool) {
	if f.session == nil {
		return "", false
	}
	return f.session.Login, true
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		service        *fakeAuthService
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "empty login",
			body:           `{"login":"  ","password":"pw"}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "empty password",
			body:           `{"login":"alice","password":""}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "storage error",
			body:           `{"login":"alice","password":"pw"}`,
			service:        &fakeAuthService{registerErr: errors.New("db error")},
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "internal error",
		},
		{
			name:           "login taken",
			body:           `{"login":"bob","password":"pw"}`,
			service:        &fakeAuthService{registerReturn: false},
			expectedCode:   http.StatusConflict,
			expectedSubstr: "user already exists",
		},
		{
			name:           "created",
			body:           `{"login":" carol ","password":"pw"}`,
			service:        &fakeAuthService{registerReturn: true},
			expectedCode:   http.StatusCreated,
			expectedSubstr: `"login":"carol"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/register", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: tt.service, Log: zap.NewNop()}

			h.Register(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("status = %d; want %d", rec.Code, tt.expectedCode)
			}
			if !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Errorf("body = %q; want substring %q", rec.Body.String(), tt.expectedSubstr)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		service      *fakeAuthService
		expectedCode int
	}{
		{name: "invalid JSON", body: `{`, service: &fakeAuthService{}, expectedCode: http.StatusBadRequest},
		{name: "rejected", body: `{"login":"alice","password":"bad"}`, service: &fakeAuthService{}, expectedCode: http.StatusUnauthorized},
		{name: "storage error", body: `{"login":"alice","password":"pw"}`, service: &fakeAuthService{authErr: errors.New("boom")}, expectedCode: http.StatusInternalServerError},
		{name: "ok", body: `{"login":"alice","password":"pw"}`, service: &fakeAuthService{authReturn: true}, expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: tt.service, Log: zap.NewNop()}

			h.Login(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("status = %d; want %d", rec.Code, tt.expectedCode)
			}
			if tt.expectedCode != http.StatusOK {
				return
			}
			var resp SessionResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Login != "alice" || resp.UserID != 1 {
				t.Errorf("session = %+v; want alice/1", resp)
			}
		})
	}
}

func TestAuthHandler_LogoutAndSession(t *testing.T) {
	svc := &fakeAuthService{session: &SessionResponse{UserID: 0, Login: "zero"}}
	h := &AuthHandler{AuthService: svc, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.Session(rec, httptest.NewRequest("GET", "/session", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"user_id":0`) {
		t.Errorf("body = %q; want user_id 0", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest("POST", "/logout", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("logout status = %d; want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Session(rec, httptest.NewRequest("GET", "/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("session after logout = %d; want 401", rec.Code)
	}
}

func TestAuthHandler_LogoutError(t *testing.T) {
	h := &AuthHandler{AuthService: &fakeAuthService{logoutErr: errors.New("read-only fs")}, Log: zap.NewNop()}
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest("POST", "/logout", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", rec.Code)
	}
}
