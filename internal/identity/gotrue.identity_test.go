package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/zap"
)

func newTestGoTrue(t *testing.T, h http.HandlerFunc) *GoTrue {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGoTrue(GoTrueConfig{URL: srv.URL, AnonKey: "anon", ServiceRoleKey: "service"}, zap.NewNop())
}

func TestGoTrue_CreateAccount(t *testing.T) {
	g := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/signup" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("redirect_to"); got != "https://rent.example.ca/auth/callback" {
			t.Errorf("redirect_to = %q", got)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("missing anon key")
		}
		var body struct {
			Email    string                 `json:"email"`
			Password string                 `json:"password"`
			Data     domain.AccountMetadata `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Email != "jane@example.com" || body.Data.UserType != domain.UserTypeLandlord {
			t.Errorf("unexpected body %+v", body)
		}
		_, _ = io.WriteString(w, `{"id":"u1","email":"jane@example.com","identities":[{"id":"i1"}],
			"user_metadata":{"first_name":"Jane","user_type":"landlord"}}`)
	})

	acct, err := g.CreateAccount(context.Background(), "jane@example.com", "longenough1",
		domain.AccountMetadata{FirstName: "Jane", UserType: domain.UserTypeLandlord},
		"https://rent.example.ca/auth/callback")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if acct.ID != "u1" || acct.Metadata.FirstName != "Jane" {
		t.Fatalf("unexpected account %+v", acct)
	}
}

func TestGoTrue_CreateAccountAutoConfirmSession(t *testing.T) {
	g := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"access_token":"tok","user":{"id":"u2","email":"a@b.co"}}`)
	})

	acct, err := g.CreateAccount(context.Background(), "a@b.co", "longenough1", domain.AccountMetadata{}, "")
	if err != nil || acct == nil || acct.ID != "u2" {
		t.Fatalf("got %+v, %v", acct, err)
	}
}

func TestGoTrue_CreateAccountDuplicate(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"error response": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`)
		},
		"legacy message": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"User already registered"}`)
		},
		"obfuscated user": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"id":"fake","email":"jane@example.com","identities":[]}`)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			g := newTestGoTrue(t, h)
			_, err := g.CreateAccount(context.Background(), "jane@example.com", "longenough1", domain.AccountMetadata{}, "")

			var perr *xerrors.ProviderError
			if !errors.As(err, &perr) || perr.Message != "User already registered" {
				t.Fatalf("expected provider error, got %v", err)
			}
			if !errors.Is(err, xerrors.ErrEmailAlreadyInUse) {
				t.Fatalf("duplicate not mapped: %v", err)
			}
		})
	}
}

func TestGoTrue_CreateAccountIsNotRetried(t *testing.T) {
	var calls int32
	g := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := g.CreateAccount(context.Background(), "a@b.co", "longenough1", domain.AccountMetadata{}, "")
	var perr *xerrors.ProviderError
	if !errors.As(err, &perr) || perr.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 provider error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("sign-up sent %d times", n)
	}
}

func TestGoTrue_DeleteAccount(t *testing.T) {
	var calls int32
	g := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/auth/v1/admin/users/u1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer service" {
			t.Errorf("admin call without service key")
		}
		// first attempt fails, the retry succeeds
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := g.DeleteAccount(context.Background(), "u1"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected one retry, got %d calls", n)
	}
}

func TestGoTrue_DeleteMissingAccount(t *testing.T) {
	g := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":404,"error_code":"user_not_found","msg":"User not found"}`)
	})

	if err := g.DeleteAccount(context.Background(), "gone"); !errors.Is(err, xerrors.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGoTrue_SignIn(t *testing.T) {
	g := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("grant_type = %q", r.URL.Query().Get("grant_type"))
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "right" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600,"expires_at":1900000000,
			"user":{"id":"u1","email":"jane@example.com"}}`)
	})

	sess, err := g.SignIn(context.Background(), "jane@example.com", "right")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.AccessToken != "tok" || sess.User.ID != "u1" || sess.ExpiresAt.Unix() != 1900000000 {
		t.Fatalf("unexpected session %+v", sess)
	}

	if _, err := g.SignIn(context.Background(), "jane@example.com", "wrong"); !errors.Is(err, xerrors.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestGoTrue_GetUserAndSignOut(t *testing.T) {
	g := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":401,"msg":"invalid JWT"}`)
			return
		}
		switch r.URL.Path {
		case "/auth/v1/user":
			_, _ = io.WriteString(w, `{"id":"u1","email":"jane@example.com","user_metadata":{"user_type":"renter"}}`)
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		}
	})

	user, err := g.GetUser(context.Background(), "tok")
	if err != nil || user.ID != "u1" || user.Metadata.UserType != domain.UserTypeRenter {
		t.Fatalf("GetUser: %+v, %v", user, err)
	}
	if _, err := g.GetUser(context.Background(), "stale"); !errors.Is(err, xerrors.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := g.SignOut(context.Background(), "tok"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
}

func TestGoTrue_FindByEmail(t *testing.T) {
	g := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/admin/users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"users":[{"id":"u1","email":"Other@example.com"},{"id":"u2","email":"Jane@Example.com"}]}`)
	})

	acct, err := g.FindByEmail(context.Background(), "jane@example.com")
	if err != nil || acct.ID != "u2" {
		t.Fatalf("FindByEmail: %+v, %v", acct, err)
	}
	if _, err := g.FindByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, xerrors.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDecodeProviderError(t *testing.T) {
	cases := []struct {
		body        string
		status      int
		wantMessage string
		wantCode    string
	}{
		{`{"code":422,"error_code":"weak_password","msg":"Password should be at least 6 characters"}`, 422, "Password should be at least 6 characters", "weak_password"},
		{`{"error":"invalid_grant","error_description":"Invalid login credentials"}`, 400, "Invalid login credentials", "invalid_grant"},
		{`{"message":"Email rate limit exceeded","code":"over_email_send_rate_limit"}`, 429, "Email rate limit exceeded", "over_email_send_rate_limit"},
		{`not json`, 500, "Internal Server Error", ""},
	}
	for _, tc := range cases {
		perr := decodeProviderError(tc.status, []byte(tc.body))
		if perr.Message != tc.wantMessage || perr.Code != tc.wantCode || perr.Status != tc.status {
			t.Errorf("decode %s = %+v", tc.body, perr)
		}
	}
}
