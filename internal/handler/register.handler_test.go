package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/internal/handler"
	"github.com/rkohli77/canadian-rental-platform/internal/usecase"
	"github.com/rkohli77/canadian-rental-platform/internal/usecase/mocks"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type registerDeps struct {
	identity *mocks.MockIdentityProvider
	profiles *mocks.MockProfileStore
	orphans  *mocks.MockOrphanRecorder
}

func newRegisterHandler(t *testing.T) (*handler.RentalHandler, registerDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	deps := registerDeps{
		identity: mocks.NewMockIdentityProvider(ctrl),
		profiles: mocks.NewMockProfileStore(ctrl),
		orphans:  mocks.NewMockOrphanRecorder(ctrl),
	}
	p := usecase.NewProvisioner(deps.identity, deps.profiles, deps.orphans, nil, zap.NewNop(),
		usecase.ProvisionerConfig{SiteOrigin: "http://localhost:3000"})
	return handler.NewRentalHandler(p, nil, nil, nil, zap.NewNop()), deps
}

func postRegister(t *testing.T, h *handler.RentalHandler, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	return rec.Code, out
}

func assertBody(t *testing.T, got map[string]interface{}, want map[string]interface{}) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("body %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("body[%q] = %v, want %v (body %v)", k, got[k], v, got)
		}
	}
}

const validBody = `{"email":"a@b.com","password":"longenough1","firstName":"Ana","lastName":"Bo",
	"phone":"604-555-0101","city":"Vancouver","province":"BC","postalCode":"V6B 1A1",
	"monthlyIncome":5200,"references":"none","userType":"renter"}`

func TestRegister_InvalidEmail(t *testing.T) {
	h, _ := newRegisterHandler(t)

	status, body := postRegister(t, h, `{"email":"not-an-email","password":"longenough1"}`)

	if status != http.StatusBadRequest {
		t.Fatalf("status %d", status)
	}
	assertBody(t, body, map[string]interface{}{"field": "email", "message": "A valid email is required."})
}

func TestRegister_ShortPassword(t *testing.T) {
	h, _ := newRegisterHandler(t)

	status, body := postRegister(t, h, `{"email":"a@b.com","password":"short"}`)

	if status != http.StatusBadRequest {
		t.Fatalf("status %d", status)
	}
	assertBody(t, body, map[string]interface{}{"field": "password", "message": "Password must be at least 8 characters."})
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, deps := newRegisterHandler(t)
	deps.identity.EXPECT().
		CreateAccount(gomock.Any(), "a@b.com", "longenough1", gomock.Any(), "http://localhost:3000/auth/callback").
		Return(nil, &xerrors.ProviderError{Status: 422, Message: "User already registered", Code: "user_already_exists", Err: xerrors.ErrEmailAlreadyInUse})
	// no InsertProfile expectation: a call would fail the test

	status, body := postRegister(t, h, validBody)

	if status != http.StatusBadRequest {
		t.Fatalf("status %d", status)
	}
	assertBody(t, body, map[string]interface{}{
		"field":         "email",
		"message":       "User already registered",
		"code":          "signup_error",
		"provider_code": "user_already_exists",
	})
}

func TestRegister_ProviderPasswordRejection(t *testing.T) {
	h, deps := newRegisterHandler(t)
	deps.identity.EXPECT().
		CreateAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &xerrors.ProviderError{Status: 422, Message: "Password is known to be weak", Code: "weak_password"})

	status, body := postRegister(t, h, validBody)

	if status != http.StatusBadRequest || body["field"] != "password" || body["code"] != "signup_error" {
		t.Fatalf("status %d body %v", status, body)
	}
}

func TestRegister_ProfileFailureCompensates(t *testing.T) {
	h, deps := newRegisterHandler(t)
	gomock.InOrder(
		deps.identity.EXPECT().
			CreateAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&domain.AccountIdentity{ID: "u1", Email: "a@b.com"}, nil),
		deps.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).
			Return(errors.New(`new row for relation "profile" violates check constraint`)),
		deps.identity.EXPECT().DeleteAccount(gomock.Any(), "u1").Return(nil).Times(1),
	)

	status, body := postRegister(t, h, validBody)

	if status != http.StatusBadRequest {
		t.Fatalf("status %d", status)
	}
	assertBody(t, body, map[string]interface{}{"error": `new row for relation "profile" violates check constraint`})
}

func TestRegister_CompensationFailureIsFlagged(t *testing.T) {
	h, deps := newRegisterHandler(t)
	deps.identity.EXPECT().
		CreateAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.AccountIdentity{ID: "u1", Email: "a@b.com"}, nil)
	deps.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))
	deps.identity.EXPECT().DeleteAccount(gomock.Any(), "u1").Return(errors.New("identity service unreachable")).Times(1)
	deps.orphans.EXPECT().RecordOrphan(gomock.Any(), gomock.Any()).Return(nil)

	status, body := postRegister(t, h, validBody)

	if status != http.StatusBadRequest {
		t.Fatalf("status %d", status)
	}
	assertBody(t, body, map[string]interface{}{"error": "insert failed", "code": "account_cleanup_pending"})
}

func TestRegister_Success(t *testing.T) {
	h, deps := newRegisterHandler(t)
	var stored *domain.ProfileRecord
	deps.identity.EXPECT().
		CreateAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.AccountIdentity{ID: "u1", Email: "a@b.com"}, nil)
	deps.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *domain.ProfileRecord) error {
			stored = p
			return nil
		})

	status, body := postRegister(t, h, validBody)

	if status != http.StatusOK {
		t.Fatalf("status %d body %v", status, body)
	}
	assertBody(t, body, map[string]interface{}{"success": true})
	if stored == nil || stored.UserID != "u1" || stored.PostalCode != "V6B 1A1" || stored.Reference != "none" {
		t.Fatalf("unexpected profile %+v", stored)
	}
	if stored.MonthlyIncome == nil || stored.MonthlyIncome.IntPart() != 5200 {
		t.Fatalf("income not stored: %v", stored.MonthlyIncome)
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	h, _ := newRegisterHandler(t)

	status, body := postRegister(t, h, `{"email":`)

	if status != http.StatusBadRequest {
		t.Fatalf("status %d", status)
	}
	assertBody(t, body, map[string]interface{}{"error": "Invalid request body"})
}

type failingRegistrar struct{ err error }

func (f failingRegistrar) Provision(context.Context, *domain.RegistrationRequest) (*usecase.ProvisionResult, error) {
	return nil, f.err
}

func TestRegister_UnexpectedErrorIs500(t *testing.T) {
	h := handler.NewRentalHandler(failingRegistrar{errors.New("boom")}, nil, nil, nil, zap.NewNop())

	status, body := postRegister(t, h, validBody)

	if status != http.StatusInternalServerError {
		t.Fatalf("status %d", status)
	}
	assertBody(t, body, map[string]interface{}{"error": "Internal server error"})
}
