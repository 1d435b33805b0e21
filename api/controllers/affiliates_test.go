package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/pawpantry/storefront-api/internal/affiliates"
	pkgauth "github.com/pawpantry/storefront-api/pkg/auth"
	"github.com/pawpantry/storefront-api/pkg/enums"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
)

type stubAffiliateService struct {
	affiliate *affiliates.AffiliateDTO
	dashboard *affiliates.DashboardDTO
	err       error

	userID      uuid.UUID
	signup      affiliates.SignupInput
	clickedCode string
	statusID    uuid.UUID
	status      string
}

func (s *stubAffiliateService) Signup(ctx context.Context, userID uuid.UUID, input affiliates.SignupInput) (*affiliates.AffiliateDTO, error) {
	s.userID, s.signup = userID, input
	return s.affiliate, s.err
}

func (s *stubAffiliateService) Dashboard(ctx context.Context, userID uuid.UUID) (*affiliates.DashboardDTO, error) {
	s.userID = userID
	return s.dashboard, s.err
}

func (s *stubAffiliateService) TrackClick(ctx context.Context, code string) error {
	s.clickedCode = code
	return s.err
}

func (s *stubAffiliateService) UpdateStatus(ctx context.Context, affiliateID uuid.UUID, status string) (*affiliates.AffiliateDTO, error) {
	s.statusID, s.status = affiliateID, status
	return s.affiliate, s.err
}

const signupBody = `{"affiliate_code":"PAWS","country":"US","address":"1 Main St","phone":"555-0100",
	"traffic_source":"instagram","payment_method":"paypal","paypal_email":"payouts@example.com"}`

func TestAffiliateSignup(t *testing.T) {
	userID := uuid.New()
	svc := &stubAffiliateService{affiliate: &affiliates.AffiliateDTO{ID: uuid.New(), AffiliateCode: "PAWS"}}
	rec := httptest.NewRecorder()
	req := asUser(newRequest(http.MethodPost, "/api/v1/affiliates", signupBody), userID, pkgauth.RoleCustomer)

	AffiliateSignup(svc, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusCreated)
	if svc.userID != userID {
		t.Fatalf("expected caller id")
	}
	if svc.signup.PaymentMethod != enums.PayoutMethodPayPal || svc.signup.PayPalEmail != "payouts@example.com" {
		t.Fatalf("unexpected input %+v", svc.signup)
	}
}

func TestAffiliateSignupDefaultsPayPalEmailToAccount(t *testing.T) {
	body := `{"affiliate_code":"PAWS","country":"US","address":"1 Main St","phone":"555",
		"traffic_source":"blog","payment_method":"paypal"}`
	svc := &stubAffiliateService{affiliate: &affiliates.AffiliateDTO{ID: uuid.New(), AffiliateCode: "PAWS"}}
	rec := httptest.NewRecorder()
	req := asUser(newRequest(http.MethodPost, "/api/v1/affiliates", body), uuid.New(), pkgauth.RoleCustomer)

	AffiliateSignup(svc, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusCreated)
	if svc.signup.PayPalEmail != "someone@example.com" {
		t.Fatalf("expected account email, got %q", svc.signup.PayPalEmail)
	}
}

func TestAffiliateSignupRequiresCaller(t *testing.T) {
	rec := httptest.NewRecorder()

	AffiliateSignup(&stubAffiliateService{}, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/affiliates", signupBody))

	assertStatus(t, rec, http.StatusUnauthorized)
}

func TestAffiliateSignupRejectsUnknownPayout(t *testing.T) {
	body := `{"affiliate_code":"PAWS","country":"US","address":"1 Main St","phone":"555",
		"traffic_source":"blog","payment_method":"cheque"}`
	rec := httptest.NewRecorder()
	req := asUser(newRequest(http.MethodPost, "/api/v1/affiliates", body), uuid.New(), pkgauth.RoleCustomer)

	AffiliateSignup(&stubAffiliateService{}, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusBadRequest)
}

func TestAffiliateSignupConflict(t *testing.T) {
	svc := &stubAffiliateService{err: pkgerrors.New(pkgerrors.CodeConflict, "affiliate code already taken")}
	rec := httptest.NewRecorder()
	req := asUser(newRequest(http.MethodPost, "/api/v1/affiliates", signupBody), uuid.New(), pkgauth.RoleCustomer)

	AffiliateSignup(svc, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusConflict)
	if msg := decodeError(t, rec).Message; msg != "affiliate code already taken" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAffiliateStats(t *testing.T) {
	userID := uuid.New()
	svc := &stubAffiliateService{dashboard: &affiliates.DashboardDTO{
		Affiliate: affiliates.AffiliateDTO{ID: uuid.New(), AffiliateCode: "PAWS"},
		Sales:     []affiliates.SaleDTO{},
	}}
	rec := httptest.NewRecorder()

	AffiliateStats(svc, testLogger()).ServeHTTP(rec, asUser(newRequest(http.MethodGet, "/api/v1/affiliates/me", ""), userID, pkgauth.RoleCustomer))

	assertStatus(t, rec, http.StatusOK)
	if svc.userID != userID {
		t.Fatalf("expected caller id")
	}
}

func TestAffiliateClick(t *testing.T) {
	svc := &stubAffiliateService{}
	rec := httptest.NewRecorder()
	req := withParams(newRequest(http.MethodPost, "/api/v1/affiliates/PAWS/clicks", ""), map[string]string{"code": " PAWS "})

	AffiliateClick(svc, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusAccepted)
	if svc.clickedCode != "PAWS" {
		t.Fatalf("unexpected code %q", svc.clickedCode)
	}
}

func TestAdminUpdateAffiliateStatus(t *testing.T) {
	affiliateID := uuid.New()
	svc := &stubAffiliateService{affiliate: &affiliates.AffiliateDTO{ID: affiliateID}}
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPatch, "/api/admin/v1/affiliates/"+affiliateID.String()+"/status", `{"status":"approved"}`)
	req = withParams(req, map[string]string{"affiliateId": affiliateID.String()})

	AdminUpdateAffiliateStatus(svc, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusOK)
	if svc.statusID != affiliateID || svc.status != "approved" {
		t.Fatalf("unexpected call %v %q", svc.statusID, svc.status)
	}

	rec = httptest.NewRecorder()
	req = newRequest(http.MethodPatch, "/api/admin/v1/affiliates/"+affiliateID.String()+"/status", `{"status":"banned"}`)
	req = withParams(req, map[string]string{"affiliateId": affiliateID.String()})
	AdminUpdateAffiliateStatus(svc, testLogger()).ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusBadRequest)
}
