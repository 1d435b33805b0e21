package controllers

import (
	"net/http"

	"github.com/pawpantry/storefront-api/api/middleware"
	"github.com/pawpantry/storefront-api/api/responses"
	"github.com/pawpantry/storefront-api/api/validators"
	"github.com/pawpantry/storefront-api/internal/affiliates"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/logger"
)

type affiliateSignupRequest struct {
	AffiliateCode      string `json:"affiliate_code" validate:"required,min=3,max=32"`
	Country            string `json:"country" validate:"required,max=80"`
	Address            string `json:"address" validate:"required,max=300"`
	Phone              string `json:"phone" validate:"required,max=40"`
	TrafficSource      string `json:"traffic_source" validate:"required,max=80"`
	TrafficSourceOther string `json:"traffic_source_other,omitempty" validate:"max=200"`
	PaymentMethod      string `json:"payment_method" validate:"required,oneof=paypal bank_transfer"`
	PayPalEmail        string `json:"paypal_email,omitempty" validate:"omitempty,email,max=254"`
	BankName           string `json:"bank_name,omitempty" validate:"max=120"`
	AccountNumber      string `json:"account_number,omitempty" validate:"max=34"`
	RoutingNumber      string `json:"routing_number,omitempty" validate:"max=34"`
	AccountHolderName  string `json:"account_holder_name,omitempty" validate:"max=200"`
}

// AffiliateSignup registers the caller as a pending affiliate.
func AffiliateSignup(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("affiliate service"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload affiliateSignupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// PayPal payouts default to the account email.
		if payload.PaymentMethod == string(enums.PayoutMethodPayPal) && payload.PayPalEmail == "" {
			payload.PayPalEmail = middleware.EmailFromContext(r.Context())
		}
		affiliate, err := svc.Signup(r.Context(), userID, affiliates.SignupInput{
			AffiliateCode:      payload.AffiliateCode,
			Country:            payload.Country,
			Address:            payload.Address,
			Phone:              payload.Phone,
			TrafficSource:      payload.TrafficSource,
			TrafficSourceOther: payload.TrafficSourceOther,
			PaymentMethod:      enums.PayoutMethod(payload.PaymentMethod),
			PayPalEmail:        payload.PayPalEmail,
			BankName:           payload.BankName,
			AccountNumber:      payload.AccountNumber,
			RoutingNumber:      payload.RoutingNumber,
			AccountHolderName:  payload.AccountHolderName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, affiliate)
	}
}

// AffiliateStats returns the caller's affiliate record and recent sales.
func AffiliateStats(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("affiliate service"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dashboard, err := svc.Dashboard(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

// AffiliateClick counts a referral visit. Unknown codes are accepted and
// ignored so the endpoint cannot be used to enumerate codes.
func AffiliateClick(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("affiliate service"))
			return
		}
		code, err := validators.PathParam(r, "code", 32)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.TrackClick(r.Context(), code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

type affiliateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected pending"`
}

func AdminUpdateAffiliateStatus(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("affiliate service"))
			return
		}
		affiliateID, err := validators.ParseUUIDParam(r, "affiliateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload affiliateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		affiliate, err := svc.UpdateStatus(r.Context(), affiliateID, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, affiliate)
	}
}
