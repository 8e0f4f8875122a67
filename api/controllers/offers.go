package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/api/responses"
	"github.com/feastlyapp/feastly-backend/api/validators"
	"github.com/feastlyapp/feastly-backend/internal/cart"
	"github.com/feastlyapp/feastly-backend/internal/offers"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
)

type offerView struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Type        enums.OfferType `json:"type"`
	Value       int             `json:"value"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	Active      bool            `json:"active"`
	StartsAt    *time.Time      `json:"starts_at,omitempty"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
}

type offerValidationResponse struct {
	Offer    offerView       `json:"offer"`
	Discount decimal.Decimal `json:"discount"`
}

type createOfferRequest struct {
	Code             string     `json:"code" validate:"required,min=3,max=40"`
	Title            string     `json:"title" validate:"required,min=3,max=200"`
	Description      string     `json:"description" validate:"max=2000"`
	Type             string     `json:"type" validate:"required,oneof=percent fixed"`
	Value            int        `json:"value" validate:"required,min=1"`
	MinSubtotalCents int        `json:"min_subtotal_cents" validate:"min=0"`
	StartsAt         *time.Time `json:"starts_at"`
	EndsAt           *time.Time `json:"ends_at"`
}

func newOfferView(offer *models.Offer) offerView {
	return offerView{
		ID:          offer.ID,
		Code:        offer.Code,
		Title:       offer.Title,
		Description: offer.Description,
		Type:        offer.Type,
		Value:       offer.Value,
		MinSubtotal: moneyFromCents(offer.MinSubtotalCents),
		Active:      offer.Active,
		StartsAt:    offer.StartsAt,
		EndsAt:      offer.EndsAt,
	}
}

// ListOffers returns the currently redeemable offers.
func ListOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]offerView, 0, len(rows))
		for i := range rows {
			views = append(views, newOfferView(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"offers": views})
	}
}

// ValidateOffer checks a code against the caller's current cart subtotal.
func ValidateOffer(svc offers.Service, carts *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code := validators.QueryString(r, "code", 40)
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code is required"))
			return
		}

		_, totals, err := carts.Get(r.Context(), userID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subtotalCents := int(totals.Subtotal.Mul(decimal.NewFromInt(100)).Round(0).IntPart())

		validation, err := svc.ValidateCode(r.Context(), code, subtotalCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offerValidationResponse{
			Offer:    newOfferView(validation.Offer),
			Discount: moneyFromCents(validation.DiscountCents),
		})
	}
}

// CreateOffer registers a promo code. Admin surface.
func CreateOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOfferRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Create(r.Context(), offers.CreateOfferInput{
			Code:             req.Code,
			Title:            req.Title,
			Description:      req.Description,
			Type:             enums.OfferType(req.Type),
			Value:            req.Value,
			MinSubtotalCents: req.MinSubtotalCents,
			StartsAt:         req.StartsAt,
			EndsAt:           req.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOfferView(offer))
	}
}

// DeactivateOffer turns a promo code off. Admin surface.
func DeactivateOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// PublishOffer announces an active offer to every user. Admin surface.
func PublishOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sent, err := svc.Publish(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"notified": sent})
	}
}
