package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/api/middleware"
	"github.com/feastlyapp/feastly-backend/api/responses"
	"github.com/feastlyapp/feastly-backend/api/validators"
	"github.com/feastlyapp/feastly-backend/internal/cart"
	"github.com/feastlyapp/feastly-backend/internal/menu"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/types"
)

type addCartItemRequest struct {
	MenuItemID     string               `json:"menu_item_id" validate:"required,uuid"`
	Quantity       int                  `json:"quantity" validate:"required,min=1,max=50"`
	Customizations types.Customizations `json:"customizations"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=50"`
}

type cartLineView struct {
	LineID         string               `json:"line_id"`
	MenuItemID     string               `json:"menu_item_id"`
	Name           string               `json:"name"`
	Price          decimal.Decimal      `json:"price"`
	Quantity       int                  `json:"quantity"`
	Customizations types.Customizations `json:"customizations,omitempty"`
}

type cartTotalsView struct {
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

type cartView struct {
	Items  []cartLineView `json:"items"`
	Totals cartTotalsView `json:"totals"`
}

func newCartView(state cart.State, totals cart.Totals) cartView {
	items := make([]cartLineView, 0, len(state.Items))
	for _, line := range state.Items {
		items = append(items, cartLineView{
			LineID:         line.LineID,
			MenuItemID:     line.ItemID,
			Name:           line.Name,
			Price:          line.Price,
			Quantity:       line.Quantity,
			Customizations: line.Customizations,
		})
	}
	return cartView{
		Items: items,
		Totals: cartTotalsView{
			ItemCount:   totals.ItemCount,
			Subtotal:    totals.Subtotal,
			Tax:         totals.Tax,
			DeliveryFee: totals.DeliveryFee,
			Discount:    totals.Discount,
			Total:       totals.Total,
		},
	}
}

// GetCart returns the caller's cart with derived totals.
func GetCart(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		state, totals, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state, totals))
	}
}

// AddCartItem snapshots a menu item into the caller's cart.
func AddCartItem(svc *cart.Service, catalog menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		menuItemID, err := uuid.Parse(req.MenuItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid menu item id"))
			return
		}
		item, err := catalog.GetByID(r.Context(), menuItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !item.Available {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "menu item is unavailable"))
			return
		}

		state, totals, err := svc.AddItem(r.Context(), userID, cart.CatalogItem{
			ID:    item.ID.String(),
			Name:  item.Name,
			Price: item.Price,
		}, req.Quantity, req.Customizations)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state, totals))
	}
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func UpdateCartItem(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		lineID := chi.URLParam(r, "lineID")
		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, totals, err := svc.UpdateQuantity(r.Context(), userID, lineID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state, totals))
	}
}

// RemoveCartItem deletes a line from the caller's cart.
func RemoveCartItem(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		lineID := chi.URLParam(r, "lineID")
		state, totals, err := svc.RemoveItem(r.Context(), userID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state, totals))
	}
}

// ClearCart empties the caller's cart.
func ClearCart(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		state, totals, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state, totals))
	}
}
