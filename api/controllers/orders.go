package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/api/middleware"
	"github.com/feastlyapp/feastly-backend/api/responses"
	"github.com/feastlyapp/feastly-backend/api/validators"
	"github.com/feastlyapp/feastly-backend/internal/orders"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/types"
)

type checkoutRequest struct {
	DeliveryAddress string `json:"delivery_address" validate:"required,min=5,max=500"`
	OfferCode       string `json:"offer_code" validate:"omitempty,max=40"`
}

type orderLineView struct {
	ID             uuid.UUID            `json:"id"`
	MenuItemID     uuid.UUID            `json:"menu_item_id"`
	Name           string               `json:"name"`
	Price          decimal.Decimal      `json:"price"`
	Quantity       int                  `json:"quantity"`
	Customizations types.Customizations `json:"customizations,omitempty"`
}

type orderView struct {
	ID              uuid.UUID         `json:"id"`
	Number          string            `json:"number"`
	Status          enums.OrderStatus `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Tax             decimal.Decimal   `json:"tax"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	Discount        decimal.Decimal   `json:"discount"`
	Total           decimal.Decimal   `json:"total"`
	OfferCode       *string           `json:"offer_code,omitempty"`
	DeliveryAddress string            `json:"delivery_address"`
	Items           []orderLineView   `json:"items,omitempty"`
	StatusChangedAt time.Time         `json:"status_changed_at"`
	CanceledAt      *time.Time        `json:"canceled_at,omitempty"`
	DeliveredAt     *time.Time        `json:"delivered_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

type orderListResponse struct {
	Orders []orderView `json:"orders"`
	Cursor string      `json:"cursor"`
}

func moneyFromCents(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

func newOrderView(order *models.Order) orderView {
	view := orderView{
		ID:              order.ID,
		Number:          order.Number,
		Status:          order.Status,
		Subtotal:        moneyFromCents(order.SubtotalCents),
		Tax:             moneyFromCents(order.TaxCents),
		DeliveryFee:     moneyFromCents(order.DeliveryFeeCents),
		Discount:        moneyFromCents(order.DiscountCents),
		Total:           moneyFromCents(order.TotalCents),
		OfferCode:       order.OfferCode,
		DeliveryAddress: order.DeliveryAddress,
		StatusChangedAt: order.StatusChangedAt,
		CanceledAt:      order.CanceledAt,
		DeliveredAt:     order.DeliveredAt,
		CreatedAt:       order.CreatedAt,
	}
	for _, line := range order.Items {
		view.Items = append(view.Items, orderLineView{
			ID:             line.ID,
			MenuItemID:     line.MenuItemID,
			Name:           line.Name,
			Price:          moneyFromCents(line.PriceCents),
			Quantity:       line.Quantity,
			Customizations: line.Customizations,
		})
	}
	return view
}

func newOrderListResponse(rows []models.Order, cursor string) orderListResponse {
	resp := orderListResponse{Orders: make([]orderView, 0, len(rows)), Cursor: cursor}
	for i := range rows {
		resp.Orders = append(resp.Orders, newOrderView(&rows[i]))
	}
	return resp
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	return id, nil
}

func callerIsAdmin(r *http.Request) bool {
	return middleware.RoleFromContext(r.Context()) == string(enums.UserRoleAdmin)
}

// Checkout freezes the caller's cart into an order.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Submit(r.Context(), userID, orders.SubmitInput{
			DeliveryAddress: req.DeliveryAddress,
			OfferCode:       req.OfferCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}

// ListMyOrders returns the caller's order history, newest first.
func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, cursor, err := svc.ListByUser(r.Context(), userID, limit, validators.QueryString(r, "cursor", 512))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(rows, cursor))
	}
}

// GetOrder returns one order; customers only see their own.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetByID(r.Context(), userID, orderID, callerIsAdmin(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// CancelOrder stops an order that has not entered preparation.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Cancel(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// ListAllOrders returns every order. Admin surface.
func ListAllOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, cursor, err := svc.ListAll(r.Context(), limit, validators.QueryString(r, "cursor", 512))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(rows, cursor))
	}
}

// AdvanceOrder moves an order one step along the lifecycle. Admin surface.
func AdvanceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.AdvanceStatus(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}
