package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/internal/orders"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
)

type stubOrders struct {
	order *models.Order
	list  []models.Order
	err   error

	submittedBy    uuid.UUID
	submittedInput orders.SubmitInput
}

func (s *stubOrders) Submit(ctx context.Context, userID uuid.UUID, input orders.SubmitInput) (*models.Order, error) {
	s.submittedBy = userID
	s.submittedInput = input
	return s.order, s.err
}

func (s *stubOrders) GetByID(ctx context.Context, userID, orderID uuid.UUID, admin bool) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor string) ([]models.Order, string, error) {
	return s.list, "", s.err
}

func (s *stubOrders) ListAll(ctx context.Context, limit int, cursor string) ([]models.Order, string, error) {
	return s.list, "", s.err
}

func (s *stubOrders) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) AdvanceStatus(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) AdvanceStale(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, s.err
}

func sampleOrder(userID uuid.UUID) *models.Order {
	now := time.Now().UTC()
	return &models.Order{
		ID:               uuid.New(),
		Number:           "FD-1042",
		UserID:           userID,
		Status:           enums.OrderStatusPlaced,
		SubtotalCents:    3000,
		TaxCents:         240,
		DeliveryFeeCents: 599,
		DiscountCents:    599,
		TotalCents:       3240,
		DeliveryAddress:  "1 Demo Street",
		StatusChangedAt:  now,
		CreatedAt:        now,
		Items: []models.OrderLineItem{
			{
				ID:         uuid.New(),
				MenuItemID: uuid.New(),
				Name:       "Family Feast",
				PriceCents: 3000,
				Quantity:   1,
			},
		},
	}
}

func decodeOrderView(t *testing.T, resp *httptest.ResponseRecorder) orderView {
	t.Helper()
	var envelope struct {
		Data orderView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode order view: %v", err)
	}
	return envelope.Data
}

func TestCheckoutCreatesOrder(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrders{order: sampleOrder(userID)}

	body := `{"delivery_address":"1 Demo Street","offer_code":"SAVE10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req = asUser(req, userID, enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.submittedBy != userID {
		t.Fatalf("expected submit for %s got %s", userID, svc.submittedBy)
	}
	if svc.submittedInput.OfferCode != "SAVE10" {
		t.Fatalf("expected offer code forwarded got %q", svc.submittedInput.OfferCode)
	}

	view := decodeOrderView(t, resp)
	if view.Number != "FD-1042" {
		t.Fatalf("unexpected number %s", view.Number)
	}
	if !view.Total.Equal(decimal.New(3240, -2)) {
		t.Fatalf("expected total 32.40 got %s", view.Total)
	}
	if len(view.Items) != 1 || view.Items[0].Name != "Family Feast" {
		t.Fatalf("expected snapshotted line got %+v", view.Items)
	}
}

func TestCheckoutRequiresDeliveryAddress(t *testing.T) {
	svc := &stubOrders{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutRequiresUserContext(t *testing.T) {
	svc := &stubOrders{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout",
		bytes.NewReader([]byte(`{"delivery_address":"1 Demo Street"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user context got %d", resp.Code)
	}
}

func TestGetOrderMapsNotFound(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	router := chi.NewRouter()
	router.Get("/orders/{orderID}", GetOrder(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetOrderRejectsMalformedID(t *testing.T) {
	svc := &stubOrders{}
	router := chi.NewRouter()
	router.Get("/orders/{orderID}", GetOrder(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelOrderSurfacesStateConflict(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order is already preparing")}

	router := chi.NewRouter()
	router.Post("/orders/{orderID}/cancel", CancelOrder(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", nil)
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestListMyOrdersReturnsHistory(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrders{list: []models.Order{*sampleOrder(userID)}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=10", nil)
	req = asUser(req, userID, enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	ListMyOrders(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data orderListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(envelope.Data.Orders) != 1 {
		t.Fatalf("expected one order got %d", len(envelope.Data.Orders))
	}
}

func TestAdvanceOrderReturnsNewStatus(t *testing.T) {
	order := sampleOrder(uuid.New())
	order.Status = enums.OrderStatusConfirmed
	svc := &stubOrders{order: order}

	router := chi.NewRouter()
	router.Post("/orders/{orderID}/advance", AdvanceOrder(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/advance", nil)
	req = asUser(req, uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	view := decodeOrderView(t, resp)
	if view.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed got %s", view.Status)
	}
}
