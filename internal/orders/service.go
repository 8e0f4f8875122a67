package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/feastlyapp/feastly-backend/internal/cart"
	"github.com/feastlyapp/feastly-backend/internal/notifications"
	"github.com/feastlyapp/feastly-backend/internal/offers"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/pagination"
)

// Service exposes checkout and order tracking operations.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Order, error)
	GetByID(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, admin bool) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor string) ([]models.Order, string, error)
	ListAll(ctx context.Context, limit int, cursor string) ([]models.Order, string, error)
	Cancel(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*models.Order, error)
	AdvanceStatus(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	AdvanceStale(ctx context.Context, cutoff time.Time) (int, error)
}

// SubmitInput is the checkout payload.
type SubmitInput struct {
	DeliveryAddress string
	OfferCode       string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartAccess interface {
	Get(ctx context.Context, userID string) (cart.State, cart.Totals, error)
	Clear(ctx context.Context, userID string) (cart.State, cart.Totals, error)
}

type offerValidator interface {
	ValidateCode(ctx context.Context, code string, subtotalCents int) (*offers.Validation, error)
}

type notifier interface {
	Emit(ctx context.Context, input notifications.EmitInput) error
}

type service struct {
	repo   Repository
	tx     txRunner
	cart   cartAccess
	offers offerValidator
	notify notifier
	logg   *logger.Logger
	nowFn  func() time.Time
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Cart     cartAccess
	Offers   offerValidator
	Notifier notifier
	Logger   *logger.Logger
}

// NewService constructs an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart access is required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offer validator is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		cart:   params.Cart,
		offers: params.Offers,
		notify: params.Notifier,
		logg:   params.Logger,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// centsFromDecimal converts a decimal money amount to integer cents.
func centsFromDecimal(d decimal.Decimal) int {
	return int(d.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// generateOrderNumber builds a short human-readable order reference.
func generateOrderNumber() string {
	return "FST-" + strings.ToUpper(uuid.NewString()[:8])
}

// Submit freezes the current cart into an order. Line items and totals are
// snapshotted so later menu edits never rewrite order history. On success the
// cart is cleared and a feed entry is emitted; both are best-effort.
func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	address := strings.TrimSpace(input.DeliveryAddress)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}

	state, totals, err := s.cart.Get(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	if len(state.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotalCents := centsFromDecimal(totals.Subtotal)
	taxCents := centsFromDecimal(totals.Tax)
	feeCents := centsFromDecimal(totals.DeliveryFee)
	discountCents := centsFromDecimal(totals.Discount)

	var offerCode *string
	if code := strings.TrimSpace(input.OfferCode); code != "" {
		validation, err := s.offers.ValidateCode(ctx, code, subtotalCents)
		if err != nil {
			return nil, err
		}
		discountCents += validation.DiscountCents
		normalized := validation.Offer.Code
		offerCode = &normalized
	}

	totalCents := subtotalCents + taxCents + feeCents - discountCents
	if totalCents < 0 {
		totalCents = 0
	}

	now := s.nowFn()
	order := &models.Order{
		ID:               uuid.New(),
		Number:           generateOrderNumber(),
		UserID:           userID,
		Status:           enums.OrderStatusPlaced,
		SubtotalCents:    subtotalCents,
		TaxCents:         taxCents,
		DeliveryFeeCents: feeCents,
		DiscountCents:    discountCents,
		TotalCents:       totalCents,
		OfferCode:        offerCode,
		DeliveryAddress:  address,
		StatusChangedAt:  now,
	}

	for _, line := range state.Items {
		menuItemID, err := uuid.Parse(line.ItemID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart references an unknown menu item")
		}
		order.Items = append(order.Items, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			MenuItemID:     menuItemID,
			Name:           line.Name,
			PriceCents:     centsFromDecimal(line.Price),
			Quantity:       line.Quantity,
			Customizations: line.Customizations,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	// the order is committed; cart clear and feed entry are best-effort
	if _, _, err := s.cart.Clear(ctx, userID.String()); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "clearing cart after checkout failed")
	}
	s.emit(ctx, order, enums.NotificationKindOrderPlaced, "Order placed",
		fmt.Sprintf("Order %s has been placed. We'll keep you posted.", order.Number))

	return order, nil
}

func (s *service) GetByID(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, admin bool) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !admin && order.UserID != userID {
		// scoped lookups must not reveal whether the order exists
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor string) ([]models.Order, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, limit, parsed)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, encodeCursor(next), nil
}

func (s *service) ListAll(ctx context.Context, limit int, cursor string) ([]models.Order, string, error) {
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListAll(ctx, limit, parsed)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, encodeCursor(next), nil
}

// Cancel stops an order that the kitchen has not started preparing. Later
// stages reject cancellation with a state conflict.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(ctx, userID, orderID, false)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanCancel() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order can no longer be canceled (status %s)", order.Status))
	}

	now := s.nowFn()
	order.Status = enums.OrderStatusCanceled
	order.StatusChangedAt = now
	order.CanceledAt = &now
	if err := s.repo.UpdateStatus(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}

	s.emit(ctx, order, enums.NotificationKindOrderCanceled, "Order canceled",
		fmt.Sprintf("Order %s has been canceled.", order.Number))
	return order, nil
}

// AdvanceStatus moves an order one step along the tracking lifecycle.
func (s *service) AdvanceStatus(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.advance(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// AdvanceStale advances every in-flight order that has sat in its current
// status past the cutoff. Returns how many orders moved.
func (s *service) AdvanceStale(ctx context.Context, cutoff time.Time) (int, error) {
	orders, err := s.repo.ListInFlightOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stale orders")
	}

	advanced := 0
	var errs []error
	for i := range orders {
		if err := s.advance(ctx, &orders[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		advanced++
	}
	return advanced, multierr.Combine(errs...)
}

func (s *service) advance(ctx context.Context, order *models.Order) error {
	next, ok := order.Status.Next()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is already %s", order.Status))
	}

	now := s.nowFn()
	order.Status = next
	order.StatusChangedAt = now
	if next == enums.OrderStatusDelivered {
		order.DeliveredAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance order status")
	}

	s.emit(ctx, order, enums.NotificationKindOrderStatus, "Order update",
		fmt.Sprintf("Order %s is now %s.", order.Number, statusLabel(next)))
	return nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) emit(ctx context.Context, order *models.Order, kind enums.NotificationKind, title, body string) {
	orderID := order.ID
	err := s.notify.Emit(ctx, notifications.EmitInput{
		UserID:  order.UserID,
		Kind:    kind,
		Title:   title,
		Body:    body,
		OrderID: &orderID,
	})
	if err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "emitting order notification failed")
	}
}

func encodeCursor(cursor *pagination.Cursor) string {
	if cursor == nil {
		return ""
	}
	return pagination.EncodeCursor(*cursor)
}

var statusLabels = map[enums.OrderStatus]string{
	enums.OrderStatusPlaced:         "placed",
	enums.OrderStatusConfirmed:      "confirmed",
	enums.OrderStatusPreparing:      "being prepared",
	enums.OrderStatusOutForDelivery: "out for delivery",
	enums.OrderStatusDelivered:      "delivered",
	enums.OrderStatusCanceled:       "canceled",
}

func statusLabel(status enums.OrderStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}
