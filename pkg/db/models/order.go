package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastlyapp/feastly-backend/pkg/enums"
)

// Order snapshots a submitted cart: line items plus the derived totals frozen
// at checkout time. Status advances along the tracking lifecycle.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Number           string            `gorm:"column:number;uniqueIndex;not null"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'placed'"`
	SubtotalCents    int               `gorm:"column:subtotal_cents;not null"`
	TaxCents         int               `gorm:"column:tax_cents;not null"`
	DeliveryFeeCents int               `gorm:"column:delivery_fee_cents;not null"`
	DiscountCents    int               `gorm:"column:discount_cents;not null"`
	TotalCents       int               `gorm:"column:total_cents;not null"`
	OfferCode        *string           `gorm:"column:offer_code"`
	DeliveryAddress  string            `gorm:"column:delivery_address"`
	Items            []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusChangedAt  time.Time         `gorm:"column:status_changed_at;not null"`
	CanceledAt       *time.Time        `gorm:"column:canceled_at"`
	DeliveredAt      *time.Time        `gorm:"column:delivered_at"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
