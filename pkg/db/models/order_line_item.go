package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastlyapp/feastly-backend/pkg/types"
)

// OrderLineItem is a frozen copy of a cart line. Name and price are snapshotted
// so later menu edits never rewrite order history.
type OrderLineItem struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID     uuid.UUID            `gorm:"column:menu_item_id;type:uuid;not null"`
	Name           string               `gorm:"column:name;not null"`
	PriceCents     int                  `gorm:"column:price_cents;not null"`
	Quantity       int                  `gorm:"column:quantity;not null"`
	Customizations types.Customizations `gorm:"column:customizations;type:jsonb"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
}
