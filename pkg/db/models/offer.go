package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastlyapp/feastly-backend/pkg/enums"
)

// Offer is a promo code. Percent offers carry a percentage value, fixed offers
// an amount in cents. MinSubtotalCents gates eligibility at validation time.
type Offer struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Code             string          `gorm:"column:code;uniqueIndex;not null"`
	Title            string          `gorm:"column:title;not null"`
	Description      string          `gorm:"column:description"`
	Type             enums.OfferType `gorm:"column:type;not null"`
	Value            int             `gorm:"column:value;not null"`
	MinSubtotalCents int             `gorm:"column:min_subtotal_cents;not null;default:0"`
	Active           bool            `gorm:"column:active;not null;default:true"`
	StartsAt         *time.Time      `gorm:"column:starts_at"`
	EndsAt           *time.Time      `gorm:"column:ends_at"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
