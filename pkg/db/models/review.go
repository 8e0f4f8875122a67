package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is one rating per user per menu item, enforced by the composite
// unique index. The aggregate lives denormalized on MenuItem.
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	MenuItemID uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null;uniqueIndex:idx_reviews_item_user"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reviews_item_user"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    string    `gorm:"column:comment"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
