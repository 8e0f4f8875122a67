package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/feastlyapp/feastly-backend/pkg/enums"
)

// MenuItem is one purchasable catalog entry. Prices are stored in cents;
// RatingAvg/RatingCount are denormalized aggregates maintained by the
// reviews service.
type MenuItem struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	Description string             `gorm:"column:description"`
	PriceCents  int                `gorm:"column:price_cents;not null"`
	ImageURL    string             `gorm:"column:image_url"`
	Category    enums.MenuCategory `gorm:"column:category;not null"`
	Tags        pq.StringArray     `gorm:"column:tags;type:text[]"`
	Popular     bool               `gorm:"column:popular;not null;default:false"`
	PrepMinutes int                `gorm:"column:prep_minutes;not null;default:15"`
	Available   bool               `gorm:"column:available;not null;default:true"`
	RatingAvg   float64            `gorm:"column:rating_avg;not null;default:0"`
	RatingCount int                `gorm:"column:rating_count;not null;default:0"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
