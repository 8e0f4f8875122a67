package menu

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
)

// MenuItemDTO is the transport shape for a catalog entry. Price is exposed as
// a decimal amount; storage keeps cents.
type MenuItemDTO struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       decimal.Decimal    `json:"price"`
	ImageURL    string             `json:"image_url"`
	Category    enums.MenuCategory `json:"category"`
	Tags        []string           `json:"tags"`
	Popular     bool               `json:"popular"`
	PrepMinutes int                `json:"prep_minutes"`
	Available   bool               `json:"available"`
	RatingAvg   float64            `json:"rating_avg"`
	RatingCount int                `json:"rating_count"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CreateMenuItemInput carries the admin payload to add a catalog entry.
type CreateMenuItemInput struct {
	Name        string
	Description string
	PriceCents  int
	ImageURL    string
	Category    enums.MenuCategory
	Tags        []string
	Popular     bool
	PrepMinutes int
}

// UpdateMenuItemInput applies a partial update; nil fields stay untouched.
type UpdateMenuItemInput struct {
	Name        *string
	Description *string
	PriceCents  *int
	ImageURL    *string
	Category    *enums.MenuCategory
	Tags        []string
	Popular     *bool
	PrepMinutes *int
	Available   *bool
}

// PriceFromCents converts a stored cents amount into the transport decimal.
func PriceFromCents(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

func FromModel(m *models.MenuItem) *MenuItemDTO {
	if m == nil {
		return nil
	}
	tags := make([]string, len(m.Tags))
	copy(tags, m.Tags)
	return &MenuItemDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       PriceFromCents(m.PriceCents),
		ImageURL:    m.ImageURL,
		Category:    m.Category,
		Tags:        tags,
		Popular:     m.Popular,
		PrepMinutes: m.PrepMinutes,
		Available:   m.Available,
		RatingAvg:   m.RatingAvg,
		RatingCount: m.RatingCount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromModels(items []models.MenuItem) []MenuItemDTO {
	out := make([]MenuItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
