package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastlyapp/feastly-backend/pkg/db/models"
)

// ReviewDTO is the transport representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menuItemId"`
	UserID     uuid.UUID `json:"userId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromModel maps a stored review onto its DTO.
func FromModel(review *models.Review) *ReviewDTO {
	if review == nil {
		return nil
	}
	return &ReviewDTO{
		ID:         review.ID,
		MenuItemID: review.MenuItemID,
		UserID:     review.UserID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}
}

// FromModels maps a review slice onto DTOs, preserving order.
func FromModels(reviews []models.Review) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(reviews))
	for i := range reviews {
		out = append(out, *FromModel(&reviews[i]))
	}
	return out
}
