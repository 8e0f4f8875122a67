package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastlyapp/feastly-backend/internal/menu"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/pagination"
)

const maxCommentLength = 1000

// Service exposes review submission and listing.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Review, error)
	ListByItem(ctx context.Context, menuItemID uuid.UUID, limit int, cursor string) ([]models.Review, string, error)
}

// SubmitInput is the review creation payload.
type SubmitInput struct {
	MenuItemID uuid.UUID
	Rating     int
	Comment    string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo              Repository
	menuRepo          menu.Repository
	tx                txRunner
	logg              *logger.Logger
	isUniqueViolation func(error) bool
}

// ServiceParams bundles the dependencies required to build a reviews service.
type ServiceParams struct {
	Repo              Repository
	MenuRepo          menu.Repository
	Tx                txRunner
	Logger            *logger.Logger
	IsUniqueViolation func(error) bool
}

// NewService constructs a reviews service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reviews repository is required")
	}
	if params.MenuRepo == nil {
		return nil, fmt.Errorf("menu repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.IsUniqueViolation == nil {
		return nil, fmt.Errorf("unique violation predicate is required")
	}
	return &service{
		repo:              params.Repo,
		menuRepo:          params.MenuRepo,
		tx:                params.Tx,
		logg:              params.Logger,
		isUniqueViolation: params.IsUniqueViolation,
	}, nil
}

// Submit records a rating and folds the recomputed aggregate onto the menu
// item in the same transaction, so the denormalized average never drifts from
// the review rows.
func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Review, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.MenuItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(input.Comment)
	if len(comment) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment is too long")
	}

	if _, err := s.menuRepo.FindByID(ctx, input.MenuItemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load menu item")
	}

	review := &models.Review{
		ID:         uuid.New(),
		MenuItemID: input.MenuItemID,
		UserID:     userID,
		Rating:     input.Rating,
		Comment:    comment,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, review); err != nil {
			return err
		}
		avg, count, err := repo.Aggregate(ctx, input.MenuItemID)
		if err != nil {
			return err
		}
		return s.menuRepo.WithTx(tx).UpdateRatingAggregate(ctx, input.MenuItemID, roundAvg(avg), count)
	})
	if err != nil {
		if s.isUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return review, nil
}

func (s *service) ListByItem(ctx context.Context, menuItemID uuid.UUID, limit int, cursor string) ([]models.Review, string, error) {
	if menuItemID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListByItem(ctx, menuItemID, limit, parsed)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	if next == nil {
		return rows, "", nil
	}
	return rows, pagination.EncodeCursor(*next), nil
}

// roundAvg keeps the stored average at two decimal places.
func roundAvg(avg float64) float64 {
	return math.Round(avg*100) / 100
}
