package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastlyapp/feastly-backend/internal/notifications"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
)

// Service exposes promo offer operations.
type Service interface {
	ListActive(ctx context.Context) ([]models.Offer, error)
	ValidateCode(ctx context.Context, code string, subtotalCents int) (*Validation, error)
	Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Publish(ctx context.Context, id uuid.UUID) (int, error)
}

// Validation is the outcome of checking a code against a cart subtotal.
type Validation struct {
	Offer         *models.Offer `json:"offer"`
	DiscountCents int           `json:"discount_cents"`
}

// CreateOfferInput carries the admin payload for a new offer.
type CreateOfferInput struct {
	Code             string
	Title            string
	Description      string
	Type             enums.OfferType
	Value            int
	MinSubtotalCents int
	StartsAt         *time.Time
	EndsAt           *time.Time
}

type userLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type notifier interface {
	Emit(ctx context.Context, input notifications.EmitInput) error
}

type service struct {
	repo     Repository
	users    userLister
	notify   notifier
	nowFn    func() time.Time
	isDuplic func(error) bool
}

// ServiceParams bundles offer service dependencies.
type ServiceParams struct {
	Repo              Repository
	Users             userLister
	Notifier          notifier
	IsUniqueViolation func(error) bool
}

// NewService constructs the offers service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("offers repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lister is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if params.IsUniqueViolation == nil {
		return nil, fmt.Errorf("unique violation detector is required")
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		notify:   params.Notifier,
		nowFn:    func() time.Time { return time.Now().UTC() },
		isDuplic: params.IsUniqueViolation,
	}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Offer, error) {
	offers, err := s.repo.ListActive(ctx, s.nowFn())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list offers")
	}
	return offers, nil
}

// ValidateCode checks a promo code against the current subtotal and returns
// the discount it would grant. The discount never exceeds the subtotal.
func (s *service) ValidateCode(ctx context.Context, code string, subtotalCents int) (*Validation, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code is required")
	}
	if subtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be non-negative")
	}

	offer, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup offer")
	}

	now := s.nowFn()
	if !offer.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer is no longer active")
	}
	if offer.StartsAt != nil && now.Before(*offer.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer is not active yet")
	}
	if offer.EndsAt != nil && now.After(*offer.EndsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer has expired")
	}
	if subtotalCents < offer.MinSubtotalCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal below offer minimum")
	}

	discount := 0
	switch offer.Type {
	case enums.OfferTypePercent:
		discount = subtotalCents * offer.Value / 100
	case enums.OfferTypeFixed:
		discount = offer.Value
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "offer has unknown type")
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}

	return &Validation{Offer: offer, DiscountCents: discount}, nil
}

func (s *service) Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown offer type")
	}
	if input.Value <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
	}
	if input.Type == enums.OfferTypePercent && input.Value > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent value cannot exceed 100")
	}
	if input.MinSubtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum subtotal must be non-negative")
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer window ends before it starts")
	}

	offer := &models.Offer{
		ID:               uuid.New(),
		Code:             code,
		Title:            strings.TrimSpace(input.Title),
		Description:      strings.TrimSpace(input.Description),
		Type:             input.Type,
		Value:            input.Value,
		MinSubtotalCents: input.MinSubtotalCents,
		Active:           true,
		StartsAt:         input.StartsAt,
		EndsAt:           input.EndsAt,
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		if s.isDuplic(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an offer with this code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create offer")
	}
	return offer, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	offer, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !offer.Active {
		return nil
	}
	offer.Active = false
	if err := s.repo.Update(ctx, offer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate offer")
	}
	return nil
}

// Publish fans the offer out to every account's notification feed and returns
// how many entries were created. Individual emit failures stop the fan-out.
func (s *service) Publish(ctx context.Context, id uuid.UUID) (int, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	if !offer.Active {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot publish an inactive offer")
	}

	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	sent := 0
	for _, userID := range userIDs {
		err := s.notify.Emit(ctx, notifications.EmitInput{
			UserID: userID,
			Kind:   enums.NotificationKindOfferPublished,
			Title:  offer.Title,
			Body:   fmt.Sprintf("Use code %s: %s", offer.Code, offer.Description),
		})
		if err != nil {
			return sent, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit offer notification")
		}
		sent++
	}
	return sent, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load offer")
	}
	return offer, nil
}
