package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/pagination"
)

// Service exposes the catalog operations consumed by controllers.
type Service interface {
	List(ctx context.Context, params ListParams) ([]MenuItemDTO, string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*MenuItemDTO, error)
	Create(ctx context.Context, input CreateMenuItemInput) (*MenuItemDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateMenuItemInput) (*MenuItemDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService constructs a menu service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]MenuItemDTO, string, error) {
	if params.Category != nil && !params.Category.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "unknown menu category")
	}

	items, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list menu items")
	}

	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return FromModels(items), nextCursor, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*MenuItemDTO, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

func (s *service) Create(ctx context.Context, input CreateMenuItemInput) (*MenuItemDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown menu category")
	}

	item := &models.MenuItem{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		ImageURL:    input.ImageURL,
		Category:    input.Category,
		Tags:        TagsFromStrings(input.Tags),
		Popular:     input.Popular,
		PrepMinutes: input.PrepMinutes,
		Available:   true,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create menu item")
	}
	return FromModel(item), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateMenuItemInput) (*MenuItemDTO, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		item.Name = name
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		item.PriceCents = *input.PriceCents
	}
	if input.ImageURL != nil {
		item.ImageURL = *input.ImageURL
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown menu category")
		}
		item.Category = *input.Category
	}
	if input.Tags != nil {
		item.Tags = TagsFromStrings(input.Tags)
	}
	if input.Popular != nil {
		item.Popular = *input.Popular
	}
	if input.PrepMinutes != nil {
		item.PrepMinutes = *input.PrepMinutes
	}
	if input.Available != nil {
		item.Available = *input.Available
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update menu item")
	}
	return FromModel(item), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete menu item")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	return nil
}

func (s *service) loadItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load menu item")
	}
	return item, nil
}
