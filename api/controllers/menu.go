package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/feastlyapp/feastly-backend/api/responses"
	"github.com/feastlyapp/feastly-backend/api/validators"
	"github.com/feastlyapp/feastly-backend/internal/menu"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/pagination"
)

type menuListResponse struct {
	Items  []menu.MenuItemDTO `json:"items"`
	Cursor string             `json:"cursor"`
}

type createMenuItemRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	PriceCents  int      `json:"price_cents" validate:"required,min=0"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
	Category    string   `json:"category" validate:"required"`
	Tags        []string `json:"tags" validate:"omitempty,dive,min=1,max=40"`
	Popular     bool     `json:"popular"`
	PrepMinutes int      `json:"prep_minutes" validate:"omitempty,min=1,max=240"`
}

type updateMenuItemRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	PriceCents  *int     `json:"price_cents" validate:"omitempty,min=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags" validate:"omitempty,dive,min=1,max=40"`
	Popular     *bool    `json:"popular"`
	PrepMinutes *int     `json:"prep_minutes" validate:"omitempty,min=1,max=240"`
	Available   *bool    `json:"available"`
}

// ListMenu returns the paginated catalog with optional filters.
func ListMenu(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		popular, err := validators.ParseQueryBool(r, "popular")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		available, err := validators.ParseQueryBool(r, "available")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := pagination.ParseCursor(validators.QueryString(r, "cursor", 512))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		params := menu.ListParams{
			PopularOnly:   popular,
			AvailableOnly: available,
			Search:        validators.QueryString(r, "search", 200),
			Limit:         limit,
			Cursor:        cursor,
		}
		if raw := validators.QueryString(r, "category", 40); raw != "" {
			category := enums.MenuCategory(raw)
			params.Category = &category
		}

		items, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menuListResponse{Items: items, Cursor: next})
	}
}

// GetMenuItem returns a single catalog entry.
func GetMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// CreateMenuItem adds a catalog entry. Admin surface.
func CreateMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMenuItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Create(r.Context(), menu.CreateMenuItemInput{
			Name:        req.Name,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			ImageURL:    req.ImageURL,
			Category:    enums.MenuCategory(req.Category),
			Tags:        req.Tags,
			Popular:     req.Popular,
			PrepMinutes: req.PrepMinutes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// UpdateMenuItem applies a partial update to a catalog entry. Admin surface.
func UpdateMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateMenuItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := menu.UpdateMenuItemInput{
			Name:        req.Name,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			ImageURL:    req.ImageURL,
			Tags:        req.Tags,
			Popular:     req.Popular,
			PrepMinutes: req.PrepMinutes,
			Available:   req.Available,
		}
		if req.Category != nil {
			category := enums.MenuCategory(*req.Category)
			input.Category = &category
		}
		item, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// DeleteMenuItem removes a catalog entry. Admin surface.
func DeleteMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// pathUUID pulls and parses a uuid path parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
