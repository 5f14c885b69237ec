package controllers

import (
	"net/http"
	"strings"

	"github.com/campus-kds/canteen-backend/api/responses"
	"github.com/campus-kds/canteen-backend/api/validators"
	menusvc "github.com/campus-kds/canteen-backend/internal/menu"
	"github.com/campus-kds/canteen-backend/pkg/enums"
	pkgerrors "github.com/campus-kds/canteen-backend/pkg/errors"
	"github.com/campus-kds/canteen-backend/pkg/logger"
)

// MenuList returns the student-facing catalog: available items only,
// optionally narrowed to one category.
func MenuList(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		var category *enums.MenuCategory
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			parsed, err := enums.ParseMenuCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			category = &parsed
		}

		items, err := svc.ListAvailable(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// MenuListAll returns the whole catalog including sold-out and hidden
// items, for the kitchen dashboard.
func MenuListAll(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		items, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// MenuGet fetches a single catalog item by id.
func MenuGet(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

type createMenuItemRequest struct {
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Image       *string `json:"image,omitempty"`
	IsAvailable *bool   `json:"isAvailable,omitempty"`
}

// MenuCreate adds a catalog item.
func MenuCreate(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		var payload createMenuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), menusvc.CreateItemInput{
			Name:        payload.Name,
			Price:       payload.Price,
			Category:    payload.Category,
			Stock:       payload.Stock,
			Image:       payload.Image,
			IsAvailable: payload.IsAvailable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type updateMenuItemRequest struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Image       *string  `json:"image,omitempty"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
}

// MenuUpdate applies a partial update to a catalog item.
func MenuUpdate(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateMenuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), id, menusvc.UpdateItemInput{
			Name:        payload.Name,
			Price:       payload.Price,
			Category:    payload.Category,
			Stock:       payload.Stock,
			Image:       payload.Image,
			IsAvailable: payload.IsAvailable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// MenuDelete removes a catalog item and returns the deleted record.
func MenuDelete(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Delete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}
