package controllers

import (
	"net/http"
	"strings"

	"github.com/campus-kds/canteen-backend/api/responses"
	"github.com/campus-kds/canteen-backend/api/validators"
	ordersvc "github.com/campus-kds/canteen-backend/internal/orders"
	"github.com/campus-kds/canteen-backend/internal/stats"
	"github.com/campus-kds/canteen-backend/pkg/enums"
	pkgerrors "github.com/campus-kds/canteen-backend/pkg/errors"
	"github.com/campus-kds/canteen-backend/pkg/logger"
)

const (
	maxOrderListLimit  = 200
	defaultSeedRequest = 0
	maxSeedRequest     = 20
)

// OrdersList returns orders newest first, optionally filtered by
// status and student name.
func OrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		filters := ordersvc.ListFilters{
			StudentName: strings.TrimSpace(r.URL.Query().Get("studentName")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxOrderListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Limit = limit

		orders, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders)
	}
}

// OrderGet fetches one order with its line items.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type createOrderLineItemRequest struct {
	Name     string  `json:"name" validate:"required"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Notes    *string `json:"notes,omitempty"`
}

type createOrderRequest struct {
	Items         []createOrderLineItemRequest `json:"items" validate:"required,min=1,dive"`
	StudentName   string                       `json:"studentName" validate:"required"`
	TableNumber   *string                      `json:"tableNumber,omitempty"`
	PaymentMethod string                       `json:"paymentMethod,omitempty"`
	Priority      string                       `json:"priority,omitempty"`
	TotalAmount   float64                      `json:"totalAmount" validate:"gte=0"`
	Notes         *string                      `json:"notes,omitempty"`
	TokenNumber   int64                        `json:"tokenNumber,omitempty" validate:"gte=0"`
}

// OrderCreate places a new order and assigns its token number.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.CreateOrderInput{
			StudentName:   payload.StudentName,
			TableNumber:   payload.TableNumber,
			PaymentMethod: payload.PaymentMethod,
			Priority:      payload.Priority,
			TotalAmount:   payload.TotalAmount,
			Notes:         payload.Notes,
			TokenNumber:   payload.TokenNumber,
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, ordersvc.LineItemInput{
				Name:     item.Name,
				Quantity: item.Quantity,
				Notes:    item.Notes,
			})
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type seedOrdersRequest struct {
	Count int `json:"count" validate:"gte=0,lte=20"`
}

// OrderSetStatus moves an order through its lifecycle.
func OrderSetStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.SetStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// DashboardStats reports today's revenue, top sellers and the favorite
// category for the kitchen dashboard.
func DashboardStats(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}

		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dashboard)
	}
}

// OrdersSeed inserts demo orders. count comes from the request body,
// falling back to the query string; it defaults when omitted and is
// capped server-side.
func OrdersSeed(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		count, err := validators.ParseQueryInt(r, "count", defaultSeedRequest, 0, maxSeedRequest)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if r.ContentLength != 0 {
			var req seedOrdersRequest
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if req.Count > 0 {
				count = req.Count
			}
		}

		orders, err := svc.Seed(r.Context(), count)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orders)
	}
}
