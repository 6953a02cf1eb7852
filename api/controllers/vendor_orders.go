package controllers

import (
	"net/http"

	"github.com/shopsphere/shopsphere-backend/api/responses"
	"github.com/shopsphere/shopsphere-backend/api/validators"
	"github.com/shopsphere/shopsphere-backend/internal/orders"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
	"github.com/shopsphere/shopsphere-backend/pkg/pagination"
)

// VendorOrderAction applies approve, reject or pack to one order on
// behalf of the vendor. Packing triggers delivery auto-assignment; the
// outcome is reported in assignment_note without failing the request.
func VendorOrderAction(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorUserID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload vendorActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VendorAction(r.Context(), orderID, vendorUserID, orders.Action(payload.Action), payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := map[string]any{
			"order": newOrderResponse(result.Order),
		}
		if result.AssignmentNote != "" {
			resp["assignment_note"] = result.AssignmentNote
		}
		responses.WriteSuccess(w, resp)
	}
}

// VendorOrderItems lists the vendor's order lines newest first.
func VendorOrderItems(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorUserID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.VendorItems(r.Context(), vendorUserID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]orderItemResponse, 0, len(items))
		for _, item := range items {
			resp = append(resp, newOrderItemResponse(item))
		}
		responses.WriteSuccess(w, resp)
	}
}

type vendorActionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject pack"`
	Notes  string `json:"notes,omitempty" validate:"omitempty,max=500"`
}
