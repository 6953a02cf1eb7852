package controllers

import (
	"net/http"

	"github.com/shopsphere/shopsphere-backend/api/responses"
	"github.com/shopsphere/shopsphere-backend/internal/assignment"
	"github.com/shopsphere/shopsphere-backend/internal/orders"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
)

// AdminUnassignedOrders lists paid, packed orders that still need a
// delivery agent.
func AdminUnassignedOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		list, err := svc.UnassignedOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]orderResponse, 0, len(list))
		for i := range list {
			resp = append(resp, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminOrderDetail returns the full order view regardless of owner.
func AdminOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Detail(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminAssignOrder runs tiered auto-assignment for one order on demand,
// typically after an earlier attempt found no agent.
func AdminAssignOrder(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		adminID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AutoAssign(r.Context(), orderID, adminID)
		if err != nil {
			// An empty agent pool is a normal outcome of the trigger, not a
			// request failure. The order stays packed for a later retry.
			if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNoAgentAvailable {
				responses.WriteSuccess(w, map[string]any{
					"assigned": false,
					"message":  appErr.Message(),
				})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := map[string]any{
			"assignment":       newAssignmentResponse(result.Assignment),
			"agent_name":       result.AgentName,
			"already_assigned": result.AlreadyAssigned,
		}
		if !result.AlreadyAssigned {
			resp["tier"] = result.Tier
			if result.DistanceKM > 0 {
				resp["distance_km"] = result.DistanceKM
			}
		}
		responses.WriteSuccess(w, resp)
	}
}
