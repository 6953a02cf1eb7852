package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shopsphere/shopsphere-backend/api/responses"
	"github.com/shopsphere/shopsphere-backend/api/validators"
	"github.com/shopsphere/shopsphere-backend/internal/delivery"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
)

// AgentAssignments lists the agent's delivery assignments, optionally
// filtered by a comma separated status query.
func AgentAssignments(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		agentUserID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var statuses []enums.AssignmentStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				status := enums.AssignmentStatus(strings.TrimSpace(part))
				if !status.IsValid() {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid assignment status").WithDetails(map[string]any{"status": string(status)}))
					return
				}
				statuses = append(statuses, status)
			}
		}

		assignments, err := svc.ListMine(r.Context(), agentUserID, statuses)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]assignmentResponse, 0, len(assignments))
		for i := range assignments {
			resp = append(resp, newAssignmentResponse(&assignments[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// AgentAccept confirms the agent is taking the assignment.
func AgentAccept(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(svc, logg, func(r *http.Request, assignmentID, agentUserID uuid.UUID) (any, error) {
		a, err := svc.Accept(r.Context(), assignmentID, agentUserID)
		if err != nil {
			return nil, err
		}
		return newAssignmentResponse(a), nil
	})
}

// AgentPickup records the parcel leaving the vendor.
func AgentPickup(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(svc, logg, func(r *http.Request, assignmentID, agentUserID uuid.UUID) (any, error) {
		a, err := svc.Pickup(r.Context(), assignmentID, agentUserID)
		if err != nil {
			return nil, err
		}
		return newAssignmentResponse(a), nil
	})
}

// AgentStartTransit marks the delivery as on the road.
func AgentStartTransit(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(svc, logg, func(r *http.Request, assignmentID, agentUserID uuid.UUID) (any, error) {
		a, err := svc.StartTransit(r.Context(), assignmentID, agentUserID)
		if err != nil {
			return nil, err
		}
		return newAssignmentResponse(a), nil
	})
}

// AgentNearby issues the delivery OTP once the agent is close to the
// drop-off point. Coordinates are optional; when present they are
// checked against the configured radius.
func AgentNearby(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		agentUserID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignmentID, err := pathUUID(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload nearbyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.TriggerNearby(r.Context(), assignmentID, agentUserID, payload.Latitude, payload.Longitude)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"order_status":       string(result.OrderStatus),
			"otp_sent_via_email": result.OTPSentViaEmail,
		})
	}
}

// AgentVerifyOTP completes the delivery when the customer's code matches.
func AgentVerifyOTP(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		agentUserID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignmentID, err := pathUUID(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		a, err := svc.VerifyOTP(r.Context(), assignmentID, agentUserID, payload.OTP)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAssignmentResponse(a))
	}
}

// AgentFail abandons the delivery and frees the agent; the order drops
// back to packed for re-assignment.
func AgentFail(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		agentUserID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignmentID, err := pathUUID(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload failRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		a, err := svc.Fail(r.Context(), assignmentID, agentUserID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAssignmentResponse(a))
	}
}

func agentTransition(svc delivery.Service, logg *logger.Logger, apply func(r *http.Request, assignmentID, agentUserID uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		agentUserID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignmentID, err := pathUUID(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := apply(r, assignmentID, agentUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type nearbyRequest struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

type verifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6"`
}

type failRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
