package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shopsphere/shopsphere-backend/api/responses"
	"github.com/shopsphere/shopsphere-backend/api/validators"
	"github.com/shopsphere/shopsphere-backend/internal/agents"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
	"github.com/shopsphere/shopsphere-backend/pkg/pagination"
)

// AdminListAgents lists delivery agents, optionally filtered by
// approval status.
func AdminListAgents(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		approval := enums.AgentApprovalStatus(strings.TrimSpace(r.URL.Query().Get("approval_status")))

		list, err := svc.List(r.Context(), approval, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]agentResponse, 0, len(list))
		for i := range list {
			resp = append(resp, newAgentResponse(&list[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminAgentDetail returns one agent profile.
func AdminAgentDetail(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents service unavailable"))
			return
		}

		agentID, err := pathUUID(r, "agentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.Get(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAgentResponse(agent))
	}
}

// AdminAgentHistory returns the approval audit trail for one agent.
func AdminAgentHistory(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents service unavailable"))
			return
		}

		agentID, err := pathUUID(r, "agentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		logs, err := svc.History(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]approvalLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, newApprovalLogResponse(log))
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminApproveAgent approves a pending agent.
func AdminApproveAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAgentDecision(svc, logg, func(r *http.Request, svc agents.Service, agentID, adminID uuid.UUID, reason string) (any, error) {
		agent, err := svc.Approve(r.Context(), agentID, adminID)
		if err != nil {
			return nil, err
		}
		return newAgentResponse(agent), nil
	}, false)
}

// AdminRejectAgent rejects a pending agent; a reason is mandatory.
func AdminRejectAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAgentDecision(svc, logg, func(r *http.Request, svc agents.Service, agentID, adminID uuid.UUID, reason string) (any, error) {
		agent, err := svc.Reject(r.Context(), agentID, adminID, reason)
		if err != nil {
			return nil, err
		}
		return newAgentResponse(agent), nil
	}, true)
}

// AdminBlockAgent blocks an agent from new assignments.
func AdminBlockAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAgentDecision(svc, logg, func(r *http.Request, svc agents.Service, agentID, adminID uuid.UUID, reason string) (any, error) {
		agent, err := svc.Block(r.Context(), agentID, adminID, reason)
		if err != nil {
			return nil, err
		}
		return newAgentResponse(agent), nil
	}, true)
}

// AdminUnblockAgent lifts a block.
func AdminUnblockAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return adminAgentDecision(svc, logg, func(r *http.Request, svc agents.Service, agentID, adminID uuid.UUID, reason string) (any, error) {
		agent, err := svc.Unblock(r.Context(), agentID, adminID)
		if err != nil {
			return nil, err
		}
		return newAgentResponse(agent), nil
	}, false)
}

func adminAgentDecision(
	svc agents.Service,
	logg *logger.Logger,
	apply func(r *http.Request, svc agents.Service, agentID, adminID uuid.UUID, reason string) (any, error),
	wantsBody bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents service unavailable"))
			return
		}

		adminID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agentID, err := pathUUID(r, "agentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason := ""
		if wantsBody {
			var payload agentDecisionRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			reason = payload.Reason
		}

		resp, err := apply(r, svc, agentID, adminID, reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type agentDecisionRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
