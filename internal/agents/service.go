package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
)

const (
	actionApprove = "approve"
	actionReject  = "reject"
	actionBlock   = "block"
	actionUnblock = "unblock"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the admin side of agent onboarding: approve or reject
// pending profiles and block or unblock live ones. Every decision is
// audited in the approval log.
type Service interface {
	Approve(ctx context.Context, agentID, adminUserID uuid.UUID) (*models.AgentProfile, error)
	Reject(ctx context.Context, agentID, adminUserID uuid.UUID, reason string) (*models.AgentProfile, error)
	Block(ctx context.Context, agentID, adminUserID uuid.UUID, reason string) (*models.AgentProfile, error)
	Unblock(ctx context.Context, agentID, adminUserID uuid.UUID) (*models.AgentProfile, error)
	Get(ctx context.Context, agentID uuid.UUID) (*models.AgentProfile, error)
	List(ctx context.Context, approval enums.AgentApprovalStatus, limit int) ([]models.AgentProfile, error)
	History(ctx context.Context, agentID uuid.UUID) ([]models.AgentApprovalLog, error)
}

type service struct {
	tx   txRunner
	repo Repository
	logg *logger.Logger
}

// NewService wires the agent administration service.
func NewService(tx txRunner, repo Repository, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, logg: logg}, nil
}

func (s *service) Approve(ctx context.Context, agentID, adminUserID uuid.UUID) (*models.AgentProfile, error) {
	return s.decide(ctx, agentID, adminUserID, actionApprove, "")
}

func (s *service) Reject(ctx context.Context, agentID, adminUserID uuid.UUID, reason string) (*models.AgentProfile, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection requires a reason")
	}
	return s.decide(ctx, agentID, adminUserID, actionReject, reason)
}

func (s *service) Block(ctx context.Context, agentID, adminUserID uuid.UUID, reason string) (*models.AgentProfile, error) {
	return s.decide(ctx, agentID, adminUserID, actionBlock, reason)
}

func (s *service) Unblock(ctx context.Context, agentID, adminUserID uuid.UUID) (*models.AgentProfile, error) {
	return s.decide(ctx, agentID, adminUserID, actionUnblock, "")
}

func (s *service) decide(ctx context.Context, agentID, adminUserID uuid.UUID, action, reason string) (*models.AgentProfile, error) {
	if agentID == uuid.Nil || adminUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id and admin id required")
	}
	ctx = s.logg.WithUserID(ctx, adminUserID.String())

	var result *models.AgentProfile
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		profile, err := repo.FindByIDForUpdate(ctx, agentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
			}
			return err
		}

		switch action {
		case actionApprove:
			if profile.ApprovalStatus != enums.AgentApprovalPending {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("cannot approve an agent in status %s", profile.ApprovalStatus))
			}
			profile.ApprovalStatus = enums.AgentApprovalApproved
		case actionReject:
			if profile.ApprovalStatus != enums.AgentApprovalPending {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("cannot reject an agent in status %s", profile.ApprovalStatus))
			}
			profile.ApprovalStatus = enums.AgentApprovalRejected
		case actionBlock:
			if profile.IsBlocked {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "agent is already blocked")
			}
			profile.IsBlocked = true
		case actionUnblock:
			if !profile.IsBlocked {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "agent is not blocked")
			}
			profile.IsBlocked = false
		}

		if err := repo.Save(ctx, profile); err != nil {
			return err
		}
		if err := repo.AppendApprovalLog(ctx, &models.AgentApprovalLog{
			AgentID:     profile.ID,
			AdminUserID: adminUserID,
			Action:      action,
			Reason:      reason,
		}); err != nil {
			return err
		}
		result = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, agentID uuid.UUID) (*models.AgentProfile, error) {
	profile, err := s.repo.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}
		return nil, err
	}
	return profile, nil
}

func (s *service) List(ctx context.Context, approval enums.AgentApprovalStatus, limit int) ([]models.AgentProfile, error) {
	if approval != "" && !approval.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown approval status %q", approval))
	}
	return s.repo.List(ctx, approval, limit)
}

func (s *service) History(ctx context.Context, agentID uuid.UUID) ([]models.AgentApprovalLog, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	return s.repo.ListApprovalLogs(ctx, agentID)
}
