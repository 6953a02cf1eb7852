package agents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// Repository manages delivery agent profiles and their approval audit
// trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.AgentProfile, error)
	Create(ctx context.Context, profile *models.AgentProfile) error
	Save(ctx context.Context, profile *models.AgentProfile) error
	List(ctx context.Context, approval enums.AgentApprovalStatus, limit int) ([]models.AgentProfile, error)
	AppendApprovalLog(ctx context.Context, row *models.AgentApprovalLog) error
	ListApprovalLogs(ctx context.Context, agentID uuid.UUID) ([]models.AgentApprovalLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an agents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error) {
	var profile models.AgentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByIDForUpdate locks the profile row so concurrent admin
// decisions on the same agent serialize.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error) {
	var profile models.AgentProfile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.AgentProfile, error) {
	var profile models.AgentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) Create(ctx context.Context, profile *models.AgentProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) Save(ctx context.Context, profile *models.AgentProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *repository) List(ctx context.Context, approval enums.AgentApprovalStatus, limit int) ([]models.AgentProfile, error) {
	q := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC")
	if approval != "" {
		q = q.Where("approval_status = ?", approval)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var profiles []models.AgentProfile
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *repository) AppendApprovalLog(ctx context.Context, row *models.AgentApprovalLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListApprovalLogs(ctx context.Context, agentID uuid.UUID) ([]models.AgentApprovalLog, error) {
	var rows []models.AgentApprovalLog
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
