package assignment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// Repository manages persistence for delivery assignments and their
// tracking trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error)
	ListByAgentID(ctx context.Context, agentID uuid.UUID, statuses []enums.AssignmentStatus) ([]models.Assignment, error)
	Save(ctx context.Context, assignment *models.Assignment) error
	CountActiveByAgentIDs(ctx context.Context, agentIDs []uuid.UUID) (map[uuid.UUID]int, error)
	AppendTrackingEvent(ctx context.Context, event *models.TrackingEvent) error
	ListTrackingEvents(ctx context.Context, assignmentID uuid.UUID) ([]models.TrackingEvent, error)

	FindOrderForAssignment(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	AppendOrderHistory(ctx context.Context, row *models.OrderStatusHistory) error
	ListEligibleAgentsForUpdate(ctx context.Context) ([]models.AgentProfile, error)
	SetAgentAvailability(ctx context.Context, agentID uuid.UUID, availability enums.AgentAvailability) error
	FindVendorProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Agent").
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindByIDForUpdate locks the assignment row for the duration of the
// surrounding transaction so concurrent OTP verifications serialize.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) ListByAgentID(ctx context.Context, agentID uuid.UUID, statuses []enums.AssignmentStatus) ([]models.Assignment, error) {
	q := r.db.WithContext(ctx).
		Preload("Order").
		Where("agent_id = ?", agentID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var assignments []models.Assignment
	if err := q.Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) Save(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// CountActiveByAgentIDs returns how many live assignments each agent is
// carrying, keyed by agent id. Agents with none are absent from the map.
func (r *repository) CountActiveByAgentIDs(ctx context.Context, agentIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(agentIDs))
	if len(agentIDs) == 0 {
		return counts, nil
	}

	type row struct {
		AgentID uuid.UUID
		Total   int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select("agent_id, COUNT(*) AS total").
		Where("agent_id IN ?", agentIDs).
		Where("status IN ?", enums.ActiveAssignmentStatuses).
		Group("agent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.AgentID] = r.Total
	}
	return counts, nil
}

func (r *repository) AppendTrackingEvent(ctx context.Context, event *models.TrackingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindOrderForAssignment(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Address").
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":            order.Status,
			"delivery_agent_id": order.DeliveryAgentID,
		}).Error
}

func (r *repository) AppendOrderHistory(ctx context.Context, row *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListEligibleAgentsForUpdate locks the free-agent pool so concurrent
// assignments serialize on it.
func (r *repository) ListEligibleAgentsForUpdate(ctx context.Context) ([]models.AgentProfile, error) {
	var agents []models.AgentProfile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "agent_profiles"}}).
		Preload("User").
		Where("approval_status = ?", enums.AgentApprovalApproved).
		Where("availability_status = ?", enums.AgentAvailable).
		Where("is_blocked = ?", false).
		Where("is_active = ?", true).
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repository) SetAgentAvailability(ctx context.Context, agentID uuid.UUID, availability enums.AgentAvailability) error {
	return r.db.WithContext(ctx).
		Model(&models.AgentProfile{}).
		Where("id = ?", agentID).
		Update("availability_status", availability).Error
}

func (r *repository) FindVendorProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error) {
	var profile models.VendorProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) ListTrackingEvents(ctx context.Context, assignmentID uuid.UUID) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
