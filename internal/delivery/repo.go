package delivery

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

// Repository serves the delivery lifecycle: assignment state changes,
// tracking breadcrumbs, and the order/agent rows they touch.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAssignment(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	FindAssignmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	FindAssignmentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error)
	SaveAssignment(ctx context.Context, assignment *models.Assignment) error
	AppendTrackingEvent(ctx context.Context, event *models.TrackingEvent) error
	ListTrackingEvents(ctx context.Context, assignmentID uuid.UUID) ([]models.TrackingEvent, error)
	ListAssignmentsByAgent(ctx context.Context, agentID uuid.UUID, statuses []enums.AssignmentStatus) ([]models.Assignment, error)

	FindAgentProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.AgentProfile, error)
	FindAgentProfile(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error)
	SetAgentAvailability(ctx context.Context, agentID uuid.UUID, availability enums.AgentAvailability) error
	MarkAgentDelivered(ctx context.Context, agentID uuid.UUID) error

	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderByNumberForUser(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	AppendOrderHistory(ctx context.Context, row *models.OrderStatusHistory) error

	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a delivery repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAssignment(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
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

// FindAssignmentForUpdate locks the assignment row so concurrent agent
// actions on the same delivery serialize.
func (r *repository) FindAssignmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
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

func (r *repository) FindAssignmentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) SaveAssignment(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *repository) AppendTrackingEvent(ctx context.Context, event *models.TrackingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
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

func (r *repository) ListAssignmentsByAgent(ctx context.Context, agentID uuid.UUID, statuses []enums.AssignmentStatus) ([]models.Assignment, error) {
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

func (r *repository) FindAgentProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.AgentProfile, error) {
	var profile models.AgentProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindAgentProfile(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error) {
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

func (r *repository) SetAgentAvailability(ctx context.Context, agentID uuid.UUID, availability enums.AgentAvailability) error {
	return r.db.WithContext(ctx).
		Model(&models.AgentProfile{}).
		Where("id = ?", agentID).
		Update("availability_status", availability).Error
}

// MarkAgentDelivered frees the agent and bumps the lifetime delivery
// counter in one UPDATE.
func (r *repository) MarkAgentDelivered(ctx context.Context, agentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AgentProfile{}).
		Where("id = ?", agentID).
		Updates(map[string]any{
			"availability_status": enums.AgentAvailable,
			"total_deliveries":    gorm.Expr("total_deliveries + 1"),
		}).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByNumberForUser(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Address").
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("order_number = ?", orderNumber).
		Where("user_id = ?", userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *repository) AppendOrderHistory(ctx context.Context, row *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
