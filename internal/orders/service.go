package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/internal/assignment"
	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
	"github.com/shopsphere/shopsphere-backend/pkg/pagination"
)

// Action is a vendor lifecycle action on an order.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPack    Action = "pack"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
}

type assigner interface {
	AutoAssign(ctx context.Context, orderID, triggeredBy uuid.UUID) (*assignment.Result, error)
}

// ActionResult reports the outcome of a vendor action. AssignmentNote
// carries the auto-assignment outcome after a pack; an assignment
// failure never fails the pack itself.
type ActionResult struct {
	Order          *models.Order
	AssignmentNote string
}

// Page is one cursor page of a customer's orders.
type Page struct {
	Orders     []models.Order
	NextCursor string
}

// Service owns order reads and the vendor approve/reject/pack flow.
type Service interface {
	VendorAction(ctx context.Context, orderID, vendorUserID uuid.UUID, action Action, notes string) (*ActionResult, error)
	VendorItems(ctx context.Context, vendorUserID uuid.UUID, limit int) ([]models.OrderItem, error)
	UnassignedOrders(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	Detail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
}

type service struct {
	tx       txRunner
	repo     Repository
	assigner assigner
	notify   notifier
	logg     *logger.Logger
}

// NewService wires the orders service. The assigner is optional so the
// service can run before delivery assignment is configured.
func NewService(
	tx txRunner,
	repo Repository,
	autoAssigner assigner,
	notify notifier,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		assigner: autoAssigner,
		notify:   notify,
		logg:     logg,
	}, nil
}

// VendorAction applies one lifecycle action. The vendor must own at
// least one line on the order. Rejection restores the stock this
// vendor's lines consumed; packing flips the vendor's lines to shipped
// and then kicks off delivery assignment.
func (s *service) VendorAction(ctx context.Context, orderID, vendorUserID uuid.UUID, action Action, notes string) (*ActionResult, error) {
	if orderID == uuid.Nil || vendorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and vendor id required")
	}
	if action == ActionReject && notes == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection requires notes")
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var result ActionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			if isNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if !vendorOwnsLine(order, vendorUserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order has no items for this vendor")
		}

		var target enums.OrderStatus
		switch action {
		case ActionApprove:
			if order.Status != enums.OrderStatusPending {
				return stateConflict(order.Status, enums.OrderStatusApproved)
			}
			target = enums.OrderStatusApproved
		case ActionReject:
			if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusApproved {
				return stateConflict(order.Status, enums.OrderStatusRejected)
			}
			target = enums.OrderStatusRejected
			for _, item := range order.Items {
				if item.VendorID != vendorUserID || item.ProductID == nil {
					continue
				}
				if err := repo.RestoreStock(ctx, *item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case ActionPack:
			if order.Status != enums.OrderStatusApproved {
				return stateConflict(order.Status, enums.OrderStatusPacked)
			}
			target = enums.OrderStatusPacked
			if err := repo.SetVendorItemsStatus(ctx, order.ID, vendorUserID, enums.VendorItemStatusShipped); err != nil {
				return err
			}
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action %q", action))
		}

		if err := repo.UpdateOrderStatus(ctx, order.ID, target); err != nil {
			return err
		}
		if err := repo.AppendOrderHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    target,
			Notes:     notes,
			ChangedBy: &vendorUserID,
		}); err != nil {
			return err
		}
		order.Status = target
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyCustomer(ctx, result.Order, action)

	if action == ActionPack {
		result.AssignmentNote = s.triggerAssignment(ctx, orderID, vendorUserID)
	}
	return &result, nil
}

func (s *service) VendorItems(ctx context.Context, vendorUserID uuid.UUID, limit int) ([]models.OrderItem, error) {
	if vendorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	return s.repo.ListVendorItems(ctx, vendorUserID, limit)
}

func (s *service) UnassignedOrders(ctx context.Context) ([]models.Order, error) {
	return s.repo.ListUnassignedPaidOrders(ctx)
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrderForUser(ctx, orderID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) Detail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrderDetail(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

// ListMine pages through a customer's orders, newest first.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	orders, err := s.repo.ListOrdersByUser(ctx, userID, limit+1, cursor)
	if err != nil {
		return nil, err
	}

	page := &Page{Orders: orders}
	if len(orders) > limit {
		page.Orders = orders[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// triggerAssignment runs auto-assignment after a pack. The outcome is
// reported back to the vendor as a note, never as an error.
func (s *service) triggerAssignment(ctx context.Context, orderID, vendorUserID uuid.UUID) string {
	if s.assigner == nil {
		return "delivery assignment not configured"
	}
	result, err := s.assigner.AutoAssign(ctx, orderID, vendorUserID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auto assignment after pack")
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNoAgentAvailable {
			return "no delivery agent available yet; the order stays packed for manual assignment"
		}
		return "delivery assignment failed: " + err.Error()
	}
	if result.AlreadyAssigned {
		return "order already had a delivery agent"
	}
	if result.AgentName != "" {
		return "delivery agent " + result.AgentName + " assigned"
	}
	return "delivery agent assigned"
}

func (s *service) notifyCustomer(ctx context.Context, order *models.Order, action Action) {
	if s.notify == nil || order == nil {
		return
	}
	var title, message string
	switch action {
	case ActionApprove:
		title = "Order approved"
		message = fmt.Sprintf("Order %s has been approved by the seller.", order.OrderNumber)
	case ActionReject:
		title = "Order rejected"
		message = fmt.Sprintf("Order %s was rejected by the seller. Any payment will be refunded.", order.OrderNumber)
	case ActionPack:
		title = "Order packed"
		message = fmt.Sprintf("Order %s has been packed and is awaiting pickup.", order.OrderNumber)
	default:
		return
	}
	s.notify.Notify(ctx, order.UserID, enums.NotificationTypeOrder, title, message, &order.ID)
}

func vendorOwnsLine(order *models.Order, vendorUserID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.VendorID == vendorUserID {
			return true
		}
	}
	return false
}

func stateConflict(current, target enums.OrderStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move order from %s to %s", current, target))
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
