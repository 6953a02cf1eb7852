package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/config"
	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
	"github.com/shopsphere/shopsphere-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
}

// Service runs the auto-assignment engine.
type Service interface {
	AutoAssign(ctx context.Context, orderID, triggeredBy uuid.UUID) (*Result, error)
}

// Result reports what AutoAssign did. AlreadyAssigned is true when the
// order had an assignment before the call; the existing assignment is
// returned untouched.
type Result struct {
	Assignment      *models.Assignment
	AgentName       string
	Tier            int
	DistanceKM      float64
	AlreadyAssigned bool
}

type service struct {
	tx      txRunner
	repo    Repository
	fees    *FeePolicy
	notify  notifier
	logg    *logger.Logger
	metrics *metrics.DeliveryMetrics
	estDays int
}

// NewService wires the assignment service.
func NewService(
	tx txRunner,
	repo Repository,
	cfg config.DeliveryConfig,
	notify notifier,
	logg *logger.Logger,
	deliveryMetrics *metrics.DeliveryMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	fees, err := NewFeePolicy(cfg)
	if err != nil {
		return nil, err
	}
	estDays := cfg.EstimatedDeliveryDays
	if estDays <= 0 {
		estDays = 2
	}
	return &service{
		tx:      tx,
		repo:    repo,
		fees:    fees,
		notify:  notify,
		logg:    logg,
		metrics: deliveryMetrics,
		estDays: estDays,
	}, nil
}

// AutoAssign finds the best eligible agent for the order and binds it
// atomically. The call is idempotent: a second invocation for the same
// order returns the existing assignment.
func (s *service) AutoAssign(ctx context.Context, orderID, triggeredBy uuid.UUID) (*Result, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var result Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForAssignment(ctx, orderID)
		if err != nil {
			if isNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.Address == nil || order.Address.City == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "order has no delivery address")
		}

		if existing, err := repo.FindByOrderID(ctx, orderID); err == nil {
			result.Assignment = existing
			result.AlreadyAssigned = true
			return nil
		} else if !isNotFound(err) {
			return err
		}

		// The pool is locked so two concurrent assignments cannot pick
		// the same free agent.
		pool, err := repo.ListEligibleAgentsForUpdate(ctx)
		if err != nil {
			return err
		}
		agentIDs := make([]uuid.UUID, 0, len(pool))
		for _, a := range pool {
			agentIDs = append(agentIDs, a.ID)
		}
		workloads, err := repo.CountActiveByAgentIDs(ctx, agentIDs)
		if err != nil {
			return err
		}

		dest := Destination{
			City:      order.Address.City,
			State:     order.Address.State,
			Pincode:   order.Address.Pincode,
			Latitude:  order.Address.Latitude,
			Longitude: order.Address.Longitude,
		}
		pick := Select(pool, workloads, dest)
		if pick == nil {
			return pkgerrors.New(pkgerrors.CodeNoAgentAvailable, "no delivery agent available for this area")
		}

		pickup := ""
		if len(order.Items) > 0 {
			if vendor, err := repo.FindVendorProfileByUserID(ctx, order.Items[0].VendorID); err == nil {
				pickup = fmt.Sprintf("%s, %s, %s", vendor.ShopName, vendor.Address, vendor.City)
			} else if !isNotFound(err) {
				return err
			}
		}

		assignment := &models.Assignment{
			OrderID:               order.ID,
			AgentID:               pick.Agent.ID,
			Status:                enums.AssignmentStatusAssigned,
			PickupAddress:         pickup,
			DeliveryAddress:       order.Address.Oneline(),
			DeliveryCity:          order.Address.City,
			DeliveryLatitude:      order.Address.Latitude,
			DeliveryLongitude:     order.Address.Longitude,
			DeliveryFee:           s.fees.Fee(pick.Agent.City, order.Address.City),
			EstimatedDeliveryDate: time.Now().UTC().AddDate(0, 0, s.estDays),
			CustomerContact:       order.Address.Phone,
		}
		if err := repo.Create(ctx, assignment); err != nil {
			return err
		}
		if err := repo.AppendTrackingEvent(ctx, &models.TrackingEvent{
			AssignmentID: assignment.ID,
			Status:       string(enums.AssignmentStatusAssigned),
			Address:      pickup,
			Notes:        "assignment created",
		}); err != nil {
			return err
		}

		if err := repo.SetAgentAvailability(ctx, pick.Agent.ID, enums.AgentOnDelivery); err != nil {
			return err
		}

		order.Status = enums.OrderStatusDeliveryAssigned
		order.DeliveryAgentID = &pick.Agent.UserID
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return err
		}
		if err := repo.AppendOrderHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusDeliveryAssigned,
			Notes:     "delivery agent assigned automatically",
			ChangedBy: changedBy(triggeredBy),
		}); err != nil {
			return err
		}

		result.Assignment = assignment
		result.Tier = pick.Tier
		result.DistanceKM = pick.DistanceKM
		if pick.Agent.User != nil {
			result.AgentName = pick.Agent.User.FirstName + " " + pick.Agent.User.LastName
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNoAgentAvailable {
			s.metrics.IncAssignment("no_agent")
		}
		return nil, err
	}

	if result.AlreadyAssigned {
		s.metrics.IncAssignment("already_assigned")
		return &result, nil
	}
	s.metrics.IncAssignment("assigned")

	s.notifyAfterAssign(ctx, result.Assignment)
	return &result, nil
}

// notifyAfterAssign fans out best-effort notifications once the
// transaction has committed.
func (s *service) notifyAfterAssign(ctx context.Context, assignment *models.Assignment) {
	if s.notify == nil || assignment == nil {
		return
	}
	order, err := s.repo.FindOrderForAssignment(ctx, assignment.OrderID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "loading order for assignment notifications")
		return
	}
	s.notify.Notify(ctx, order.UserID, enums.NotificationTypeDelivery,
		"Delivery agent assigned",
		fmt.Sprintf("A delivery agent has been assigned to order %s.", order.OrderNumber),
		&order.ID)

	seen := map[uuid.UUID]struct{}{}
	for _, item := range order.Items {
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		s.notify.Notify(ctx, item.VendorID, enums.NotificationTypeDelivery,
			"Order out for pickup",
			fmt.Sprintf("Order %s has been assigned to a delivery agent.", order.OrderNumber),
			&order.ID)
	}
}

func changedBy(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
