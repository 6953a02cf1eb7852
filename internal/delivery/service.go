package delivery

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/internal/geo"
	"github.com/shopsphere/shopsphere-backend/internal/wallet"
	"github.com/shopsphere/shopsphere-backend/pkg/config"
	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
	"github.com/shopsphere/shopsphere-backend/pkg/mailer"
	"github.com/shopsphere/shopsphere-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
}

// NearbyResult reports what TriggerNearby did.
type NearbyResult struct {
	OrderStatus     enums.OrderStatus
	OTPSentViaEmail bool
}

// TrackPayload is the customer-facing tracking view for one order.
type TrackPayload struct {
	Order      *models.Order
	Assignment *models.Assignment
	Events     []models.TrackingEvent
	AgentName  string
	AgentPhone string
}

// Service walks a delivery assignment through its lifecycle. Every
// transition is agent-authorized and appends a tracking event; the
// delivered transition is gated on OTP verification and settles the
// delivery fee into the agent's wallet.
type Service interface {
	Accept(ctx context.Context, assignmentID, agentUserID uuid.UUID) (*models.Assignment, error)
	Pickup(ctx context.Context, assignmentID, agentUserID uuid.UUID) (*models.Assignment, error)
	StartTransit(ctx context.Context, assignmentID, agentUserID uuid.UUID) (*models.Assignment, error)
	TriggerNearby(ctx context.Context, assignmentID, agentUserID uuid.UUID, lat, lng *float64) (*NearbyResult, error)
	VerifyOTP(ctx context.Context, assignmentID, agentUserID uuid.UUID, otp string) (*models.Assignment, error)
	Fail(ctx context.Context, assignmentID, agentUserID uuid.UUID, reason string) (*models.Assignment, error)
	ListMine(ctx context.Context, agentUserID uuid.UUID, statuses []enums.AssignmentStatus) ([]models.Assignment, error)
	Track(ctx context.Context, orderNumber string, userID uuid.UUID) (*TrackPayload, error)
}

type service struct {
	tx            txRunner
	repo          Repository
	wallets       wallet.Service
	notify        notifier
	mail          mailer.Sender
	logg          *logger.Logger
	metrics       *metrics.DeliveryMetrics
	nearbyRadiusM float64
}

// NewService wires the delivery lifecycle service.
func NewService(
	tx txRunner,
	repo Repository,
	wallets wallet.Service,
	cfg config.DeliveryConfig,
	notify notifier,
	mail mailer.Sender,
	logg *logger.Logger,
	deliveryMetrics *metrics.DeliveryMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:            tx,
		repo:          repo,
		wallets:       wallets,
		notify:        notify,
		mail:          mail,
		logg:          logg,
		metrics:       deliveryMetrics,
		nearbyRadiusM: cfg.NearbyRadiusMeters,
	}, nil
}

func (s *service) Accept(ctx context.Context, assignmentID, agentUserID uuid.UUID) (*models.Assignment, error) {
	return s.transition(ctx, assignmentID, agentUserID, enums.AssignmentStatusAccepted,
		[]enums.AssignmentStatus{enums.AssignmentStatusAssigned}, "delivery accepted by agent", nil)
}

// Pickup marks the parcel collected from the vendor and moves the
// order into shipping.
func (s *service) Pickup(ctx context.Context, assignmentID, agentUserID uuid.UUID) (*models.Assignment, error) {
	return s.transition(ctx, assignmentID, agentUserID, enums.AssignmentStatusPickedUp,
		[]enums.AssignmentStatus{enums.AssignmentStatusAccepted}, "parcel picked up",
		func(ctx context.Context, repo Repository, assignment *models.Assignment) error {
			return s.moveOrder(ctx, repo, assignment, enums.OrderStatusShipping, "out for delivery")
		})
}

func (s *service) StartTransit(ctx context.Context, assignmentID, agentUserID uuid.UUID) (*models.Assignment, error) {
	return s.transition(ctx, assignmentID, agentUserID, enums.AssignmentStatusInTransit,
		[]enums.AssignmentStatus{enums.AssignmentStatusPickedUp}, "in transit to customer", nil)
}

// TriggerNearby is called by the agent close to the drop point. It
// issues a fresh OTP, flips the order to nearby, and pushes the code to
// the customer by email and in-app notification.
func (s *service) TriggerNearby(ctx context.Context, assignmentID, agentUserID uuid.UUID, lat, lng *float64) (*NearbyResult, error) {
	ctx = s.logg.WithAssignmentID(ctx, assignmentID.String())

	var (
		assignment *models.Assignment
		otp        string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.loadForAgent(ctx, repo, assignmentID, agentUserID)
		if err != nil {
			return err
		}
		allowed := []enums.AssignmentStatus{
			enums.AssignmentStatusAccepted,
			enums.AssignmentStatusPickedUp,
			enums.AssignmentStatusInTransit,
		}
		if !statusIn(current.Status, allowed) {
			return stateConflict(current.Status, enums.AssignmentStatusInTransit)
		}

		// Radius gate only applies when both sides have coordinates.
		// Addresses without geocoding skip the check entirely.
		if lat != nil && lng != nil && current.DeliveryLatitude != nil && current.DeliveryLongitude != nil {
			dist := geo.DistanceMeters(lat, lng, current.DeliveryLatitude, current.DeliveryLongitude)
			if dist > s.nearbyRadiusM {
				return pkgerrors.New(pkgerrors.CodeValidation, "too far from the delivery location").
					WithDetails(map[string]any{
						"distance_meters": dist,
						"radius_meters":   s.nearbyRadiusM,
					})
			}
		}

		otp = generateOTP()
		current.OTPCode = otp
		current.OTPVerified = false
		current.Status = enums.AssignmentStatusInTransit
		if err := repo.SaveAssignment(ctx, current); err != nil {
			return err
		}
		if err := repo.AppendTrackingEvent(ctx, &models.TrackingEvent{
			AssignmentID: current.ID,
			Latitude:     lat,
			Longitude:    lng,
			Status:       string(enums.AssignmentStatusInTransit),
			Notes:        "agent nearby, delivery code sent to customer",
		}); err != nil {
			return err
		}
		if err := s.moveOrder(ctx, repo, current, enums.OrderStatusNearby, "delivery agent is nearby"); err != nil {
			return err
		}
		assignment = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &NearbyResult{OrderStatus: enums.OrderStatusNearby}
	result.OTPSentViaEmail = s.sendOTP(ctx, assignment, otp)
	return result, nil
}

// VerifyOTP confirms delivery. A matching code completes the
// assignment, frees the agent, and credits the delivery fee; a mismatch
// changes nothing.
func (s *service) VerifyOTP(ctx context.Context, assignmentID, agentUserID uuid.UUID, otp string) (*models.Assignment, error) {
	if otp == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery code required")
	}
	ctx = s.logg.WithAssignmentID(ctx, assignmentID.String())

	var result *models.Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assignment, err := s.loadForAgent(ctx, repo, assignmentID, agentUserID)
		if err != nil {
			return err
		}
		if assignment.Status == enums.AssignmentStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery is already completed")
		}
		if assignment.Status != enums.AssignmentStatusInTransit || assignment.OTPCode == "" {
			return stateConflict(assignment.Status, enums.AssignmentStatusDelivered)
		}
		if assignment.OTPCode != otp {
			s.metrics.IncOTPFailure()
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery code")
		}

		now := time.Now().UTC()
		assignment.OTPVerified = true
		assignment.Status = enums.AssignmentStatusDelivered
		assignment.DeliveredAt = &now
		if err := repo.SaveAssignment(ctx, assignment); err != nil {
			return err
		}
		if err := repo.AppendTrackingEvent(ctx, &models.TrackingEvent{
			AssignmentID: assignment.ID,
			Status:       string(enums.AssignmentStatusDelivered),
			Address:      assignment.DeliveryAddress,
			Notes:        "delivery confirmed by customer code",
		}); err != nil {
			return err
		}
		if err := repo.MarkAgentDelivered(ctx, assignment.AgentID); err != nil {
			return err
		}
		if err := s.moveOrder(ctx, repo, assignment, enums.OrderStatusDelivered, "order delivered"); err != nil {
			return err
		}

		if _, err := s.wallets.Credit(ctx, tx, agentUserID, assignment.DeliveryFee,
			fmt.Sprintf("delivery fee for assignment %s", assignment.ID)); err != nil {
			return err
		}
		result = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDelivered()
	s.notifyCustomer(ctx, result, enums.NotificationTypeDelivery,
		"Order delivered", "Your order has been delivered. Thank you for shopping with us.")
	return result, nil
}

// Fail aborts an active delivery. The agent is freed and the order
// drops back to packed so it can be reassigned.
func (s *service) Fail(ctx context.Context, assignmentID, agentUserID uuid.UUID, reason string) (*models.Assignment, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure reason required")
	}
	allowed := []enums.AssignmentStatus{
		enums.AssignmentStatusAccepted,
		enums.AssignmentStatusPickedUp,
		enums.AssignmentStatusInTransit,
	}
	return s.transition(ctx, assignmentID, agentUserID, enums.AssignmentStatusFailed,
		allowed, "delivery failed: "+reason,
		func(ctx context.Context, repo Repository, assignment *models.Assignment) error {
			if err := repo.SetAgentAvailability(ctx, assignment.AgentID, enums.AgentAvailable); err != nil {
				return err
			}
			return s.moveOrder(ctx, repo, assignment, enums.OrderStatusPacked, "delivery failed: "+reason)
		})
}

func (s *service) ListMine(ctx context.Context, agentUserID uuid.UUID, statuses []enums.AssignmentStatus) ([]models.Assignment, error) {
	profile, err := s.repo.FindAgentProfileByUserID(ctx, agentUserID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no delivery agent profile for this user")
		}
		return nil, err
	}
	return s.repo.ListAssignmentsByAgent(ctx, profile.ID, statuses)
}

// Track builds the customer tracking view for one of their orders.
func (s *service) Track(ctx context.Context, orderNumber string, userID uuid.UUID) (*TrackPayload, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindOrderByNumberForUser(ctx, orderNumber, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}

	payload := &TrackPayload{Order: order}
	assignment, err := s.repo.FindAssignmentByOrderID(ctx, order.ID)
	if err != nil {
		if isNotFound(err) {
			return payload, nil
		}
		return nil, err
	}
	payload.Assignment = assignment

	if events, err := s.repo.ListTrackingEvents(ctx, assignment.ID); err == nil {
		payload.Events = events
	} else {
		return nil, err
	}
	if agent, err := s.repo.FindAgentProfile(ctx, assignment.AgentID); err == nil {
		payload.AgentPhone = agent.Phone
		if agent.User != nil {
			payload.AgentName = agent.User.FirstName + " " + agent.User.LastName
		}
	} else if !isNotFound(err) {
		return nil, err
	}
	return payload, nil
}

// transition runs one guarded status change inside a transaction.
// extra, when set, runs after the assignment row and tracking event are
// written and still inside the same transaction.
func (s *service) transition(
	ctx context.Context,
	assignmentID, agentUserID uuid.UUID,
	target enums.AssignmentStatus,
	allowedFrom []enums.AssignmentStatus,
	note string,
	extra func(ctx context.Context, repo Repository, assignment *models.Assignment) error,
) (*models.Assignment, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	ctx = s.logg.WithAssignmentID(ctx, assignmentID.String())

	var result *models.Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assignment, err := s.loadForAgent(ctx, repo, assignmentID, agentUserID)
		if err != nil {
			return err
		}
		if !statusIn(assignment.Status, allowedFrom) {
			return stateConflict(assignment.Status, target)
		}

		assignment.Status = target
		if err := repo.SaveAssignment(ctx, assignment); err != nil {
			return err
		}
		if err := repo.AppendTrackingEvent(ctx, &models.TrackingEvent{
			AssignmentID: assignment.ID,
			Status:       string(target),
			Notes:        note,
		}); err != nil {
			return err
		}
		if extra != nil {
			if err := extra(ctx, repo, assignment); err != nil {
				return err
			}
		}
		result = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadForAgent locks the assignment and verifies the caller is the
// agent it is bound to.
func (s *service) loadForAgent(ctx context.Context, repo Repository, assignmentID, agentUserID uuid.UUID) (*models.Assignment, error) {
	profile, err := repo.FindAgentProfileByUserID(ctx, agentUserID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no delivery agent profile for this user")
		}
		return nil, err
	}
	assignment, err := repo.FindAssignmentForUpdate(ctx, assignmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, err
	}
	if assignment.AgentID != profile.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another agent")
	}
	return assignment, nil
}

func (s *service) moveOrder(ctx context.Context, repo Repository, assignment *models.Assignment, status enums.OrderStatus, note string) error {
	if err := repo.UpdateOrderStatus(ctx, assignment.OrderID, status); err != nil {
		return err
	}
	return repo.AppendOrderHistory(ctx, &models.OrderStatusHistory{
		OrderID: assignment.OrderID,
		Status:  status,
		Notes:   note,
	})
}

// sendOTP pushes the delivery code to the customer. Email and in-app
// delivery are both best-effort; only the email outcome is reported.
func (s *service) sendOTP(ctx context.Context, assignment *models.Assignment, otp string) bool {
	order, err := s.repo.FindOrder(ctx, assignment.OrderID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "loading order for delivery code")
		return false
	}
	if s.notify != nil {
		s.notify.Notify(ctx, order.UserID, enums.NotificationTypeDelivery,
			"Your delivery code",
			fmt.Sprintf("Your delivery agent is nearby. Share code %s to receive order %s.", otp, order.OrderNumber),
			&order.ID)
	}
	if s.mail == nil {
		return false
	}
	user, err := s.repo.FindUser(ctx, order.UserID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "loading customer for delivery code email")
		return false
	}
	subject := fmt.Sprintf("Delivery code for order %s", order.OrderNumber)
	body := fmt.Sprintf("Hi %s,\n\nYour delivery agent is nearby. Share the code %s with the agent to receive your order %s.\n",
		user.FirstName, otp, order.OrderNumber)
	if err := s.mail.Send(user.Email, subject, body); err != nil {
		if !errors.Is(err, mailer.ErrDisabled) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "sending delivery code email")
		}
		return false
	}
	return true
}

func (s *service) notifyCustomer(ctx context.Context, assignment *models.Assignment, kind enums.NotificationType, title, message string) {
	if s.notify == nil || assignment == nil {
		return
	}
	order, err := s.repo.FindOrder(ctx, assignment.OrderID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "loading order for delivery notification")
		return
	}
	s.notify.Notify(ctx, order.UserID, kind, title, message, &order.ID)
}

func statusIn(status enums.AssignmentStatus, allowed []enums.AssignmentStatus) bool {
	for _, candidate := range allowed {
		if status == candidate {
			return true
		}
	}
	return false
}

func stateConflict(current, target enums.AssignmentStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move delivery from %s to %s", current, target))
}

// generateOTP returns a 6-digit numeric code. The clock fallback only
// fires when the system entropy source is unreadable.
func generateOTP() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", binary.BigEndian.Uint32(buf[:])%1000000)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
