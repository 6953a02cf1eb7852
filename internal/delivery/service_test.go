package delivery

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/config"
	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
	"github.com/shopsphere/shopsphere-backend/pkg/metrics"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	agents      map[uuid.UUID]*models.AgentProfile
	assignments map[uuid.UUID]*models.Assignment
	orders      map[uuid.UUID]*models.Order
	users       map[uuid.UUID]*models.User
	events      []models.TrackingEvent
	history     []models.OrderStatusHistory
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		agents:      map[uuid.UUID]*models.AgentProfile{},
		assignments: map[uuid.UUID]*models.Assignment{},
		orders:      map[uuid.UUID]*models.Order{},
		users:       map[uuid.UUID]*models.User{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindAssignment(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	return f.FindAssignmentForUpdate(ctx, id)
}

func (f *fakeRepo) FindAssignmentForUpdate(_ context.Context, id uuid.UUID) (*models.Assignment, error) {
	if a, ok := f.assignments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindAssignmentByOrderID(_ context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	for _, a := range f.assignments {
		if a.OrderID == orderID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) SaveAssignment(_ context.Context, assignment *models.Assignment) error {
	copied := *assignment
	f.assignments[assignment.ID] = &copied
	return nil
}

func (f *fakeRepo) AppendTrackingEvent(_ context.Context, event *models.TrackingEvent) error {
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeRepo) ListTrackingEvents(_ context.Context, assignmentID uuid.UUID) ([]models.TrackingEvent, error) {
	var out []models.TrackingEvent
	for _, e := range f.events {
		if e.AssignmentID == assignmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAssignmentsByAgent(_ context.Context, agentID uuid.UUID, statuses []enums.AssignmentStatus) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		if a.AgentID != agentID {
			continue
		}
		if len(statuses) > 0 && !statusIn(a.Status, statuses) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepo) FindAgentProfileByUserID(_ context.Context, userID uuid.UUID) (*models.AgentProfile, error) {
	for _, a := range f.agents {
		if a.UserID == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindAgentProfile(_ context.Context, id uuid.UUID) (*models.AgentProfile, error) {
	if a, ok := f.agents[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) SetAgentAvailability(_ context.Context, agentID uuid.UUID, availability enums.AgentAvailability) error {
	if a, ok := f.agents[agentID]; ok {
		a.AvailabilityStatus = availability
	}
	return nil
}

func (f *fakeRepo) MarkAgentDelivered(_ context.Context, agentID uuid.UUID) error {
	if a, ok := f.agents[agentID]; ok {
		a.AvailabilityStatus = enums.AgentAvailable
		a.TotalDeliveries++
	}
	return nil
}

func (f *fakeRepo) FindOrder(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := f.orders[orderID]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindOrderByNumberForUser(_ context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber && o.UserID == userID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if o, ok := f.orders[orderID]; ok {
		o.Status = status
	}
	return nil
}

func (f *fakeRepo) AppendOrderHistory(_ context.Context, row *models.OrderStatusHistory) error {
	f.history = append(f.history, *row)
	return nil
}

func (f *fakeRepo) FindUser(_ context.Context, userID uuid.UUID) (*models.User, error) {
	if u, ok := f.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type creditCall struct {
	userID      uuid.UUID
	amount      decimal.Decimal
	description string
}

type fakeWallet struct {
	credits []creditCall
}

func (f *fakeWallet) Credit(_ context.Context, _ *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string) (*models.WalletTransaction, error) {
	f.credits = append(f.credits, creditCall{userID: userID, amount: amount, description: description})
	return &models.WalletTransaction{Amount: amount}, nil
}

func (f *fakeWallet) Debit(_ context.Context, _ *gorm.DB, _ uuid.UUID, amount decimal.Decimal, _ string) (*models.WalletTransaction, error) {
	return &models.WalletTransaction{Amount: amount}, nil
}

func (f *fakeWallet) Transfer(_ context.Context, _ *gorm.DB, _, _ uuid.UUID, _ decimal.Decimal, _ string) error {
	return nil
}

func (f *fakeWallet) Balance(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{UserID: userID}, nil
}

func (f *fakeWallet) Statement(_ context.Context, userID uuid.UUID, _ int) (*models.Wallet, []models.WalletTransaction, error) {
	return &models.Wallet{UserID: userID}, nil, nil
}

type sentNotification struct {
	userID  uuid.UUID
	kind    enums.NotificationType
	title   string
	message string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, _ *uuid.UUID) {
	f.sent = append(f.sent, sentNotification{userID: userID, kind: kind, title: title, message: message})
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fixture struct {
	svc         Service
	repo        *fakeRepo
	wallets     *fakeWallet
	notify      *fakeNotifier
	mail        *fakeMailer
	assignment  *models.Assignment
	order       *models.Order
	agentUserID uuid.UUID
	customerID  uuid.UUID
}

func newFixture(t *testing.T, status enums.AssignmentStatus) *fixture {
	t.Helper()

	repo := newFakeRepo()
	wallets := &fakeWallet{}
	notify := &fakeNotifier{}
	mail := &fakeMailer{}

	agentUserID := uuid.New()
	customerID := uuid.New()
	lat, lng := 12.9716, 77.5946

	agent := &models.AgentProfile{
		ID:                 uuid.New(),
		UserID:             agentUserID,
		Phone:              "9876543210",
		ApprovalStatus:     enums.AgentApprovalApproved,
		AvailabilityStatus: enums.AgentOnDelivery,
		User:               &models.User{ID: agentUserID, FirstName: "Ravi", LastName: "Kumar"},
	}
	repo.agents[agent.ID] = agent

	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1A2B3C4D",
		UserID:      customerID,
		Status:      enums.OrderStatusDeliveryAssigned,
	}
	repo.orders[order.ID] = order
	repo.users[customerID] = &models.User{
		ID:        customerID,
		Email:     "customer@example.com",
		FirstName: "Asha",
	}

	assignment := &models.Assignment{
		ID:                uuid.New(),
		OrderID:           order.ID,
		AgentID:           agent.ID,
		Status:            status,
		DeliveryAddress:   "12 MG Road, Bengaluru, Karnataka, 560001",
		DeliveryCity:      "Bengaluru",
		DeliveryLatitude:  &lat,
		DeliveryLongitude: &lng,
		DeliveryFee:       decimal.RequireFromString("50.00"),
	}
	repo.assignments[assignment.ID] = assignment

	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(fakeTx{}, repo, wallets, config.DeliveryConfig{NearbyRadiusMeters: 500}, notify, mail, logg, metrics.NewDeliveryMetrics(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{
		svc:         svc,
		repo:        repo,
		wallets:     wallets,
		notify:      notify,
		mail:        mail,
		assignment:  assignment,
		order:       order,
		agentUserID: agentUserID,
		customerID:  customerID,
	}
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return appErr.Code()
}

func TestAcceptTransition(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusAssigned)

	got, err := f.svc.Accept(context.Background(), f.assignment.ID, f.agentUserID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got.Status != enums.AssignmentStatusAccepted {
		t.Fatalf("status = %s, want accepted", got.Status)
	}
	if len(f.repo.events) != 1 || f.repo.events[0].Status != string(enums.AssignmentStatusAccepted) {
		t.Fatalf("expected one accepted tracking event, got %+v", f.repo.events)
	}
	if f.repo.orders[f.order.ID].Status != enums.OrderStatusDeliveryAssigned {
		t.Fatalf("accept must not touch the order status")
	}
}

func TestAcceptRejectsWrongState(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)

	_, err := f.svc.Accept(context.Background(), f.assignment.ID, f.agentUserID)
	if codeOf(t, err) != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want STATE_CONFLICT", codeOf(t, err))
	}
	appErr := pkgerrors.As(err)
	if !strings.Contains(appErr.Message(), "in_transit") || !strings.Contains(appErr.Message(), "accepted") {
		t.Fatalf("message should name both states, got %q", appErr.Message())
	}
}

func TestAcceptRejectsForeignAgent(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusAssigned)

	other := &models.AgentProfile{ID: uuid.New(), UserID: uuid.New()}
	f.repo.agents[other.ID] = other

	_, err := f.svc.Accept(context.Background(), f.assignment.ID, other.UserID)
	if codeOf(t, err) != pkgerrors.CodeForbidden {
		t.Fatalf("code = %s, want FORBIDDEN", codeOf(t, err))
	}
}

func TestPickupMovesOrderToShipping(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusAccepted)

	got, err := f.svc.Pickup(context.Background(), f.assignment.ID, f.agentUserID)
	if err != nil {
		t.Fatalf("Pickup: %v", err)
	}
	if got.Status != enums.AssignmentStatusPickedUp {
		t.Fatalf("status = %s, want picked_up", got.Status)
	}
	if f.repo.orders[f.order.ID].Status != enums.OrderStatusShipping {
		t.Fatalf("order status = %s, want shipping", f.repo.orders[f.order.ID].Status)
	}
	if len(f.repo.history) != 1 || f.repo.history[0].Status != enums.OrderStatusShipping {
		t.Fatalf("expected one shipping history row, got %+v", f.repo.history)
	}
}

func TestTriggerNearbyIssuesOTP(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)

	lat, lng := 12.9717, 77.5947
	result, err := f.svc.TriggerNearby(context.Background(), f.assignment.ID, f.agentUserID, &lat, &lng)
	if err != nil {
		t.Fatalf("TriggerNearby: %v", err)
	}
	if result.OrderStatus != enums.OrderStatusNearby {
		t.Fatalf("order status = %s, want nearby", result.OrderStatus)
	}
	if !result.OTPSentViaEmail {
		t.Fatalf("expected OTP email to be reported as sent")
	}

	stored := f.repo.assignments[f.assignment.ID]
	if len(stored.OTPCode) != 6 {
		t.Fatalf("otp = %q, want 6 digits", stored.OTPCode)
	}
	if stored.OTPVerified {
		t.Fatalf("fresh otp must not be verified")
	}
	if f.repo.orders[f.order.ID].Status != enums.OrderStatusNearby {
		t.Fatalf("order status = %s, want nearby", f.repo.orders[f.order.ID].Status)
	}
	if len(f.mail.sent) != 1 || f.mail.sent[0].to != "customer@example.com" {
		t.Fatalf("expected one email to the customer, got %+v", f.mail.sent)
	}
	if !strings.Contains(f.mail.sent[0].body, stored.OTPCode) {
		t.Fatalf("email body should carry the code")
	}
	if len(f.notify.sent) != 1 || !strings.Contains(f.notify.sent[0].message, stored.OTPCode) {
		t.Fatalf("in-app notification should carry the code, got %+v", f.notify.sent)
	}
}

func TestTriggerNearbyRejectsFarCoordinates(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)

	lat, lng := 13.0827, 80.2707 // Chennai, far from the Bengaluru drop point
	_, err := f.svc.TriggerNearby(context.Background(), f.assignment.ID, f.agentUserID, &lat, &lng)
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want VALIDATION_ERROR", codeOf(t, err))
	}
	if f.repo.assignments[f.assignment.ID].OTPCode != "" {
		t.Fatalf("otp must not be issued outside the radius")
	}
}

func TestTriggerNearbyWithoutCoordinatesSkipsRadiusCheck(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusPickedUp)

	result, err := f.svc.TriggerNearby(context.Background(), f.assignment.ID, f.agentUserID, nil, nil)
	if err != nil {
		t.Fatalf("TriggerNearby: %v", err)
	}
	if result.OrderStatus != enums.OrderStatusNearby {
		t.Fatalf("order status = %s, want nearby", result.OrderStatus)
	}
	if f.repo.assignments[f.assignment.ID].Status != enums.AssignmentStatusInTransit {
		t.Fatalf("assignment should be in_transit after nearby trigger")
	}
}

func TestTriggerNearbyUngeocodedAddressSkipsRadiusCheck(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)
	f.assignment.DeliveryLatitude = nil
	f.assignment.DeliveryLongitude = nil
	f.repo.assignments[f.assignment.ID] = f.assignment

	// Agent position alone must not trip the gate when the address was
	// never geocoded; otherwise the order can never be delivered.
	lat, lng := 13.0827, 80.2707
	result, err := f.svc.TriggerNearby(context.Background(), f.assignment.ID, f.agentUserID, &lat, &lng)
	if err != nil {
		t.Fatalf("TriggerNearby: %v", err)
	}
	if result.OrderStatus != enums.OrderStatusNearby {
		t.Fatalf("order status = %s, want nearby", result.OrderStatus)
	}
	if len(f.repo.assignments[f.assignment.ID].OTPCode) != 6 {
		t.Fatalf("otp should be issued when the radius check is skipped")
	}
}

func TestVerifyOTPCompletesDelivery(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)
	f.assignment.OTPCode = "123456"
	f.repo.assignments[f.assignment.ID] = f.assignment

	got, err := f.svc.VerifyOTP(context.Background(), f.assignment.ID, f.agentUserID, "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if got.Status != enums.AssignmentStatusDelivered || !got.OTPVerified || got.DeliveredAt == nil {
		t.Fatalf("assignment not completed: %+v", got)
	}
	if f.repo.orders[f.order.ID].Status != enums.OrderStatusDelivered {
		t.Fatalf("order status = %s, want delivered", f.repo.orders[f.order.ID].Status)
	}

	agent := f.repo.agents[f.assignment.AgentID]
	if agent.AvailabilityStatus != enums.AgentAvailable || agent.TotalDeliveries != 1 {
		t.Fatalf("agent not freed: %+v", agent)
	}

	if len(f.wallets.credits) != 1 {
		t.Fatalf("expected one wallet credit, got %d", len(f.wallets.credits))
	}
	credit := f.wallets.credits[0]
	if credit.userID != f.agentUserID {
		t.Fatalf("credit went to %s, want agent user", credit.userID)
	}
	if !credit.amount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("credit amount = %s, want 50.00", credit.amount)
	}

	if len(f.notify.sent) != 1 || f.notify.sent[0].userID != f.customerID {
		t.Fatalf("customer should be notified, got %+v", f.notify.sent)
	}
}

func TestVerifyOTPMismatchChangesNothing(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)
	f.assignment.OTPCode = "123456"
	f.repo.assignments[f.assignment.ID] = f.assignment

	_, err := f.svc.VerifyOTP(context.Background(), f.assignment.ID, f.agentUserID, "654321")
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want VALIDATION_ERROR", codeOf(t, err))
	}
	stored := f.repo.assignments[f.assignment.ID]
	if stored.Status != enums.AssignmentStatusInTransit || stored.OTPVerified {
		t.Fatalf("mismatch must leave the assignment untouched: %+v", stored)
	}
	if len(f.wallets.credits) != 0 {
		t.Fatalf("mismatch must not credit the agent")
	}
}

func TestVerifyOTPAlreadyDelivered(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusDelivered)
	f.assignment.OTPCode = "123456"
	f.assignment.OTPVerified = true
	f.repo.assignments[f.assignment.ID] = f.assignment

	_, err := f.svc.VerifyOTP(context.Background(), f.assignment.ID, f.agentUserID, "123456")
	if codeOf(t, err) != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want STATE_CONFLICT", codeOf(t, err))
	}
	if len(f.wallets.credits) != 0 {
		t.Fatalf("completed delivery must not be credited twice")
	}
}

func TestFailFreesAgentAndRepacksOrder(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)

	got, err := f.svc.Fail(context.Background(), f.assignment.ID, f.agentUserID, "customer unreachable")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if got.Status != enums.AssignmentStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if f.repo.agents[f.assignment.AgentID].AvailabilityStatus != enums.AgentAvailable {
		t.Fatalf("agent should be freed after failure")
	}
	if f.repo.orders[f.order.ID].Status != enums.OrderStatusPacked {
		t.Fatalf("order status = %s, want packed", f.repo.orders[f.order.ID].Status)
	}
}

func TestFailRequiresReason(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)

	_, err := f.svc.Fail(context.Background(), f.assignment.ID, f.agentUserID, "")
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want VALIDATION_ERROR", codeOf(t, err))
	}
}

func TestTrackReturnsCustomerPayload(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)
	f.repo.events = append(f.repo.events, models.TrackingEvent{
		AssignmentID: f.assignment.ID,
		Status:       string(enums.AssignmentStatusAccepted),
	})

	payload, err := f.svc.Track(context.Background(), f.order.OrderNumber, f.customerID)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if payload.Order == nil || payload.Order.ID != f.order.ID {
		t.Fatalf("payload missing order")
	}
	if payload.Assignment == nil || payload.Assignment.ID != f.assignment.ID {
		t.Fatalf("payload missing assignment")
	}
	if len(payload.Events) != 1 {
		t.Fatalf("expected one tracking event, got %d", len(payload.Events))
	}
	if payload.AgentName != "Ravi Kumar" || payload.AgentPhone != "9876543210" {
		t.Fatalf("agent info = %q / %q", payload.AgentName, payload.AgentPhone)
	}
}

func TestTrackRejectsForeignOrder(t *testing.T) {
	f := newFixture(t, enums.AssignmentStatusInTransit)

	_, err := f.svc.Track(context.Background(), f.order.OrderNumber, uuid.New())
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want NOT_FOUND", codeOf(t, err))
	}
}
