package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
)

// Monetary fields render as fixed two-decimal strings so clients never
// see float artifacts.

type orderResponse struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PaymentMethod string              `json:"payment_method"`
	Subtotal      string              `json:"subtotal"`
	Tax           string              `json:"tax"`
	ShippingFee   string              `json:"shipping_fee"`
	Total         string              `json:"total"`
	Address       *addressResponse    `json:"address,omitempty"`
	Items         []orderItemResponse `json:"items,omitempty"`
	History       []historyResponse   `json:"history,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ItemID       uuid.UUID  `json:"item_id"`
	OrderID      uuid.UUID  `json:"order_id"`
	ProductID    *uuid.UUID `json:"product_id,omitempty"`
	ProductName  string     `json:"product_name"`
	ProductPrice string     `json:"product_price"`
	Quantity     int        `json:"quantity"`
	Subtotal     string     `json:"subtotal"`
	VendorStatus string     `json:"vendor_status"`
	IsSettled    bool       `json:"is_settled"`
}

type historyResponse struct {
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type addressResponse struct {
	Line1   string  `json:"line1"`
	Line2   *string `json:"line2,omitempty"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Pincode string  `json:"pincode"`
	Phone   string  `json:"phone"`
}

type assignmentResponse struct {
	AssignmentID          uuid.UUID  `json:"assignment_id"`
	OrderID               uuid.UUID  `json:"order_id"`
	Status                string     `json:"status"`
	PickupAddress         string     `json:"pickup_address"`
	DeliveryAddress       string     `json:"delivery_address"`
	DeliveryCity          string     `json:"delivery_city"`
	DeliveryFee           string     `json:"delivery_fee"`
	EstimatedDeliveryDate time.Time  `json:"estimated_delivery_date"`
	DeliveredAt           *time.Time `json:"delivered_at,omitempty"`
	CustomerContact       string     `json:"customer_contact,omitempty"`
	OrderNumber           string     `json:"order_number,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

type trackingEventResponse struct {
	Status    string    `json:"status"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type walletResponse struct {
	WalletID      uuid.UUID `json:"wallet_id"`
	Balance       string    `json:"balance"`
	TotalCredited string    `json:"total_credited"`
	TotalDebited  string    `json:"total_debited"`
}

type walletTxResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description"`
	BalanceAfter  string    `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

type ledgerEntryResponse struct {
	EntryID     uuid.UUID  `json:"entry_id"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	Amount      string     `json:"amount"`
	EntryType   string     `json:"entry_type"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

type agentResponse struct {
	AgentID            uuid.UUID `json:"agent_id"`
	UserID             uuid.UUID `json:"user_id"`
	Name               string    `json:"name,omitempty"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone"`
	VehicleType        string    `json:"vehicle_type"`
	VehicleNumber      string    `json:"vehicle_number"`
	ApprovalStatus     string    `json:"approval_status"`
	AvailabilityStatus string    `json:"availability_status"`
	IsBlocked          bool      `json:"is_blocked"`
	City               string    `json:"city"`
	ServiceCities      []string  `json:"service_cities,omitempty"`
	TotalDeliveries    int       `json:"total_deliveries"`
	CreatedAt          time.Time `json:"created_at"`
}

type approvalLogResponse struct {
	LogID       uuid.UUID `json:"log_id"`
	AdminUserID uuid.UUID `json:"admin_user_id"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type commissionResponse struct {
	SettingID      uuid.UUID `json:"setting_id"`
	Category       *string   `json:"category,omitempty"`
	Percentage     string    `json:"percentage"`
	BasicFee       string    `json:"basic_fee"`
	CommissionType string    `json:"commission_type"`
	IsActive       bool      `json:"is_active"`
}

type notificationResponse struct {
	NotificationID uuid.UUID  `json:"notification_id"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	OrderID        *uuid.UUID `json:"order_id,omitempty"`
	IsRead         bool       `json:"is_read"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	resp := orderResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: string(order.PaymentMethod),
		Subtotal:      money(order.Subtotal),
		Tax:           money(order.Tax),
		ShippingFee:   money(order.ShippingFee),
		Total:         money(order.Total),
		CreatedAt:     order.CreatedAt,
	}
	if order.Address != nil {
		resp.Address = &addressResponse{
			Line1:   order.Address.Line1,
			Line2:   order.Address.Line2,
			City:    order.Address.City,
			State:   order.Address.State,
			Pincode: order.Address.Pincode,
			Phone:   order.Address.Phone,
		}
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, newOrderItemResponse(item))
	}
	for _, h := range order.History {
		resp.History = append(resp.History, historyResponse{
			Status:    string(h.Status),
			Notes:     h.Notes,
			CreatedAt: h.CreatedAt,
		})
	}
	return resp
}

func newOrderItemResponse(item models.OrderItem) orderItemResponse {
	return orderItemResponse{
		ItemID:       item.ID,
		OrderID:      item.OrderID,
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		ProductPrice: money(item.ProductPrice),
		Quantity:     item.Quantity,
		Subtotal:     money(item.Subtotal),
		VendorStatus: string(item.VendorStatus),
		IsSettled:    item.IsSettled,
	}
}

func newAssignmentResponse(a *models.Assignment) assignmentResponse {
	if a == nil {
		return assignmentResponse{}
	}
	resp := assignmentResponse{
		AssignmentID:          a.ID,
		OrderID:               a.OrderID,
		Status:                string(a.Status),
		PickupAddress:         a.PickupAddress,
		DeliveryAddress:       a.DeliveryAddress,
		DeliveryCity:          a.DeliveryCity,
		DeliveryFee:           money(a.DeliveryFee),
		EstimatedDeliveryDate: a.EstimatedDeliveryDate,
		DeliveredAt:           a.DeliveredAt,
		CustomerContact:       a.CustomerContact,
		CreatedAt:             a.CreatedAt,
	}
	if a.Order != nil {
		resp.OrderNumber = a.Order.OrderNumber
	}
	return resp
}

func newTrackingEventResponse(e models.TrackingEvent) trackingEventResponse {
	return trackingEventResponse{
		Status:    e.Status,
		Address:   e.Address,
		Notes:     e.Notes,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
		CreatedAt: e.CreatedAt,
	}
}

func newWalletResponse(w *models.Wallet) walletResponse {
	if w == nil {
		return walletResponse{}
	}
	return walletResponse{
		WalletID:      w.ID,
		Balance:       money(w.Balance),
		TotalCredited: money(w.TotalCredited),
		TotalDebited:  money(w.TotalDebited),
	}
}

func newWalletTxResponse(tx models.WalletTransaction) walletTxResponse {
	return walletTxResponse{
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        money(tx.Amount),
		Description:   tx.Description,
		BalanceAfter:  money(tx.BalanceAfter),
		CreatedAt:     tx.CreatedAt,
	}
}

func newLedgerEntryResponse(entry models.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		EntryID:     entry.ID,
		OrderID:     entry.OrderID,
		Amount:      money(entry.Amount),
		EntryType:   string(entry.EntryType),
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
}

func newAgentResponse(agent *models.AgentProfile) agentResponse {
	if agent == nil {
		return agentResponse{}
	}
	resp := agentResponse{
		AgentID:            agent.ID,
		UserID:             agent.UserID,
		Phone:              agent.Phone,
		VehicleType:        agent.VehicleType,
		VehicleNumber:      agent.VehicleNumber,
		ApprovalStatus:     string(agent.ApprovalStatus),
		AvailabilityStatus: string(agent.AvailabilityStatus),
		IsBlocked:          agent.IsBlocked,
		City:               agent.City,
		ServiceCities:      agent.ServiceCities,
		TotalDeliveries:    agent.TotalDeliveries,
		CreatedAt:          agent.CreatedAt,
	}
	if agent.User != nil {
		resp.Name = agent.User.FirstName + " " + agent.User.LastName
		resp.Email = agent.User.Email
	}
	return resp
}

func newApprovalLogResponse(log models.AgentApprovalLog) approvalLogResponse {
	return approvalLogResponse{
		LogID:       log.ID,
		AdminUserID: log.AdminUserID,
		Action:      log.Action,
		Reason:      log.Reason,
		CreatedAt:   log.CreatedAt,
	}
}

func newCommissionResponse(setting *models.CommissionSetting) commissionResponse {
	if setting == nil {
		return commissionResponse{}
	}
	return commissionResponse{
		SettingID:      setting.ID,
		Category:       setting.Category,
		Percentage:     setting.Percentage.StringFixed(2),
		BasicFee:       money(setting.BasicFee),
		CommissionType: string(setting.CommissionType),
		IsActive:       setting.IsActive,
	}
}

func newNotificationResponse(n models.Notification) notificationResponse {
	return notificationResponse{
		NotificationID: n.ID,
		Type:           string(n.Type),
		Title:          n.Title,
		Message:        n.Message,
		OrderID:        n.OrderID,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
	}
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}
