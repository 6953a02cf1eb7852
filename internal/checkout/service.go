package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/internal/commission"
	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
}

// LineInput is one purchased line. Product-backed lines resolve price,
// name, vendor and stock from the catalog; custom lines carry their own
// snapshot and must name the vendor.
type LineInput struct {
	ProductID *uuid.UUID
	VendorID  *uuid.UUID
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// PlaceOrderInput captures a checkout request.
type PlaceOrderInput struct {
	UseCart       bool
	Lines         []LineInput
	AddressID     *uuid.UUID
	PaymentMethod enums.PaymentMethod
	TransactionID string
}

// Service executes the order placement pipeline.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	commissions commission.Service
	notify      notifier
	logg        *logger.Logger
}

// NewService wires the checkout service.
func NewService(tx txRunner, repo Repository, commissions commission.Service, notify notifier, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if commissions == nil {
		return nil, fmt.Errorf("commission service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, commissions: commissions, notify: notify, logg: logg}, nil
}

// PlaceOrder validates stock, decrements it, creates the order with its
// payment and frozen line snapshots, and clears the cart, all in one
// transaction. Any stock shortfall aborts the whole order.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lines := input.Lines
		var cart *models.Cart
		if input.UseCart {
			var err error
			cart, err = repo.FindCartWithItems(ctx, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
				}
				return err
			}
			lines = cartLines(cart)
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "order has no lines")
		}

		products, err := s.lockProducts(ctx, repo, lines)
		if err != nil {
			return err
		}
		if err := validateStock(lines, products); err != nil {
			return err
		}
		for _, line := range lines {
			if line.ProductID == nil {
				continue
			}
			ok, err := repo.DecrementStock(ctx, *line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				p := products[*line.ProductID]
				return insufficientStock(p.Name, p.StockQuantity, line.Quantity)
			}
		}

		var addressID *uuid.UUID
		if input.AddressID != nil {
			address, err := repo.FindAddress(ctx, *input.AddressID, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "delivery address not found")
				}
				return err
			}
			addressID = &address.ID
		}

		items, subtotal, err := s.buildItems(ctx, lines, products)
		if err != nil {
			return err
		}

		txnID := strings.TrimSpace(input.TransactionID)
		if txnID == "" {
			txnID = "TXN-" + randomHex(8)
		}
		now := time.Now().UTC()
		order = &models.Order{
			OrderNumber:   "ORD-" + randomHex(8),
			TransactionID: txnID,
			UserID:        userID,
			Subtotal:      subtotal,
			Tax:           decimal.Zero,
			ShippingFee:   decimal.Zero,
			Total:         subtotal,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusCompleted,
			PaymentMethod: input.PaymentMethod,
			AddressID:     addressID,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return err
		}
		if err := repo.CreatePayment(ctx, &models.Payment{
			OrderID:       order.ID,
			UserID:        userID,
			Method:        input.PaymentMethod,
			Amount:        order.Total,
			TransactionID: txnID,
			Status:        enums.PaymentStatusCompleted,
			CompletedAt:   &now,
		}); err != nil {
			return err
		}
		if err := repo.AppendOrderHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusPending,
			Notes:     "order placed",
			ChangedBy: &userID,
		}); err != nil {
			return err
		}

		if input.UseCart && cart != nil {
			if err := repo.ClearCart(ctx, cart.ID); err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.Notify(ctx, userID, enums.NotificationTypeOrder,
			"Order placed",
			fmt.Sprintf("Your order %s has been placed.", order.OrderNumber),
			&order.ID)
		seen := map[uuid.UUID]struct{}{}
		for _, item := range order.Items {
			if _, ok := seen[item.VendorID]; ok {
				continue
			}
			seen[item.VendorID] = struct{}{}
			s.notify.Notify(ctx, item.VendorID, enums.NotificationTypeOrder,
				"New order received",
				fmt.Sprintf("Order %s contains items from your shop.", order.OrderNumber),
				&order.ID)
		}
	}
	return order, nil
}

func (s *service) lockProducts(ctx context.Context, repo Repository, lines []LineInput) (map[uuid.UUID]models.Product, error) {
	var ids []uuid.UUID
	for _, line := range lines {
		if line.ProductID != nil {
			ids = append(ids, *line.ProductID)
		}
	}
	products, err := repo.FindProductsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product unavailable").
				WithDetails(map[string]string{"product_id": id.String()})
		}
	}
	return byID, nil
}

func (s *service) buildItems(ctx context.Context, lines []LineInput, products map[uuid.UUID]models.Product) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(lines))
	subtotal := decimal.Zero

	for _, line := range lines {
		var (
			vendorID  uuid.UUID
			productID *uuid.UUID
			name      string
			price     decimal.Decimal
			category  string
		)
		if line.ProductID != nil {
			p := products[*line.ProductID]
			vendorID = p.VendorID
			productID = line.ProductID
			name = p.Name
			price = p.Price
			category = p.Category
		} else {
			if line.VendorID == nil {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "custom lines must name a vendor")
			}
			vendorID = *line.VendorID
			name = strings.TrimSpace(line.Name)
			price = line.Price
			if name == "" || price.LessThanOrEqual(decimal.Zero) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "custom lines need a name and positive price")
			}
		}

		rate, err := s.commissions.Resolve(ctx, category)
		if err != nil {
			return nil, decimal.Zero, err
		}

		lineSubtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.OrderItem{
			VendorID:         vendorID,
			ProductID:        productID,
			ProductName:      name,
			ProductPrice:     price,
			Quantity:         line.Quantity,
			Subtotal:         lineSubtotal,
			CommissionRate:   rate.Rate,
			CommissionAmount: commission.Compute(price, line.Quantity, rate),
			VendorStatus:     enums.VendorItemStatusPending,
		})
		subtotal = subtotal.Add(lineSubtotal)
	}
	return items, subtotal, nil
}

func cartLines(cart *models.Cart) []LineInput {
	lines := make([]LineInput, 0, len(cart.Items))
	for i := range cart.Items {
		item := cart.Items[i]
		lines = append(lines, LineInput{
			ProductID: &item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return lines
}

func validateStock(lines []LineInput, products map[uuid.UUID]models.Product) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.ProductID == nil {
			continue
		}
		p := products[*line.ProductID]
		if p.StockQuantity < line.Quantity {
			return insufficientStock(p.Name, p.StockQuantity, line.Quantity)
		}
	}
	return nil
}

func insufficientStock(name string, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for "+name).
		WithDetails(map[string]any{
			"product":   name,
			"available": available,
			"requested": requested,
		})
}

func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// fall back to a time-derived suffix rather than panicking.
		return strings.ToUpper(hex.EncodeToString([]byte(time.Now().Format("150405.000")))[:n])
	}
	return strings.ToUpper(hex.EncodeToString(buf)[:n])
}
