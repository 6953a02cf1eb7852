package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/internal/wallet"
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

// Service settles delivered order items into vendor wallets and runs
// vendor withdrawals. Every money movement leaves a LedgerEntry.
type Service interface {
	Settle(ctx context.Context, orderItemID, adminUserID uuid.UUID) (*models.LedgerEntry, error)
	Withdraw(ctx context.Context, vendorUserID uuid.UUID, amount decimal.Decimal) (*models.LedgerEntry, error)
	Entries(ctx context.Context, vendorUserID uuid.UUID, limit int) ([]models.LedgerEntry, error)
	PendingItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

type service struct {
	tx      txRunner
	repo    Repository
	wallets wallet.Service
	notify  notifier
	logg    *logger.Logger
	metrics *metrics.DeliveryMetrics
}

// NewService wires the settlement service.
func NewService(
	tx txRunner,
	repo Repository,
	wallets wallet.Service,
	notify notifier,
	logg *logger.Logger,
	deliveryMetrics *metrics.DeliveryMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		wallets: wallets,
		notify:  notify,
		logg:    logg,
		metrics: deliveryMetrics,
	}, nil
}

// Settle pays one delivered order item out to its vendor. The net
// amount is the line subtotal minus the commission frozen at checkout.
// The platform wallet funds the transfer and is allowed to go negative.
func (s *service) Settle(ctx context.Context, orderItemID, adminUserID uuid.UUID) (*models.LedgerEntry, error) {
	if orderItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}
	if adminUserID != uuid.Nil {
		ctx = s.logg.WithUserID(ctx, adminUserID.String())
	}

	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindOrderItemForUpdate(ctx, orderItemID)
		if err != nil {
			if isNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return err
		}
		if item.IsSettled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order item is already settled")
		}

		order, err := repo.FindOrder(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot settle an order in status %s", order.Status))
		}

		platform, err := repo.FindPlatformWallet(ctx)
		if err != nil {
			if isNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeDependency, "platform wallet is not provisioned")
			}
			return err
		}

		net := item.Subtotal.Sub(item.CommissionAmount)
		description := fmt.Sprintf("settlement for order %s, item %s", order.OrderNumber, item.ID)
		if err := s.wallets.Transfer(ctx, tx, platform.UserID, item.VendorID, net, description); err != nil {
			return err
		}

		now := time.Now().UTC()
		item.IsSettled = true
		item.SettledAt = &now
		if err := repo.SaveOrderItem(ctx, item); err != nil {
			return err
		}

		entry = &models.LedgerEntry{
			VendorID:    item.VendorID,
			OrderID:     &item.OrderID,
			Amount:      net,
			EntryType:   enums.EntryTypeCredit,
			Description: description,
		}
		return repo.CreateEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSettlement()
	if s.notify != nil {
		s.notify.Notify(ctx, entry.VendorID, enums.NotificationTypeWallet,
			"Settlement received",
			fmt.Sprintf("%s has been credited to your wallet.", entry.Amount.StringFixed(2)),
			entry.OrderID)
	}
	return entry, nil
}

// Withdraw debits a vendor wallet. Insufficient funds abort the whole
// operation; no ledger row is written on failure.
func (s *service) Withdraw(ctx context.Context, vendorUserID uuid.UUID, amount decimal.Decimal) (*models.LedgerEntry, error) {
	if vendorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor user id required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}

	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.wallets.Debit(ctx, tx, vendorUserID, amount, "wallet withdrawal"); err != nil {
			return err
		}
		entry = &models.LedgerEntry{
			VendorID:    vendorUserID,
			Amount:      amount,
			EntryType:   enums.EntryTypeDebit,
			Description: "wallet withdrawal",
		}
		return repo.CreateEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Entries(ctx context.Context, vendorUserID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if vendorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor user id required")
	}
	return s.repo.ListEntriesByVendor(ctx, vendorUserID, limit)
}

func (s *service) PendingItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.ListUnsettledItemsByOrder(ctx, orderID)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
