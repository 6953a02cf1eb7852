package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
)

// Repository persists vendor ledger entries and the order-item rows
// settlement flips.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderItemForUpdate(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	SaveOrderItem(ctx context.Context, item *models.OrderItem) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindPlatformWallet(ctx context.Context) (*models.Wallet, error)
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntriesByVendor(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.LedgerEntry, error)
	ListUnsettledItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindOrderItemForUpdate locks the item row so concurrent settlements
// of the same line serialize.
func (r *repository) FindOrderItemForUpdate(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) SaveOrderItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindPlatformWallet(ctx context.Context) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("is_platform = ?", true).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEntriesByVendor(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	q := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.LedgerEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListUnsettledItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Where("is_settled = ?", false).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
