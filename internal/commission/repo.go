package commission

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
)

// Repository manages the commission settings table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByCategory(ctx context.Context, category string) (*models.CommissionSetting, error)
	FindActiveGlobal(ctx context.Context) (*models.CommissionSetting, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionSetting, error)
	List(ctx context.Context) ([]models.CommissionSetting, error)
	Create(ctx context.Context, setting *models.CommissionSetting) error
	Save(ctx context.Context, setting *models.CommissionSetting) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a commission repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByCategory(ctx context.Context, category string) (*models.CommissionSetting, error) {
	var setting models.CommissionSetting
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Where("is_active = ?", true).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) FindActiveGlobal(ctx context.Context) (*models.CommissionSetting, error) {
	var setting models.CommissionSetting
	err := r.db.WithContext(ctx).
		Where("category IS NULL").
		Where("is_active = ?", true).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionSetting, error) {
	var setting models.CommissionSetting
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) List(ctx context.Context) ([]models.CommissionSetting, error) {
	var settings []models.CommissionSetting
	err := r.db.WithContext(ctx).
		Order("category ASC NULLS FIRST").
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *repository) Create(ctx context.Context, setting *models.CommissionSetting) error {
	return r.db.WithContext(ctx).Create(setting).Error
}

func (r *repository) Save(ctx context.Context, setting *models.CommissionSetting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}
