package commission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/db"
	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
)

// Default platform cut when no setting row matches: 10% of the line
// subtotal with no basic fee.
var (
	defaultRate = decimal.NewFromInt(10)
	hundred     = decimal.NewFromInt(100)
)

// RateInfo is the resolved commission configuration for one line.
type RateInfo struct {
	Rate     decimal.Decimal
	BasicFee decimal.Decimal
	Type     enums.CommissionType
	Source   string // category, global or default
}

// UpsertInput captures an admin create/update of a commission setting.
type UpsertInput struct {
	Category       *string
	Percentage     decimal.Decimal
	BasicFee       decimal.Decimal
	CommissionType enums.CommissionType
}

// Service resolves and computes platform commissions and manages the
// admin-facing settings.
type Service interface {
	Resolve(ctx context.Context, category string) (RateInfo, error)
	List(ctx context.Context) ([]models.CommissionSetting, error)
	Upsert(ctx context.Context, input UpsertInput) (*models.CommissionSetting, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires a commission service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	return &service{repo: repo}, nil
}

// Resolve walks category row, then global row, then the built-in
// default. Returned rates are frozen onto order items at checkout, so
// later setting changes never reprice existing orders.
func (s *service) Resolve(ctx context.Context, category string) (RateInfo, error) {
	category = strings.TrimSpace(category)
	if category != "" {
		setting, err := s.repo.FindActiveByCategory(ctx, category)
		if err == nil {
			return fromSetting(setting, "category"), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return RateInfo{}, err
		}
	}

	setting, err := s.repo.FindActiveGlobal(ctx)
	if err == nil {
		return fromSetting(setting, "global"), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return RateInfo{}, err
	}

	return RateInfo{
		Rate:     defaultRate,
		BasicFee: decimal.Zero,
		Type:     enums.CommissionTypePercentage,
		Source:   "default",
	}, nil
}

func (s *service) List(ctx context.Context) ([]models.CommissionSetting, error) {
	return s.repo.List(ctx)
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) (*models.CommissionSetting, error) {
	if !input.CommissionType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid commission type")
	}
	if input.Percentage.IsNegative() || input.BasicFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate and basic fee must not be negative")
	}
	if input.Category != nil {
		trimmed := strings.TrimSpace(*input.Category)
		if trimmed == "" {
			input.Category = nil
		} else {
			input.Category = &trimmed
		}
	}

	var existing *models.CommissionSetting
	var err error
	if input.Category != nil {
		existing, err = s.repo.FindActiveByCategory(ctx, *input.Category)
	} else {
		existing, err = s.repo.FindActiveGlobal(ctx)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.Percentage = input.Percentage
		existing.BasicFee = input.BasicFee
		existing.CommissionType = input.CommissionType
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	setting := &models.CommissionSetting{
		Category:       input.Category,
		Percentage:     input.Percentage,
		BasicFee:       input.BasicFee,
		CommissionType: input.CommissionType,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, setting); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a setting for this category already exists")
		}
		return nil, err
	}
	return setting, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	setting, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "commission setting not found")
		}
		return err
	}
	setting.IsActive = false
	return s.repo.Save(ctx, setting)
}

func fromSetting(setting *models.CommissionSetting, source string) RateInfo {
	return RateInfo{
		Rate:     setting.Percentage,
		BasicFee: setting.BasicFee,
		Type:     setting.CommissionType,
		Source:   source,
	}
}

// Compute prices the platform's cut of one order line. Percentage
// settings take rate percent of price*qty plus the basic fee; fixed
// settings charge rate plus the basic fee regardless of line value.
func Compute(price decimal.Decimal, quantity int, info RateInfo) decimal.Decimal {
	if info.Type == enums.CommissionTypeFixed {
		return info.Rate.Add(info.BasicFee)
	}
	qty := decimal.NewFromInt(int64(quantity))
	return price.Mul(qty).Mul(info.Rate).Div(hundred).Add(info.BasicFee)
}
