package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
)

// Service moves money in and out of user wallets. Credit and Debit are
// designed to run inside a caller-owned transaction so settlement and
// delivery flows stay atomic; pass the open *gorm.DB handle as tx.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string) (*models.WalletTransaction, error)
	Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string) (*models.WalletTransaction, error)
	Transfer(ctx context.Context, tx *gorm.DB, fromUserID, toUserID uuid.UUID, amount decimal.Decimal, description string) error
	Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Statement(ctx context.Context, userID uuid.UUID, limit int) (*models.Wallet, []models.WalletTransaction, error)
}

type service struct {
	repo Repository
}

// NewService wires a wallet service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string) (*models.WalletTransaction, error) {
	return s.apply(ctx, tx, userID, amount, description, enums.EntryTypeCredit)
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string) (*models.WalletTransaction, error) {
	return s.apply(ctx, tx, userID, amount, description, enums.EntryTypeDebit)
}

// Transfer debits one wallet and credits another in order, inside the
// caller's transaction. The platform wallet may go negative on the
// debit side; every other wallet is balance-checked.
func (s *service) Transfer(ctx context.Context, tx *gorm.DB, fromUserID, toUserID uuid.UUID, amount decimal.Decimal, description string) error {
	if fromUserID == toUserID {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer requires two distinct wallets")
	}
	if _, err := s.Debit(ctx, tx, fromUserID, amount, description); err != nil {
		return err
	}
	if _, err := s.Credit(ctx, tx, toUserID, amount, description); err != nil {
		return err
	}
	return nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	wallet, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.Wallet{UserID: userID}, nil
		}
		return nil, err
	}
	return wallet, nil
}

func (s *service) Statement(ctx context.Context, userID uuid.UUID, limit int) (*models.Wallet, []models.WalletTransaction, error) {
	wallet, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if wallet.ID == uuid.Nil {
		return wallet, nil, nil
	}
	txns, err := s.repo.ListTransactions(ctx, wallet.ID, limit)
	if err != nil {
		return nil, nil, err
	}
	return wallet, txns, nil
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string, kind enums.EntryType) (*models.WalletTransaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	wallet, err := repo.FindOrCreateForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case enums.EntryTypeCredit:
		wallet.Balance = wallet.Balance.Add(amount)
		wallet.TotalCredited = wallet.TotalCredited.Add(amount)
	case enums.EntryTypeDebit:
		if wallet.Balance.LessThan(amount) && !wallet.IsPlatform {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance too low").
				WithDetails(map[string]string{
					"balance":   wallet.Balance.StringFixed(2),
					"requested": amount.StringFixed(2),
				})
		}
		wallet.Balance = wallet.Balance.Sub(amount)
		wallet.TotalDebited = wallet.TotalDebited.Add(amount)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid entry type")
	}

	if err := repo.Save(ctx, wallet); err != nil {
		return nil, err
	}

	txn := &models.WalletTransaction{
		WalletID:     wallet.ID,
		Type:         kind,
		Amount:       amount,
		Description:  description,
		BalanceAfter: wallet.Balance,
	}
	if err := repo.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
