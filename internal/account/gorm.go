package account

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Account is the persisted balance row.
type Account struct {
	ID      string `gorm:"primaryKey"`
	Balance int64  `gorm:"not null"`
}

// Store is the gorm-backed balance service. Row-level updates with a
// balance guard make Debit atomic without an explicit transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Account{}); err != nil {
		return nil, fmt.Errorf("migrate accounts: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) GetBalance(ctx context.Context, playerID string) (int64, error) {
	var a Account
	err := s.db.WithContext(ctx).First(&a, "id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUnknownAccount
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return a.Balance, nil
}

func (s *Store) Debit(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	res := s.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ? AND balance >= ?", playerID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetBalance(ctx, playerID); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

func (s *Store) Credit(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	res := s.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", playerID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUnknownAccount
	}
	return nil
}
