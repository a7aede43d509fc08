// Package store persists session snapshots and failed payout legs.
// Snapshots exist for crash recovery only; live rounds never read them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/blackjack-live/backend/internal/blackjack"
)

// SessionSnapshot is the latest persisted state for a room.
type SessionSnapshot struct {
	RoomID    string `gorm:"primaryKey"`
	State     []byte `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

// Reconciliation is a payout leg that failed and needs operator attention.
// A separate reconciliation process retries these; the game never does.
type Reconciliation struct {
	ID        uint `gorm:"primaryKey"`
	RoomID    string
	PlayerID  string
	Leg       string
	Amount    int64
	Cause     string
	CreatedAt time.Time
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&SessionSnapshot{}, &Reconciliation{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, state *blackjack.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	snap := SessionSnapshot{RoomID: state.RoomID, State: raw, UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Save(&snap).Error
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LoadSnapshot(ctx context.Context, roomID string) (*blackjack.State, error) {
	var snap SessionSnapshot
	err := s.db.WithContext(ctx).First(&snap, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var state blackjack.State
	if err := json.Unmarshal(snap.State, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &state, nil
}

func (s *Store) RecordPendingPayout(ctx context.Context, roomID, playerID, leg string, amount int64, cause error) error {
	entry := Reconciliation{
		RoomID:   roomID,
		PlayerID: playerID,
		Leg:      leg,
		Amount:   amount,
		Cause:    cause.Error(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record pending payout: %w", err)
	}
	return nil
}

// PendingPayouts lists unresolved reconciliation entries, oldest first.
func (s *Store) PendingPayouts(ctx context.Context, limit int) ([]Reconciliation, error) {
	var entries []Reconciliation
	err := s.db.WithContext(ctx).Order("created_at asc").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list pending payouts: %w", err)
	}
	return entries, nil
}
