package account

import (
	"context"
	"sync"
)

// Memory is an in-process balance service for tests and database-less dev
// runs. A single mutex serializes all balance mutations.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[string]int64)}
}

// Seed sets a starting balance, creating the account if needed.
func (m *Memory) Seed(playerID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[playerID] = balance
}

func (m *Memory) GetBalance(_ context.Context, playerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[playerID]
	if !ok {
		return 0, ErrUnknownAccount
	}
	return b, nil
}

func (m *Memory) Debit(_ context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[playerID]
	if !ok {
		return ErrUnknownAccount
	}
	if b < amount {
		return ErrInsufficientFunds
	}
	m.balances[playerID] = b - amount
	return nil
}

func (m *Memory) Credit(_ context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[playerID]; !ok {
		return ErrUnknownAccount
	}
	m.balances[playerID] += amount
	return nil
}
