package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 60*time.Second, cfg.BetWindow)
	assert.Equal(t, 60*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 10*time.Second, cfg.PayoutTimeout)
	assert.Equal(t, 7, cfg.RoomCap)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("BET_WINDOW", "30s")
	t.Setenv("TURN_TIMEOUT", "15s")
	t.Setenv("ROOM_CAP", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.BetWindow)
	assert.Equal(t, 15*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 4, cfg.RoomCap)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("BET_WINDOW", "not-a-duration")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadRoomCap(t *testing.T) {
	t.Setenv("ROOM_CAP", "0")
	_, err := Load()
	assert.Error(t, err)
}
