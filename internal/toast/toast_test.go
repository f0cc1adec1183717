package toast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCenter(now *time.Time) *Center {
	c := NewCenter(3*time.Second, nil)
	c.now = func() time.Time { return *now }
	return c
}

func TestCenter_NotifyAndExpire(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCenter(&now)

	c.Notify(Success, "Preferences saved")
	now = now.Add(time.Second)
	c.Notify(Error, "Could not save preferences")

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, Success, active[0].Level)
	assert.Equal(t, "Preferences saved", active[0].Message)
	assert.Equal(t, active[0].CreatedAt.Add(3*time.Second), active[0].ExpiresAt)
	assert.NotEqual(t, active[0].ID, active[1].ID)

	now = now.Add(2 * time.Second)
	active = c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, Error, active[0].Level)

	now = now.Add(time.Second)
	assert.Empty(t, c.Active())
}

func TestCenter_Dismiss(t *testing.T) {
	now := time.Now()
	c := newTestCenter(&now)

	c.Notify(Info, "Consent reset")
	active := c.Active()
	require.Len(t, active, 1)

	assert.True(t, c.Dismiss(active[0].ID))
	assert.False(t, c.Dismiss(active[0].ID))
	assert.Empty(t, c.Active())
}

func TestNewCenter_DefaultDuration(t *testing.T) {
	c := NewCenter(0, nil)
	assert.Equal(t, DefaultDuration, c.duration)
}
