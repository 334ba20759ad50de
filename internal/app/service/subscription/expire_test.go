package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextExpireAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fresh purchase starts from now", func(t *testing.T) {
		got := NextExpireAt(nil, now, 30)
		require.NotNil(t, got)
		assert.True(t, got.Equal(now.AddDate(0, 0, 30)))
	})

	t.Run("early renewal stacks onto remaining time", func(t *testing.T) {
		current := now.AddDate(0, 0, 10)
		got := NextExpireAt(&current, now, 30)
		require.NotNil(t, got)
		assert.True(t, got.Equal(current.AddDate(0, 0, 30)), "paid time already owned must be preserved")
	})

	t.Run("lapsed subscription restarts from now", func(t *testing.T) {
		current := now.AddDate(0, 0, -5)
		got := NextExpireAt(&current, now, 30)
		require.NotNil(t, got)
		assert.True(t, got.Equal(now.AddDate(0, 0, 30)), "expired time must not eat into the new period")
	})

	t.Run("end date exactly now restarts from now", func(t *testing.T) {
		current := now
		got := NextExpireAt(&current, now, 30)
		require.NotNil(t, got)
		assert.True(t, got.Equal(now.AddDate(0, 0, 30)))
	})

	t.Run("unbounded plan clears the end date", func(t *testing.T) {
		current := now.AddDate(0, 0, 10)
		assert.Nil(t, NextExpireAt(&current, now, 0))
		assert.Nil(t, NextExpireAt(nil, now, 0))
	})
}
