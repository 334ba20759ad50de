package usage

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	models "github.com/snapcal/billing/internal/models"
)

func TestDecide(t *testing.T) {
	three := lo.ToPtr(3)

	tests := []struct {
		name        string
		current     int
		amount      int
		limit       *int
		wantAllowed bool
		wantCount   int
	}{
		{name: "nil limit always allows", current: 1000, amount: 5, limit: nil, wantAllowed: true, wantCount: 1005},
		{name: "under limit", current: 0, amount: 1, limit: three, wantAllowed: true, wantCount: 1},
		{name: "reaching limit exactly", current: 2, amount: 1, limit: three, wantAllowed: true, wantCount: 3},
		{name: "over limit refused", current: 3, amount: 1, limit: three, wantAllowed: false, wantCount: 3},
		{name: "refusal leaves count untouched", current: 2, amount: 5, limit: three, wantAllowed: false, wantCount: 2},
		{name: "zero limit refuses everything", current: 0, amount: 1, limit: lo.ToPtr(0), wantAllowed: false, wantCount: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			allowed, count := decide(tc.current, tc.amount, tc.limit)
			assert.Equal(t, tc.wantAllowed, allowed)
			assert.Equal(t, tc.wantCount, count)
		})
	}
}

func TestUpsertSQL_TableNameComesFromModel(t *testing.T) {
	table := models.DailyUsage{}.TableName()
	sql := upsertSQL()
	assert.Contains(t, sql, "INSERT INTO "+table+" ")
	assert.Contains(t, sql, table+".count + EXCLUDED.count")
	assert.NotContains(t, sql, "%")
}

// A user with a limit of 3 consuming one unit at a time: three allowed
// increments, then refusals that never advance the counter.
func TestDecide_SequentialConsumption(t *testing.T) {
	limit := lo.ToPtr(3)
	count := 0

	for i := 1; i <= 3; i++ {
		allowed, next := decide(count, 1, limit)
		assert.True(t, allowed, "increment %d", i)
		assert.Equal(t, i, next)
		count = next
	}
	for i := 0; i < 2; i++ {
		allowed, next := decide(count, 1, limit)
		assert.False(t, allowed)
		assert.Equal(t, 3, next)
		count = next
	}
}
