package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePaymentSplit_SumsToTotal(t *testing.T) {
	totals := []int64{0, 1, 99, 150000, 300000, 333333, 1_000_001}
	for _, total := range totals {
		for pct := 0; pct <= 100; pct++ {
			split, err := CalculatePaymentSplit(total, pct)
			require.NoError(t, err)
			assert.Equal(t, total, split.AppAmount+split.MitraAmount, "total=%d pct=%d", total, pct)
			assert.GreaterOrEqual(t, split.MitraAmount, int64(0))
		}
	}
}

func TestCalculatePaymentSplit_Boundaries(t *testing.T) {
	split, err := CalculatePaymentSplit(300000, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), split.AppAmount)
	assert.Equal(t, int64(300000), split.MitraAmount)

	split, err = CalculatePaymentSplit(300000, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), split.AppAmount)
	assert.Equal(t, int64(0), split.MitraAmount)
}

func TestCalculatePaymentSplit_RoundsHalfUp(t *testing.T) {
	// 25 * 10 / 100 = 2.5
	split, err := CalculatePaymentSplit(25, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), split.AppAmount)
	assert.Equal(t, int64(22), split.MitraAmount)

	split, err = CalculatePaymentSplit(300000, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), split.AppAmount)
	assert.Equal(t, int64(240000), split.MitraAmount)
}

func TestCalculatePaymentSplit_RejectsOutOfRange(t *testing.T) {
	_, err := CalculatePaymentSplit(1000, -1)
	assert.ErrorIs(t, err, ErrInvalidCommission)

	_, err = CalculatePaymentSplit(1000, 101)
	assert.ErrorIs(t, err, ErrInvalidCommission)

	_, err = CalculatePaymentSplit(-5, 20)
	assert.Error(t, err)
}
