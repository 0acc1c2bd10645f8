package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHigherTimeframe(t *testing.T) {
	tf, err := HigherTimeframe("15m", 4)
	require.NoError(t, err)
	assert.Equal(t, "1h", tf)

	tf, err = HigherTimeframe("1h", 4)
	require.NoError(t, err)
	assert.Equal(t, "4h", tf)

	// 6h*4 = 24h
	tf, err = HigherTimeframe("6h", 4)
	require.NoError(t, err)
	assert.Equal(t, "1d", tf)

	_, err = HigherTimeframe("7m", 4)
	assert.Error(t, err)
}

func TestBaseTimeframe(t *testing.T) {
	tf, err := BaseTimeframe("auto", "15m")
	require.NoError(t, err)
	assert.Equal(t, "1h", tf)

	tf, err = BaseTimeframe("", "5m")
	require.NoError(t, err)
	assert.Equal(t, "30m", tf)

	tf, err = BaseTimeframe("4H", "15m")
	require.NoError(t, err)
	assert.Equal(t, "4h", tf)

	_, err = BaseTimeframe("weird", "15m")
	assert.Error(t, err)
}

func TestNormTF(t *testing.T) {
	assert.Equal(t, "1h", NormTF("60m"))
	assert.Equal(t, "1M", NormTF("1M"))
	assert.Equal(t, "1d", NormTF("1D"))
}

func TestCandleWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	start, end := CandleWindow("15m", 50, now)
	assert.Equal(t, int64(1_700_000_000), end)
	assert.Equal(t, int64(1_700_000_000-50*900), start)
	assert.Equal(t, int64(3600), TimeframeSeconds("unknown"))
}

func TestRoundToTick(t *testing.T) {
	assert.Equal(t, 99.5, RoundDownToTick(99.74, 0.5))
	assert.Equal(t, 100.0, RoundUpToTick(99.74, 0.5))
	assert.Equal(t, 0.3, RoundDownToTick(0.3, 0.1))
	assert.Equal(t, 0.3, RoundUpToTick(0.2999999, 0.1))
	assert.Equal(t, 1.2345, RoundDownToTick(1.2345, 0))
	assert.Equal(t, "0.0012", FormatPrice(RoundUpToTick(0.00115, 0.0001)))
}
