package swing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrz_bot/internal/models"
)

func series(highs, lows []float64) []models.Candle {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(highs))
	for i := range highs {
		out[i] = models.Candle{
			Time: t0.Add(time.Duration(i) * time.Hour),
			Open: lows[i] + 0.5, Close: highs[i] - 0.5,
			High: highs[i], Low: lows[i],
		}
	}
	return out
}

func TestFindPivotHigh(t *testing.T) {
	c := series(
		[]float64{10, 11, 12, 15, 12, 11, 10},
		[]float64{9, 9, 9, 9, 9, 9, 9},
	)
	ok, px := SwingHigh(c, 3, 3, 3)
	require.True(t, ok)
	assert.Equal(t, 15.0, px)

	ok, _ = SwingHigh(c, 2, 2, 2)
	assert.False(t, ok)
}

func TestEqualNeighbourInvalidates(t *testing.T) {
	c := series(
		[]float64{10, 11, 15, 15, 12, 11, 10},
		[]float64{9, 9, 9, 9, 9, 9, 9},
	)
	ok, _ := SwingHigh(c, 3, 3, 3)
	assert.False(t, ok)
}

func TestFindPivotLow(t *testing.T) {
	c := series(
		[]float64{20, 20, 20, 20, 20, 20, 20},
		[]float64{9, 8, 7, 5, 7, 8, 9},
	)
	ok, px := SwingLow(c, 3, 3, 3)
	require.True(t, ok)
	assert.Equal(t, 5.0, px)
}

func TestEdgesNeverPivot(t *testing.T) {
	// monotonic extremes sit at both ends
	highs := []float64{30, 20, 19, 18, 17, 16, 15, 14, 13, 40}
	lows := []float64{1, 5, 6, 7, 8, 9, 10, 11, 12, 0.5}
	c := series(highs, lows)
	d := NewDetector(3, 3)

	for i := range c {
		okH, _ := SwingHigh(c, i, d.Left, d.Right)
		okL, _ := SwingLow(c, i, d.Left, d.Right)
		if i < d.Left || i >= len(c)-d.Right {
			assert.False(t, okH, "index %d", i)
			assert.False(t, okL, "index %d", i)
		}
	}

	all := d.DetectAll(c)
	for _, s := range append(all.Highs, all.Lows...) {
		assert.GreaterOrEqual(t, s.BarIndex, d.Left)
		assert.Less(t, s.BarIndex, len(c)-d.Right)
	}
}

func TestDetectAllAndRecent(t *testing.T) {
	highs := []float64{10, 11, 12, 16, 12, 11, 10, 11, 12, 18, 12, 11, 10}
	lows := []float64{9, 8, 7, 9, 7, 6, 5, 6, 7, 9, 8, 8, 8}
	c := series(highs, lows)
	d := NewDetector(0, 0)
	assert.Equal(t, 3, d.Left)

	all := d.DetectAll(c)
	require.Len(t, all.Highs, 2)
	assert.Equal(t, 3, all.Highs[0].BarIndex)
	assert.Equal(t, 9, all.Highs[1].BarIndex)
	assert.Equal(t, models.SwingHigh, all.Highs[1].Kind)
	assert.Equal(t, c[9].Time, all.Highs[1].Timestamp)

	require.Len(t, all.Lows, 1)
	assert.Equal(t, 6, all.Lows[0].BarIndex)
}

func TestShortSlice(t *testing.T) {
	d := NewDetector(3, 3)
	all := d.DetectAll(series([]float64{1, 2}, []float64{0, 1}))
	assert.Empty(t, all.Highs)
	assert.Empty(t, all.Lows)
}
