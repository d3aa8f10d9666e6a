package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyueqh/sentinel/pkg/futures"
)

func syntheticBars(n int, close func(i int) float64) []futures.Bar {
	bars := make([]futures.Bar, n)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := range bars {
		c := close(i)
		bars[i] = futures.Bar{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   c - 1,
			High:   c + 2,
			Low:    c - 2,
			Close:  c,
			Volume: 1000 + float64(i%10)*50,
		}
	}
	return bars
}

func TestCalculateEmptySeriesFails(t *testing.T) {
	s := NewIndicatorService()

	_, err := s.Calculate("60", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "为空")

	_, err = s.CalculateSeries([]futures.Bar{})
	require.Error(t, err)
}

func TestCalculateDeterministic(t *testing.T) {
	s := NewIndicatorService()
	bars := syntheticBars(100, func(i int) float64 {
		return 3000 + 80*math.Sin(float64(i)/7)
	})

	first, err := s.Calculate("60", bars)
	require.NoError(t, err)
	second, err := s.Calculate("60", bars)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculateRSIExtremes(t *testing.T) {
	s := NewIndicatorService()

	up, err := s.Calculate("60", syntheticBars(100, func(i int) float64 { return 100 + float64(i) }))
	require.NoError(t, err)
	assert.InDelta(t, 100, up.RSI14, 1e-6)

	down, err := s.Calculate("60", syntheticBars(100, func(i int) float64 { return 300 - float64(i) }))
	require.NoError(t, err)
	assert.InDelta(t, 0, down.RSI14, 1e-6)
}

func TestCalculateBollOrderingAndValidate(t *testing.T) {
	s := NewIndicatorService()
	bars := syntheticBars(120, func(i int) float64 {
		return 4000 + 60*math.Sin(float64(i)/5)
	})

	ind, err := s.Calculate("30", bars)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, ind.BollUpper, ind.BollMid)
	assert.GreaterOrEqual(t, ind.BollMid, ind.BollLower)
	assert.GreaterOrEqual(t, ind.RSI14, 0.0)
	assert.LessOrEqual(t, ind.RSI14, 100.0)
	assert.Greater(t, ind.ATR14, 0.0)
	assert.Empty(t, s.Validate(ind))
}

func TestValidateFlagsBadData(t *testing.T) {
	s := NewIndicatorService()
	issues := s.Validate(&IndicatorSet{
		Price:     -1,
		RSI14:     120,
		BollUpper: 1,
		BollMid:   2,
		BollLower: 3,
		Volume:    -5,
	})
	assert.Len(t, issues, 4)
}
