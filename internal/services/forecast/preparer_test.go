package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"AirCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(at time.Time, v float64) models.Reading {
	return models.Reading{LocationID: 1, CapturedAt: at, Value: v}
}

func TestPrepareProducesRegularHourlySeries(t *testing.T) {
	p := NewPreparer(DefaultConfig())
	in := []models.Reading{
		reading(t0.Add(5*time.Hour+10*time.Minute), 20),
		reading(t0.Add(10*time.Minute), 4),
		reading(t0.Add(50*time.Minute), 6),
		reading(t0.Add(2*time.Hour), 8),
	}
	s, err := p.Prepare(in)
	require.NoError(t, err)
	require.Len(t, s, 6)

	assert.InDelta(t, 5.0, s[0].Value, 1e-12, "hour bucket is the mean")
	for i := 1; i < len(s); i++ {
		assert.Equal(t, time.Hour, s[i].Time.Sub(s[i-1].Time))
	}
	for _, pt := range s {
		assert.False(t, math.IsNaN(pt.Value))
		assert.Equal(t, time.UTC, pt.Time.Location())
	}
	assert.Equal(t, 3, s.Observed())
}

func TestPrepareDropsOutOfRange(t *testing.T) {
	p := NewPreparer(DefaultConfig())
	s, err := p.Prepare([]models.Reading{
		reading(t0, -5),
		reading(t0.Add(time.Hour), 10),
		reading(t0.Add(2*time.Hour), 600),
		reading(t0.Add(3*time.Hour), 12),
		reading(t0.Add(4*time.Hour), math.NaN()),
	})
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, t0.Add(time.Hour), s[0].Time)
	assert.InDelta(t, 11.0, s[1].Value, 1e-12)
	assert.True(t, s[1].Interpolated)
	for _, pt := range s {
		assert.True(t, pt.Value >= 0 && pt.Value <= 500)
	}
}

func TestPrepareInterpolatesGap(t *testing.T) {
	p := NewPreparer(DefaultConfig())
	s, err := p.Prepare([]models.Reading{reading(t0, 5), reading(t0.Add(2*time.Hour), 7)})
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.InDelta(t, 6.0, s[1].Value, 1e-12)
	assert.True(t, s[1].Interpolated)
	assert.False(t, s[0].Interpolated)
	assert.False(t, s[2].Interpolated)
}

func TestPrepareSinglePointIsInsufficient(t *testing.T) {
	p := NewPreparer(DefaultConfig())
	_, err := p.Prepare([]models.Reading{reading(t0, 5), reading(t0.Add(20*time.Minute), 6)})
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 1, ide.Have)
	assert.Equal(t, 2, ide.Need)
}

func TestPrepareEmptyInput(t *testing.T) {
	_, err := NewPreparer(DefaultConfig()).Prepare(nil)
	var ide *InsufficientDataError
	assert.True(t, errors.As(err, &ide))
}

func TestPrepareDuplicateTimestampKeepsFirst(t *testing.T) {
	p := NewPreparer(DefaultConfig())
	s, err := p.Prepare([]models.Reading{
		reading(t0.Add(time.Hour), 7),
		reading(t0, 5),
		reading(t0, 9),
	})
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 5.0, s[0].Value)
}
