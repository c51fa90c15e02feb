package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEGARCH(t *testing.T) *EGARCHModel {
	t.Helper()
	m, err := NewEGARCHModel(EGARCHArtifact{
		Kind:            KindEGARCH,
		Omega:           -0.1,
		Alpha:           []float64{0.12},
		Gamma:           []float64{-0.04},
		Beta:            []float64{0.95},
		LastStdResid:    0.4,
		LastLogVariance: -1.5,
	}, 500, 42)
	require.NoError(t, err)
	return m
}

func TestEGARCHFirstStepIsDeterministic(t *testing.T) {
	m := testEGARCH(t)
	v, err := m.Forecast(1)
	require.NoError(t, err)
	want := math.Exp(-0.1 + 0.12*(0.4-math.Sqrt(2/math.Pi)) - 0.04*0.4 + 0.95*-1.5)
	assert.InDelta(t, want, v[0], 1e-12)
}

func TestEGARCHSimulationIsReproducible(t *testing.T) {
	m := testEGARCH(t)
	a, err := m.Forecast(24)
	require.NoError(t, err)
	b, err := m.Forecast(24)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	require.Len(t, a, 24)
	for _, v := range a {
		assert.Greater(t, v, 0.0)
	}
}

func TestEGARCHValidate(t *testing.T) {
	base := EGARCHArtifact{Kind: KindEGARCH, Alpha: []float64{0.1}, Gamma: []float64{0}, Beta: []float64{0.9}}
	require.NoError(t, base.Validate())

	explosive := base
	explosive.Beta = []float64{1.0}
	assert.Error(t, explosive.Validate())

	order := base
	order.Alpha = []float64{0.1, 0.1}
	assert.Error(t, order.Validate())

	dist := base
	dist.Dist = "t"
	assert.Error(t, dist.Validate())

	nan := base
	nan.Omega = math.NaN()
	assert.Error(t, nan.Validate())
}

func TestEGARCHOverflowIsApplicationError(t *testing.T) {
	m, err := NewEGARCHModel(EGARCHArtifact{
		Kind:  KindEGARCH,
		Omega: 800,
		Alpha: []float64{0},
		Gamma: []float64{0},
		Beta:  []float64{0},
	}, 10, 1)
	require.NoError(t, err)
	_, err = m.Forecast(2)
	var mae *ModelApplicationError
	assert.ErrorAs(t, err, &mae)
}
