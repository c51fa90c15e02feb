package forecast

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactLoaderLoadsBothModels(t *testing.T) {
	set := testModelSet()
	require.NotNil(t, set.Mean)
	require.NotNil(t, set.Volatility)
	assert.Equal(t, "sarimax-2025-01", set.Mean.Version())
	assert.Equal(t, "egarch-2025-01", set.Volatility.Version())
}

func TestArtifactLoaderErrors(t *testing.T) {
	cases := []struct {
		name  string
		src   memSource
		model string
	}{
		{"missing mean", memSource{"vol.json": volArtifactJSON}, "mean"},
		{"corrupt mean", memSource{"mean.json": "{", "vol.json": volArtifactJSON}, "mean"},
		{"differenced mean", memSource{
			"mean.json": strings.Replace(meanArtifactJSON, `"order": [2, 0, 0]`, `"order": [2, 1, 0]`, 1),
			"vol.json":  volArtifactJSON,
		}, "mean"},
		{"missing vol", memSource{"mean.json": meanArtifactJSON}, "volatility"},
		{"wrong kind", memSource{"mean.json": meanArtifactJSON, "vol.json": meanArtifactJSON}, "volatility"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewArtifactLoader(tc.src, "mean.json", "vol.json", DefaultConfig())
			_, err := l.Load(context.Background())
			var mle *ModelLoadError
			require.True(t, errors.As(err, &mle), "got %v", err)
			assert.Equal(t, tc.model, mle.Model)
		})
	}
}

func TestArtifactLoaderRejectsTaggedFields(t *testing.T) {
	cases := []struct {
		name  string
		src   memSource
		model string
		field string
	}{
		{"daily mean", memSource{
			"mean.json": strings.Replace(meanArtifactJSON, `"frequency": "h"`, `"frequency": "D"`, 1),
			"vol.json":  volArtifactJSON,
		}, "mean", "Frequency"},
		{"student-t shocks", memSource{
			"mean.json": meanArtifactJSON,
			"vol.json":  strings.Replace(volArtifactJSON, `"dist": "normal"`, `"dist": "t"`, 1),
		}, "volatility", "Dist"},
		{"vol artifact as mean", memSource{"mean.json": volArtifactJSON, "vol.json": volArtifactJSON}, "mean", "Kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewArtifactLoader(tc.src, "mean.json", "vol.json", DefaultConfig()).Load(context.Background())
			var mle *ModelLoadError
			require.True(t, errors.As(err, &mle), "got %v", err)
			assert.Equal(t, tc.model, mle.Model)

			var ves validator.ValidationErrors
			require.True(t, errors.As(err, &ves), "got %v", err)
			assert.Equal(t, tc.field, ves[0].Field())
		})
	}
}
