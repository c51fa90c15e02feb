package forecast

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"AirCast/internal/domain/models"
)

const meanArtifactJSON = `{
  "kind": "sarimax",
  "version": "sarimax-2025-01",
  "trained_at": "2025-01-31T00:00:00Z",
  "order": [2, 0, 0],
  "seasonal_order": [0, 0, 0, 24],
  "intercept": 0,
  "ar": [0.6, 0.4],
  "seasonal_ar": [],
  "exog": {"is_missing": 0.3},
  "sigma2": 0.04,
  "frequency": "h"
}`

const volArtifactJSON = `{
  "kind": "egarch",
  "version": "egarch-2025-01",
  "trained_at": "2025-01-31T00:00:00Z",
  "mu": 0.01,
  "omega": -0.1,
  "alpha": [0.12],
  "gamma": [-0.04],
  "beta": [0.95],
  "last_std_resid": 0.4,
  "last_log_variance": -1.5,
  "dist": "normal"
}`

type memSource map[string]string

func (m memSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("open %s: not found", path)
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func flatSeries(n int, v float64) models.RegularSeries {
	s := make(models.RegularSeries, n)
	for i := range s {
		s[i] = models.SeriesPoint{Time: t0.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return s
}

func testModelSet() *ModelSet {
	set, err := NewArtifactLoader(memSource{"mean.json": meanArtifactJSON, "vol.json": volArtifactJSON},
		"mean.json", "vol.json", DefaultConfig()).Load(context.Background())
	if err != nil {
		panic(err)
	}
	return set
}

type staticProvider struct {
	set *ModelSet
	err error
}

func (p staticProvider) GetOrLoad(context.Context) (*ModelSet, error) { return p.set, p.err }
