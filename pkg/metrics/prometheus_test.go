package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounters(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordReadingIngested("openaq")
	r.RecordReadingIngested("openaq")
	r.RecordDuplicate("archive")
	r.RecordForecast("ok")
	r.RecordLastValue(1894637, 18.4)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ingested.WithLabelValues("openaq")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.duplicates.WithLabelValues("archive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecasts.WithLabelValues("ok")))
	assert.Equal(t, 18.4, testutil.ToFloat64(r.lastValue.WithLabelValues("1894637")))
}
