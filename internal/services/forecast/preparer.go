package forecast

import (
	"math"
	"sort"
	"time"

	"AirCast/internal/domain/models"
	domsvc "AirCast/internal/domain/service"
	"AirCast/pkg/util"
)

// Preparer turns raw readings into a gap-free hourly series.
type Preparer struct {
	minValue  float64
	maxValue  float64
	minPoints int
}

// NewPreparer creates a preparer using the range and MinPoints of cfg.
func NewPreparer(cfg Config) *Preparer {
	return &Preparer{minValue: cfg.MinValue, maxValue: cfg.MaxValue, minPoints: cfg.MinPoints}
}

type hourBucket struct {
	hour  time.Time
	sum   float64
	count int
}

// Prepare drops out-of-range values, keeps the first of duplicate timestamps,
// averages each UTC hour and linearly interpolates hours without readings.
// The result spans the first to the last observed hour.
func (p *Preparer) Prepare(readings []models.Reading) (models.RegularSeries, error) {
	valid := make([]models.Reading, 0, len(readings))
	for _, r := range readings {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		if r.Value < p.minValue || r.Value > p.maxValue {
			continue
		}
		valid = append(valid, r)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].CapturedAt.Before(valid[j].CapturedAt)
	})

	var buckets []hourBucket
	for i, r := range valid {
		if i > 0 && r.CapturedAt.Equal(valid[i-1].CapturedAt) {
			continue
		}
		h := util.HourFloor(r.CapturedAt)
		if n := len(buckets); n > 0 && buckets[n-1].hour.Equal(h) {
			buckets[n-1].sum += r.Value
			buckets[n-1].count++
			continue
		}
		buckets = append(buckets, hourBucket{hour: h, sum: r.Value, count: 1})
	}

	need := p.minPoints
	if need < 1 {
		need = 1
	}
	if len(buckets) < need {
		return nil, &InsufficientDataError{Have: len(buckets), Need: need}
	}

	span := int(buckets[len(buckets)-1].hour.Sub(buckets[0].hour)/time.Hour) + 1
	series := make(models.RegularSeries, 0, span)
	for i, b := range buckets {
		mean := b.sum / float64(b.count)
		if i > 0 {
			prev := series[len(series)-1]
			gap := int(b.hour.Sub(prev.Time) / time.Hour)
			for k := 1; k < gap; k++ {
				frac := float64(k) / float64(gap)
				series = append(series, models.SeriesPoint{
					Time:         prev.Time.Add(time.Duration(k) * time.Hour),
					Value:        prev.Value + (mean-prev.Value)*frac,
					Interpolated: true,
				})
			}
		}
		series = append(series, models.SeriesPoint{Time: b.hour, Value: mean})
	}
	return series, nil
}

var _ domsvc.SeriesPreparer = (*Preparer)(nil)
