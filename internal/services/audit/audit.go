package audit

import (
	"fmt"
	"math"

	"AirCast/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

const (
	// ADFCritical5 is the 5% critical value of the Dickey-Fuller test with a constant.
	ADFCritical5 = -2.86
	// DailyPeriod is the seasonal period of an hourly series.
	DailyPeriod = 24
)

// Run builds a data-quality report for a clean hourly series.
func Run(series models.RegularSeries) (models.AuditReport, error) {
	if len(series) < 3 {
		return models.AuditReport{}, fmt.Errorf("audit needs at least 3 hourly points, have %d", len(series))
	}
	values := series.Values()
	mean := stat.Mean(values, nil)
	maxV := values[0]
	for _, v := range values {
		maxV = math.Max(maxV, v)
	}

	rep := models.AuditReport{
		From:             series[0].Time,
		To:               series.Last().Time,
		Hours:            len(series),
		Observed:         series.Observed(),
		Gaps:             gapRuns(series),
		ADFCritical5:     ADFCritical5,
		SeasonalStrength: SeasonalStrength(values, DailyPeriod),
		VolatilityScore:  Volatility(values),
		Mean:             mean,
		Max:              maxV,
	}
	rep.Interpolated = rep.Hours - rep.Observed
	if adf, ok := ADFStatistic(values); ok {
		rep.ADFStatistic = adf
		rep.Stationary = adf < ADFCritical5
	}
	return rep, nil
}

// gapRuns counts maximal runs of interpolated hours.
func gapRuns(s models.RegularSeries) int {
	runs := 0
	for i, p := range s {
		if p.Interpolated && (i == 0 || !s[i-1].Interpolated) {
			runs++
		}
	}
	return runs
}

// ADFStatistic returns the Dickey-Fuller t statistic of ρ in
// Δy_t = α + ρ·y_{t-1} + e_t (no augmentation lags). ok is false when the
// regression is degenerate.
func ADFStatistic(y []float64) (float64, bool) {
	n := len(y) - 1
	if n < 3 {
		return 0, false
	}
	x := y[:n]
	dy := make([]float64, n)
	for i := 0; i < n; i++ {
		dy[i] = y[i+1] - y[i]
	}
	alpha, beta := stat.LinearRegression(x, dy, nil, false)

	xMean := stat.Mean(x, nil)
	var ssr, sxx float64
	for i := 0; i < n; i++ {
		r := dy[i] - (alpha + beta*x[i])
		ssr += r * r
		d := x[i] - xMean
		sxx += d * d
	}
	if sxx == 0 {
		return 0, false
	}
	se := math.Sqrt(ssr / float64(n-2) / sxx)
	if se == 0 || math.IsNaN(se) {
		return 0, false
	}
	return beta / se, true
}

// SeasonalStrength is the population standard deviation of the seasonal
// component of an additive decomposition with a centred moving-average trend.
// It needs two full periods; shorter input gives 0.
func SeasonalStrength(y []float64, period int) float64 {
	n := len(y)
	if period < 2 || n < 2*period {
		return 0
	}
	trend := centredMovingAverage(y, period)

	sums := make([]float64, period)
	counts := make([]float64, period)
	for i := range y {
		if math.IsNaN(trend[i]) {
			continue
		}
		sums[i%period] += y[i] - trend[i]
		counts[i%period]++
	}
	idx := make([]float64, period)
	for k := range idx {
		if counts[k] > 0 {
			idx[k] = sums[k] / counts[k]
		}
	}
	centre := stat.Mean(idx, nil)
	seasonal := make([]float64, n)
	for i := range seasonal {
		seasonal[i] = idx[i%period] - centre
	}
	return stat.PopStdDev(seasonal, nil)
}

// centredMovingAverage uses a 2×period filter for even periods. Ends without a
// full window are NaN.
func centredMovingAverage(y []float64, period int) []float64 {
	var w []float64
	if period%2 == 0 {
		w = make([]float64, period+1)
		for i := range w {
			w[i] = 1 / float64(period)
		}
		w[0], w[period] = 0.5/float64(period), 0.5/float64(period)
	} else {
		w = make([]float64, period)
		for i := range w {
			w[i] = 1 / float64(period)
		}
	}
	half := len(w) / 2
	out := make([]float64, len(y))
	for i := range y {
		if i < half || i+half >= len(y) {
			out[i] = math.NaN()
			continue
		}
		var s float64
		for j, wj := range w {
			s += wj * y[i-half+j]
		}
		out[i] = s
	}
	return out
}

// Volatility is the sample variance of first differences.
func Volatility(y []float64) float64 {
	if len(y) < 3 {
		return 0
	}
	diffs := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		diffs[i-1] = y[i] - y[i-1]
	}
	return stat.Variance(diffs, nil)
}
