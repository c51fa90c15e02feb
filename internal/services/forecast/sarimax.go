package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// KindSARIMAX tags mean-model artifacts.
const KindSARIMAX = "sarimax"

// SARIMAXArtifact is the serialized form of a fitted seasonal AR mean model.
type SARIMAXArtifact struct {
	Kind          string             `json:"kind" validate:"eq=sarimax"`
	Version       string             `json:"version"`
	TrainedAt     time.Time          `json:"trained_at"`
	Order         [3]int             `json:"order" validate:"dive,gte=0"`
	SeasonalOrder [4]int             `json:"seasonal_order" validate:"dive,gte=0"`
	Intercept     float64            `json:"intercept"`
	AR            []float64          `json:"ar"`
	SeasonalAR    []float64          `json:"seasonal_ar"`
	Exog          map[string]float64 `json:"exog"`
	Sigma2        float64            `json:"sigma2"`
	Frequency     string             `json:"frequency" validate:"omitempty,oneof=h H"`
}

// Validate checks that the artifact describes a model this package can apply.
// Differencing and moving-average terms are not supported.
func (a *SARIMAXArtifact) Validate() error {
	if err := validateFields(a); err != nil {
		return err
	}
	p, d, q := a.Order[0], a.Order[1], a.Order[2]
	P, D, Q, s := a.SeasonalOrder[0], a.SeasonalOrder[1], a.SeasonalOrder[2], a.SeasonalOrder[3]
	if d != 0 || D != 0 || q != 0 || Q != 0 {
		return fmt.Errorf("order (%d,%d,%d)(%d,%d,%d,%d) not supported: only d=D=q=Q=0", p, d, q, P, D, Q, s)
	}
	if len(a.AR) != p {
		return fmt.Errorf("ar has %d coefficients, order p=%d", len(a.AR), p)
	}
	if len(a.SeasonalAR) != P {
		return fmt.Errorf("seasonal_ar has %d coefficients, order P=%d", len(a.SeasonalAR), P)
	}
	if P > 0 && s < 2 {
		return fmt.Errorf("seasonal period %d must be >= 2", s)
	}
	vals := append([]float64{a.Intercept, a.Sigma2}, a.AR...)
	vals = append(vals, a.SeasonalAR...)
	for _, c := range a.Exog {
		vals = append(vals, c)
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite coefficient")
		}
	}
	return nil
}

// ExogFrame holds exogenous regressors by name, one value per time step.
type ExogFrame map[string][]float64

// MeanState is the conditioning state of the mean model: the last MaxLag
// log-space observations, oldest first.
type MeanState struct {
	tail []float64
}

// SeasonalModel is a frozen mean model in log space.
type SeasonalModel interface {
	Apply(history []float64, exog ExogFrame) (*MeanState, error)
	Forecast(state *MeanState, steps int, exog ExogFrame) ([]float64, error)
	Version() string
}

// SeasonalARModel applies y_t = c + Σβ·x_t + Σ a_k·y_{t-k}, where a_k come from
// expanding (1 - Σφ_i L^i)(1 - ΣΦ_j L^{js}).
type SeasonalARModel struct {
	version   string
	intercept float64
	lags      []float64 // lags[k-1] = a_k
	exogNames []string
	exogCoef  []float64
}

// NewSeasonalARModel validates the artifact and expands its lag polynomial.
func NewSeasonalARModel(a SARIMAXArtifact) (*SeasonalARModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	m := &SeasonalARModel{
		version:   a.Version,
		intercept: a.Intercept,
		lags:      expandLags(a.AR, a.SeasonalAR, a.SeasonalOrder[3]),
	}
	for name := range a.Exog {
		m.exogNames = append(m.exogNames, name)
	}
	sort.Strings(m.exogNames)
	for _, name := range m.exogNames {
		m.exogCoef = append(m.exogCoef, a.Exog[name])
	}
	return m, nil
}

// expandLags multiplies the non-seasonal and seasonal AR polynomials and
// returns the coefficients a_k of y_{t-k} on the right-hand side.
func expandLags(ar, sar []float64, s int) []float64 {
	phi := make([]float64, len(ar)+1)
	phi[0] = 1
	for i, c := range ar {
		phi[i+1] = -c
	}
	seas := []float64{1}
	if len(sar) > 0 {
		seas = make([]float64, len(sar)*s+1)
		seas[0] = 1
		for j, c := range sar {
			seas[(j+1)*s] = -c
		}
	}
	prod := make([]float64, len(phi)+len(seas)-1)
	for i, a := range phi {
		for j, b := range seas {
			prod[i+j] += a * b
		}
	}
	lags := make([]float64, len(prod)-1)
	for k := 1; k < len(prod); k++ {
		lags[k-1] = -prod[k]
	}
	return lags
}

// MaxLag is the number of past observations the model conditions on.
func (m *SeasonalARModel) MaxLag() int { return len(m.lags) }

func (m *SeasonalARModel) Version() string { return m.version }

func (m *SeasonalARModel) checkExog(exog ExogFrame, n int) error {
	for _, name := range m.exogNames {
		col, ok := exog[name]
		if !ok {
			return &ModelApplicationError{Model: "mean", Reason: fmt.Sprintf("missing exogenous column %q", name)}
		}
		if len(col) != n {
			return &ModelApplicationError{Model: "mean", Reason: fmt.Sprintf("exogenous column %q has %d rows, want %d", name, len(col), n)}
		}
	}
	return nil
}

// Apply conditions the model on history (log space) and returns the state to forecast from.
func (m *SeasonalARModel) Apply(history []float64, exog ExogFrame) (*MeanState, error) {
	if len(history) < m.MaxLag() || len(history) == 0 {
		return nil, &ModelApplicationError{
			Model:  "mean",
			Reason: fmt.Sprintf("history has %d points, model needs %d", len(history), max(m.MaxLag(), 1)),
		}
	}
	for _, v := range history {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ModelApplicationError{Model: "mean", Reason: "history contains non-finite values"}
		}
	}
	if err := m.checkExog(exog, len(history)); err != nil {
		return nil, err
	}
	tail := make([]float64, m.MaxLag())
	copy(tail, history[len(history)-m.MaxLag():])
	return &MeanState{tail: tail}, nil
}

// Forecast projects steps values forward from state, feeding predictions back as lags.
func (m *SeasonalARModel) Forecast(state *MeanState, steps int, exog ExogFrame) ([]float64, error) {
	if state == nil || len(state.tail) != m.MaxLag() {
		return nil, &ModelApplicationError{Model: "mean", Reason: "state does not match model"}
	}
	if err := m.checkExog(exog, steps); err != nil {
		return nil, err
	}
	buf := make([]float64, len(state.tail), len(state.tail)+steps)
	copy(buf, state.tail)
	out := make([]float64, steps)
	for t := 0; t < steps; t++ {
		y := m.intercept
		for j, name := range m.exogNames {
			y += m.exogCoef[j] * exog[name][t]
		}
		n := len(buf)
		for k, a := range m.lags {
			y += a * buf[n-1-k]
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, &ModelApplicationError{Model: "mean", Reason: fmt.Sprintf("non-finite prediction at step %d", t+1)}
		}
		buf = append(buf, y)
		out[t] = y
	}
	return out, nil
}

var _ SeasonalModel = (*SeasonalARModel)(nil)
