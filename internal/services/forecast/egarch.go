package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"
)

// KindEGARCH tags volatility-model artifacts.
const KindEGARCH = "egarch"

// expected |z| for a standard normal shock
var meanAbsNormal = math.Sqrt(2 / math.Pi)

// EGARCHArtifact is the serialized form of a fitted EGARCH(1,1,1) model,
// including the terminal state of the training sample.
type EGARCHArtifact struct {
	Kind            string    `json:"kind" validate:"eq=egarch"`
	Version         string    `json:"version"`
	TrainedAt       time.Time `json:"trained_at"`
	Mu              float64   `json:"mu"`
	Omega           float64   `json:"omega"`
	Alpha           []float64 `json:"alpha" validate:"len=1"`
	Gamma           []float64 `json:"gamma" validate:"len=1"`
	Beta            []float64 `json:"beta" validate:"len=1"`
	LastStdResid    float64   `json:"last_std_resid"`
	LastLogVariance float64   `json:"last_log_variance"`
	Dist            string    `json:"dist" validate:"omitempty,eq=normal"`
}

// Validate checks the struct tags (kind, order (1,1,1), normal innovations),
// then finiteness and |beta| < 1.
func (a *EGARCHArtifact) Validate() error {
	if err := validateFields(a); err != nil {
		return err
	}
	for _, v := range []float64{a.Mu, a.Omega, a.Alpha[0], a.Gamma[0], a.Beta[0], a.LastStdResid, a.LastLogVariance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite parameter")
		}
	}
	if math.Abs(a.Beta[0]) >= 1 {
		return fmt.Errorf("beta %.4f is not stationary", a.Beta[0])
	}
	return nil
}

// VarianceModel is a frozen volatility model.
type VarianceModel interface {
	Forecast(steps int) ([]float64, error)
	Version() string
}

// EGARCHModel forecasts the conditional variance path
//
//	ln σ²_t = ω + α(|z_{t-1}| - √(2/π)) + γ z_{t-1} + β ln σ²_{t-1}
//
// Step 1 follows from the stored terminal state. Later steps average
// simulated paths drawn from a fixed seed, so results are reproducible.
type EGARCHModel struct {
	version     string
	omega       float64
	alpha       float64
	gamma       float64
	beta        float64
	lastZ       float64
	lastLogVar  float64
	simulations int
	seed        uint64
}

// NewEGARCHModel validates the artifact and fixes the simulation settings.
func NewEGARCHModel(a EGARCHArtifact, simulations int, seed uint64) (*EGARCHModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if simulations < 1 {
		return nil, fmt.Errorf("simulations must be >= 1, got %d", simulations)
	}
	return &EGARCHModel{
		version:     a.Version,
		omega:       a.Omega,
		alpha:       a.Alpha[0],
		gamma:       a.Gamma[0],
		beta:        a.Beta[0],
		lastZ:       a.LastStdResid,
		lastLogVar:  a.LastLogVariance,
		simulations: simulations,
		seed:        seed,
	}, nil
}

func (m *EGARCHModel) Version() string { return m.version }

func (m *EGARCHModel) step(z, lnv float64) float64 {
	return m.omega + m.alpha*(math.Abs(z)-meanAbsNormal) + m.gamma*z + m.beta*lnv
}

// Forecast returns the expected variance for steps 1..steps.
func (m *EGARCHModel) Forecast(steps int) ([]float64, error) {
	if steps < 1 {
		return nil, &ModelApplicationError{Model: "volatility", Reason: fmt.Sprintf("steps %d < 1", steps)}
	}
	out := make([]float64, steps)
	ln1 := m.step(m.lastZ, m.lastLogVar)
	out[0] = math.Exp(ln1)

	if steps > 1 {
		rng := rand.New(rand.NewPCG(m.seed, m.seed))
		draws := make([][]float64, steps)
		for t := 1; t < steps; t++ {
			draws[t] = make([]float64, m.simulations)
		}
		for s := 0; s < m.simulations; s++ {
			lnv := ln1
			for t := 1; t < steps; t++ {
				lnv = m.step(rng.NormFloat64(), lnv)
				draws[t][s] = math.Exp(lnv)
			}
		}
		for t := 1; t < steps; t++ {
			out[t] = stat.Mean(draws[t], nil)
		}
	}

	for t, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ModelApplicationError{Model: "volatility", Reason: fmt.Sprintf("non-finite variance at step %d", t+1)}
		}
	}
	return out, nil
}

var _ VarianceModel = (*EGARCHModel)(nil)
