package forecast

import (
	"context"
	"encoding/json"
	"fmt"

	"AirCast/internal/domain/repository"

	"github.com/go-playground/validator/v10"
)

var artifactValidate = validator.New()

// validateFields applies the validate tags of an artifact struct.
func validateFields(a interface{}) error {
	if err := artifactValidate.Struct(a); err != nil {
		return fmt.Errorf("artifact fields: %w", err)
	}
	return nil
}

// ArtifactLoader reads both model artifacts from an ArtifactSource.
type ArtifactLoader struct {
	src      repository.ArtifactSource
	meanPath string
	volPath  string
	cfg      Config
}

// NewArtifactLoader creates a loader for the given artifact paths.
func NewArtifactLoader(src repository.ArtifactSource, meanPath, volPath string, cfg Config) *ArtifactLoader {
	return &ArtifactLoader{src: src, meanPath: meanPath, volPath: volPath, cfg: cfg}
}

// Load decodes and validates both artifacts. Any failure is a ModelLoadError.
func (l *ArtifactLoader) Load(ctx context.Context) (*ModelSet, error) {
	var ma SARIMAXArtifact
	if err := l.decode(ctx, l.meanPath, &ma); err != nil {
		return nil, &ModelLoadError{Model: "mean", Path: l.meanPath, Err: err}
	}
	mean, err := NewSeasonalARModel(ma)
	if err != nil {
		return nil, &ModelLoadError{Model: "mean", Path: l.meanPath, Err: err}
	}

	var va EGARCHArtifact
	if err := l.decode(ctx, l.volPath, &va); err != nil {
		return nil, &ModelLoadError{Model: "volatility", Path: l.volPath, Err: err}
	}
	vol, err := NewEGARCHModel(va, l.cfg.Simulations, l.cfg.Seed)
	if err != nil {
		return nil, &ModelLoadError{Model: "volatility", Path: l.volPath, Err: err}
	}
	return &ModelSet{Mean: mean, Volatility: vol}, nil
}

func (l *ArtifactLoader) decode(ctx context.Context, path string, dst interface{}) error {
	rc, err := l.src.Open(ctx, path)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

var _ Loader = (*ArtifactLoader)(nil)
