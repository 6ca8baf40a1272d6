package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gigjozsa/tirific-sub001/chisq"
	"github.com/gigjozsa/tirific-sub001/convolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecipe(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadParsesMinimalRecipe(t *testing.T) {
	path := writeRecipe(t, `
observation: obs.fits
model: model.fits
sigma_rms: 0.5
beam:
  major_deg: 0.001
  minor_deg: 0.0008
  pa_deg: 30
minimizer:
  method: golden
  guess: [1.5]
  start_step: [0.5]
`)
	rec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "obs.fits", rec.Observation)
	assert.Equal(t, "model.fits", rec.Model)
	assert.Equal(t, 0.5, rec.SigmaRMS)
	assert.Equal(t, 30.0, rec.Beam.PADeg)
	assert.Equal(t, []float64{1.5}, rec.Minimizer.Guess)
}

func TestLoadRejectsMissingCubePaths(t *testing.T) {
	path := writeRecipe(t, `
minimizer:
  guess: [1.0]
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyGuess(t *testing.T) {
	path := writeRecipe(t, `
observation: obs.fits
model: model.fits
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnreadablePath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestModeConfigBitsPacksFlags(t *testing.T) {
	m := ModeConfig{WeightMap: true, OutOfPlace: true}
	assert.Equal(t, chisq.ModeWeightMap|chisq.ModeOutOfPlace, m.Bits())

	assert.Equal(t, 0, ModeConfig{}.Bits())
}

func TestEngineConfigDefaultsThreadsAndEffort(t *testing.T) {
	rec := &FitRecipe{
		Observation: "o.fits",
		Model:       "m.fits",
		Minimizer:   MinimizerConfig{Guess: []float64{1}},
	}
	cfg, err := rec.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Threads)
	assert.Equal(t, convolve.Estimate, cfg.Effort)
}

func TestEngineConfigRejectsUnknownEffort(t *testing.T) {
	rec := &FitRecipe{
		Observation: "o.fits",
		Model:       "m.fits",
		Effort:      "bogus",
		Minimizer:   MinimizerConfig{Guess: []float64{1}},
	}
	_, err := rec.EngineConfig()
	assert.Error(t, err)
}

func TestEngineConfigCarriesExplicitValues(t *testing.T) {
	rec := &FitRecipe{
		Observation: "o.fits",
		Model:       "m.fits",
		Threads:     4,
		Effort:      "patient",
		Minimizer:   MinimizerConfig{Guess: []float64{1}},
	}
	cfg, err := rec.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, convolve.Patient, cfg.Effort)
}
