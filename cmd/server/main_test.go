package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArafathMohammed/Prosthetichand/internal/ml"
	"github.com/ArafathMohammed/Prosthetichand/internal/models"
	"github.com/ArafathMohammed/Prosthetichand/pkg/config"
)

func TestLoadArtifacts_DryRun(t *testing.T) {
	cfg := &config.Config{StubLabel: int(models.LabelTripod)}
	norm, cls, err := loadArtifacts(cfg, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, norm.Dim())
	assert.Equal(t, ml.StubClassifier{Label: models.LabelTripod}, cls)
}

func TestLoadArtifacts_CreatesSamples(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		ModelPath:  filepath.Join(dir, "model", "mlp.json"),
		ScalerPath: filepath.Join(dir, "model", "scaler.json"),
	}

	norm, cls, err := loadArtifacts(cfg, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, norm.Dim())
	assert.Equal(t, 9, cls.(ml.Dimensioned).InputDim())
	assert.FileExists(t, cfg.ModelPath)

	// second start loads the same files
	_, _, err = loadArtifacts(cfg, 9)
	require.NoError(t, err)
}

func TestLoadArtifacts_MissingScaler(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		ModelPath:  filepath.Join(dir, "mlp.json"),
		ScalerPath: filepath.Join(dir, "scaler.json"),
	}
	require.NoError(t, ml.CreateSampleArtifacts(cfg.ModelPath, filepath.Join(dir, "other.json"), 4))

	_, _, err := loadArtifacts(cfg, 4)
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SCALER_PATH", cfgErr.Field)
}
