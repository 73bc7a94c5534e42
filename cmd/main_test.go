package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metasearch/config"
)

func adapterWeights(t *testing.T, engineCfg *config.Engines) map[string]float64 {
	t.Helper()
	adapters := buildAdapters(engineCfg, http.DefaultClient, zap.NewNop())
	weights := make(map[string]float64, len(adapters))
	for _, adapter := range adapters {
		weights[adapter.Name()] = adapter.Weight()
	}
	return weights
}

func TestBuildAdaptersHonorsConfiguredWeights(t *testing.T) {
	weights := adapterWeights(t, &config.Engines{
		Engines: map[string]config.EngineSettings{
			"duckduckgo": {Weight: 5.0},
			"mojeek":     {Weight: 3.0},
			"searxng":    {Weight: 2.0, URL: "http://searx.internal:8080"},
		},
	})

	require.Len(t, weights, 4)
	assert.Equal(t, 5.0, weights["duckduckgo"])
	assert.Equal(t, 3.0, weights["mojeek"])
	assert.Equal(t, 2.0, weights["searxng"])
	assert.Equal(t, 1.0, weights["alexandria"])
}

func TestBuildAdaptersDefaultWeights(t *testing.T) {
	weights := adapterWeights(t, &config.Engines{})

	require.Len(t, weights, 3)
	assert.Equal(t, 1.3, weights["duckduckgo"])
	assert.Equal(t, 1.0, weights["mojeek"])
	assert.Equal(t, 1.0, weights["alexandria"])
	assert.NotContains(t, weights, "searxng")
}

func TestBuildAdaptersSkipsDisabledEngine(t *testing.T) {
	disabled := false
	weights := adapterWeights(t, &config.Engines{
		Engines: map[string]config.EngineSettings{
			"mojeek": {Enabled: &disabled},
		},
	})

	assert.NotContains(t, weights, "mojeek")
	assert.Contains(t, weights, "duckduckgo")
}
