package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEngines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engines:
  duckduckgo:
    weight: 1.3
    rate_limit: 0.5
    burst: 2
    timeout: 2s
  mojeek:
    enabled: false
  searxng:
    url: http://localhost:8888
per_engine_timeout: 3s
total_budget: 6s
page_size: 10
spam_keywords:
  - cheap pills
snippets: true
`), 0644))

	engines, err := LoadEngines(path)
	require.NoError(t, err)

	assert.True(t, engines.IsEnabled("duckduckgo"))
	assert.False(t, engines.IsEnabled("mojeek"))
	assert.True(t, engines.IsEnabled("never-mentioned"))

	assert.Equal(t, 1.3, engines.Settings("duckduckgo").Weight)
	assert.Equal(t, 0.5, engines.Settings("duckduckgo").RateLimit)
	assert.Equal(t, 2*time.Second, engines.Settings("duckduckgo").Timeout.Std())
	assert.Zero(t, engines.Settings("searxng").Timeout, "absent timeout leaves the default")
	assert.Equal(t, "http://localhost:8888", engines.Settings("searxng").URL)
	assert.Equal(t, 3*time.Second, engines.PerEngineTimeout.Std())
	assert.Equal(t, 6*time.Second, engines.TotalBudget.Std())
	assert.Equal(t, 10, engines.PageSize)
	assert.Equal(t, []string{"cheap pills"}, engines.SpamKeywords)
	assert.True(t, engines.Snippets)
}

func TestLoadEnginesEmptyPath(t *testing.T) {
	engines, err := LoadEngines("")
	require.NoError(t, err)
	assert.True(t, engines.IsEnabled("anything"))
}

func TestLoadDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte(`
# content farms
spam.example

  other.example
`), 0644))

	assert.Equal(t, []string{"spam.example", "other.example"}, LoadDomains(path))
	assert.Nil(t, LoadDomains(""))
	assert.Nil(t, LoadDomains(filepath.Join(t.TempDir(), "missing.txt")))
}
