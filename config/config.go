package config

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds process-level settings taken from the environment.
type Config struct {
	AppPort         int
	SocksProxyURL   string
	CachePath       string
	EnginesPath     string
	SpamDomainsPath string
}

func Load() (*Config, error) {
	appPort, err := strconv.Atoi(getEnv("APP_PORT"))
	if err != nil {
		return nil, err
	}

	return &Config{
		AppPort:         appPort,
		SocksProxyURL:   os.Getenv("SOCKS_PROXY_URL"),
		CachePath:       getEnvDefault("CACHE_PATH", "data/results.db"),
		EnginesPath:     os.Getenv("ENGINES_PATH"),
		SpamDomainsPath: os.Getenv("SPAM_DOMAINS_PATH"),
	}, nil
}

func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required but not set", key)
	}
	return value
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Duration lets yaml files use "4s"-style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// EngineSettings tunes one engine from the engines file. A zero Timeout
// leaves the engine on the dispatcher-wide per-engine timeout.
type EngineSettings struct {
	Enabled   *bool    `yaml:"enabled"`
	Weight    float64  `yaml:"weight"`
	RateLimit float64  `yaml:"rate_limit"`
	Burst     int      `yaml:"burst"`
	URL       string   `yaml:"url"`
	Timeout   Duration `yaml:"timeout"`
}

// Engines is the YAML configuration for the adapter set and the
// dispatcher bounds.
type Engines struct {
	Engines          map[string]EngineSettings `yaml:"engines"`
	PerEngineTimeout Duration                  `yaml:"per_engine_timeout"`
	TotalBudget      Duration                  `yaml:"total_budget"`
	PageSize         int                       `yaml:"page_size"`
	SpamKeywords     []string                  `yaml:"spam_keywords"`
	Snippets         bool                      `yaml:"snippets"`
}

// IsEnabled reports whether an engine should be constructed. Engines
// absent from the file default to enabled.
func (e *Engines) IsEnabled(name string) bool {
	s, ok := e.Engines[name]
	if !ok || s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// Settings returns the settings block for an engine, zero-valued when
// the file does not mention it.
func (e *Engines) Settings(name string) EngineSettings {
	return e.Engines[name]
}

// LoadEngines parses the engines YAML file. An empty path returns the
// zero configuration, which enables every engine with defaults.
func LoadEngines(path string) (*Engines, error) {
	engines := &Engines{}
	if path == "" {
		return engines, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engines file: %w", err)
	}
	if err := yaml.Unmarshal(data, engines); err != nil {
		return nil, fmt.Errorf("failed to parse engines file: %w", err)
	}
	return engines, nil
}

// LoadDomains reads a newline-separated domain list. Blank lines and
// #-comments are skipped; a missing file yields an empty list.
func LoadDomains(path string) []string {
	if path == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		log.Printf("domain list %s not loaded: %v", path, err)
		return nil
	}
	defer file.Close()

	var domains []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	return domains
}
