package config

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// Config holds the settings shared by every tool in this repository.
// Each CLI reads only its own section.
type Config struct {
	Extract ExtractConfig `json:"extract"`
	Pack    PackConfig    `json:"pack"`
	Plot    PlotConfig    `json:"plot"`
	Network NetworkConfig `json:"network"`
}

// ExtractConfig configures the catalog extractor.
type ExtractConfig struct {
	Source    string `json:"source"`
	Dest      string `json:"dest"`
	Delimiter string `json:"delimiter"` // single character, "\t" by convention
	ChunkSize int    `json:"chunk_size"`
	// BloomCapacity sizes the duplicate-code estimator. 0 disables it.
	BloomCapacity int     `json:"bloom_capacity"`
	BloomFPRate   float64 `json:"bloom_fp_rate"`
	// Filters restrict the rows written, on top of the code/name check.
	Filters []FilterConfig `json:"filters"`
}

// FilterConfig keeps only catalog rows whose Field matches Value under
// Operator: "eq", "neq", "contains" or "prefix".
type FilterConfig struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// PackConfig configures the binary packer.
type PackConfig struct {
	Source        string `json:"source"`
	Dest          string `json:"dest"`
	ProgressEvery int    `json:"progress_every"`
}

// PlotConfig configures the result plotter.
type PlotConfig struct {
	ResultsDir string  `json:"results_dir"`
	OutputDir  string  `json:"output_dir"`
	WidthIn    float64 `json:"width_in"`
	HeightIn   float64 `json:"height_in"`
	DPI        int     `json:"dpi"`
}

// NetworkConfig configures the network-scenario analysis.
type NetworkConfig struct {
	Files     []string         `json:"files"`
	OutputDir string           `json:"output_dir"`
	Scenarios []ScenarioConfig `json:"scenarios"`
}

// ScenarioConfig is one simulated link.
type ScenarioConfig struct {
	Name          string  `json:"name"`
	BandwidthMbps float64 `json:"bandwidth_mbps"`
	LatencyMs     float64 `json:"latency_ms"`
}

// Default returns the conventional locations used by the benchmark harness.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a configuration from a JSON file. Missing
// fields take their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads path when it is non-empty and returns Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	if c.Extract.Source == "" {
		c.Extract.Source = "db/en.openfoodfacts.org.products.csv"
	}
	if c.Extract.Dest == "" {
		c.Extract.Dest = "db/database.txt"
	}
	if c.Extract.Delimiter == "" {
		c.Extract.Delimiter = "\t"
	}
	if c.Extract.ChunkSize <= 0 {
		c.Extract.ChunkSize = 100000
	}
	if c.Extract.BloomFPRate <= 0 || c.Extract.BloomFPRate >= 1 {
		c.Extract.BloomFPRate = 0.01
	}

	if c.Pack.Source == "" {
		c.Pack.Source = "db/database.txt"
	}
	if c.Pack.Dest == "" {
		c.Pack.Dest = "db/database.bin"
	}
	if c.Pack.ProgressEvery <= 0 {
		c.Pack.ProgressEvery = 100000
	}

	if c.Plot.ResultsDir == "" {
		c.Plot.ResultsDir = "results"
	}
	if c.Plot.OutputDir == "" {
		c.Plot.OutputDir = "plots"
	}
	if c.Plot.WidthIn <= 0 {
		c.Plot.WidthIn = 12
	}
	if c.Plot.HeightIn <= 0 {
		c.Plot.HeightIn = 8
	}
	if c.Plot.DPI <= 0 {
		c.Plot.DPI = 300
	}

	if len(c.Network.Files) == 0 {
		c.Network.Files = []string{
			"results/recordsize_avg_results.csv",
			"results/dbsize_avg_results.csv",
		}
	}
	if c.Network.OutputDir == "" {
		c.Network.OutputDir = "results"
	}
	if len(c.Network.Scenarios) == 0 {
		c.Network.Scenarios = []ScenarioConfig{
			{Name: "Good Network (300 Mbps, 10ms)", BandwidthMbps: 300, LatencyMs: 10},
			{Name: "Average Network (100 Mbps, 50ms)", BandwidthMbps: 100, LatencyMs: 50},
			{Name: "Poor Network (25 Mbps, 200ms)", BandwidthMbps: 25, LatencyMs: 200},
		}
	}
}

func (c *Config) validate() error {
	c.applyDefaults()

	if len([]rune(c.Extract.Delimiter)) != 1 {
		return fmt.Errorf("extract.delimiter must be a single character, got %q", c.Extract.Delimiter)
	}
	if c.Extract.BloomCapacity < 0 {
		return fmt.Errorf("extract.bloom_capacity must not be negative")
	}
	for _, f := range c.Extract.Filters {
		if f.Field == "" {
			return fmt.Errorf("extract filter field is required")
		}
		switch f.Operator {
		case "eq", "neq", "contains", "prefix":
		default:
			return fmt.Errorf("extract filter on %q: unknown operator %q", f.Field, f.Operator)
		}
	}
	for _, s := range c.Network.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("network scenario name is required")
		}
		if s.BandwidthMbps <= 0 {
			return fmt.Errorf("scenario %q: bandwidth_mbps must be positive", s.Name)
		}
		if s.LatencyMs < 0 {
			return fmt.Errorf("scenario %q: latency_ms must not be negative", s.Name)
		}
	}
	return nil
}

// DelimiterRune returns the extractor delimiter as a rune.
func (e ExtractConfig) DelimiterRune() rune {
	for _, r := range e.Delimiter {
		return r
	}
	return '\t'
}
