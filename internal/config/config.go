// Package config loads the runtime configuration file. The YAML is
// checked against an embedded CUE schema before defaults fill in any
// missing keys, so a typo'd or out-of-range value fails loudly at
// startup instead of silently becoming a zero.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tradepost/internal/world"
)

//go:embed schema.cue
var schemaSource string

// Config is the full runtime configuration with defaults applied.
type Config struct {
	DataDir string `yaml:"data-dir"`

	Shops struct {
		MaxPerPlayer     int      `yaml:"max-per-player"`
		MaxPrice         float64  `yaml:"max-price"`
		CreationCost     float64  `yaml:"creation-cost"`
		BlockedItems     []string `yaml:"blocked-items"`
		StrictSignPrices *bool    `yaml:"strict-sign-prices"`
	} `yaml:"shops"`

	Transactions struct {
		TaxPercent  float64 `yaml:"tax-percent"`
		CooldownMS  int     `yaml:"cooldown-ms"`
		AutosaveMin int     `yaml:"autosave-min"`
	} `yaml:"transactions"`

	Alerts struct {
		LowStockThreshold int     `yaml:"low-stock-threshold"`
		LowMoneyThreshold float64 `yaml:"low-money-threshold"`
		DedupWindowMin    int     `yaml:"dedup-window-min"`
	} `yaml:"alerts"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	strict := true
	c := &Config{DataDir: "data"}
	c.Shops.MaxPerPlayer = 50
	c.Shops.MaxPrice = 1_000_000_000
	c.Shops.CreationCost = 0
	c.Shops.StrictSignPrices = &strict
	c.Transactions.TaxPercent = 0
	c.Transactions.CooldownMS = 500
	c.Transactions.AutosaveMin = 5
	c.Alerts.LowStockThreshold = 10
	c.Alerts.LowMoneyThreshold = 100
	c.Alerts.DedupWindowMin = 5
	return c
}

// Load reads path, validates it against the schema and merges it over
// the defaults. A missing file returns the defaults without error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse validates raw YAML and merges it over the defaults.
func Parse(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Shops.StrictSignPrices == nil {
		strict := true
		cfg.Shops.StrictSignPrices = &strict
	}
	return cfg, nil
}

// validateSchema unifies the decoded YAML with the embedded CUE schema.
func validateSchema(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if raw == nil {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	unified := schema.Unify(value)
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Strict reports the sign-price parsing policy.
func (c *Config) Strict() bool {
	return c.Shops.StrictSignPrices == nil || *c.Shops.StrictSignPrices
}

// Cooldown returns the per-actor transaction cooldown.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Transactions.CooldownMS) * time.Millisecond
}

// AutosaveInterval returns the background save period.
func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.Transactions.AutosaveMin) * time.Minute
}

// DedupWindow returns the alert deduplication window.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.Alerts.DedupWindowMin) * time.Minute
}

// BlockedItemSet normalizes the blocked-item names into a lookup set.
func (c *Config) BlockedItemSet() map[world.ItemType]bool {
	if len(c.Shops.BlockedItems) == 0 {
		return nil
	}
	set := make(map[world.ItemType]bool, len(c.Shops.BlockedItems))
	for _, name := range c.Shops.BlockedItems {
		if item, err := world.NormalizeItem(name); err == nil {
			set[item] = true
		}
	}
	return set
}
