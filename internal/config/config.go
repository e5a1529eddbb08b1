package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	RankingRelevance     = "relevance"
	RankingChronological = "chronological"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	Model              string `env:"GRAVE_MODEL" envDefault:"gemini-2.5-flash"`
	GenerationAttempts int    `env:"GRAVE_GENERATION_ATTEMPTS" envDefault:"3"`

	DBPath  string `env:"GRAVE_DB_PATH" envDefault:".saves/grave.db"`
	SaveDir string `env:"GRAVE_SAVE_DIR" envDefault:".saves"`

	LogFile  string `env:"GRAVE_LOG_FILE" envDefault:".saves/grave.log"`
	LogLevel string `env:"GRAVE_LOG_LEVEL" envDefault:"info"`

	WordBudget        int    `env:"GRAVE_WORD_BUDGET" envDefault:"700"`
	RecentWindow      int    `env:"GRAVE_RECENT_WINDOW" envDefault:"8"`
	Ranking           string `env:"GRAVE_RANKING" envDefault:"relevance"`
	ExcludeStructural bool   `env:"GRAVE_EXCLUDE_STRUCTURAL" envDefault:"false"`

	InventoryCap   int     `env:"GRAVE_INVENTORY_CAP" envDefault:"25"`
	MonsterChance  float64 `env:"GRAVE_MONSTER_CHANCE" envDefault:"0.38"`
	DiscoveryXPMin int     `env:"GRAVE_DISCOVERY_XP_MIN" envDefault:"10000"`
	DiscoveryXPMax int     `env:"GRAVE_DISCOVERY_XP_MAX" envDefault:"50000"`
	MaxExits       int     `env:"GRAVE_MAX_EXITS" envDefault:"5"`

	// Seed fixes the world RNG when non-zero.
	Seed int64 `env:"GRAVE_SEED" envDefault:"0"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied and no
// environment overrides.
func Default() Config {
	var cfg Config
	// envDefault values are applied even when nothing is set.
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate checks that numeric settings are in range.
func (c *Config) Validate() error {
	switch {
	case c.WordBudget < 0:
		return fmt.Errorf("GRAVE_WORD_BUDGET must not be negative, got %d", c.WordBudget)
	case c.RecentWindow < 0:
		return fmt.Errorf("GRAVE_RECENT_WINDOW must not be negative, got %d", c.RecentWindow)
	case c.Ranking != RankingRelevance && c.Ranking != RankingChronological:
		return fmt.Errorf("GRAVE_RANKING must be %q or %q, got %q", RankingRelevance, RankingChronological, c.Ranking)
	case c.InventoryCap < 1:
		return fmt.Errorf("GRAVE_INVENTORY_CAP must be positive, got %d", c.InventoryCap)
	case c.MonsterChance < 0 || c.MonsterChance > 1:
		return fmt.Errorf("GRAVE_MONSTER_CHANCE must be within [0,1], got %v", c.MonsterChance)
	case c.DiscoveryXPMin < 0 || c.DiscoveryXPMax < c.DiscoveryXPMin:
		return fmt.Errorf("invalid discovery XP range [%d,%d]", c.DiscoveryXPMin, c.DiscoveryXPMax)
	case c.MaxExits < 1 || c.MaxExits > 10:
		return fmt.Errorf("GRAVE_MAX_EXITS must be within [1,10], got %d", c.MaxExits)
	case c.GenerationAttempts < 1:
		return fmt.Errorf("GRAVE_GENERATION_ATTEMPTS must be positive, got %d", c.GenerationAttempts)
	}
	return nil
}

// RequireAPIKey reports an error when no Gemini key is configured.
func (c *Config) RequireAPIKey() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return nil
}
