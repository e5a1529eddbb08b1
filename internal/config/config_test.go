package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 700, cfg.WordBudget)
	assert.Equal(t, 8, cfg.RecentWindow)
	assert.Equal(t, RankingRelevance, cfg.Ranking)
	assert.False(t, cfg.ExcludeStructural)
	assert.Equal(t, 25, cfg.InventoryCap)
	assert.InDelta(t, 0.38, cfg.MonsterChance, 1e-9)
	assert.Equal(t, 10000, cfg.DiscoveryXPMin)
	assert.Equal(t, 50000, cfg.DiscoveryXPMax)
	assert.Equal(t, 5, cfg.MaxExits)
	assert.Error(t, cfg.RequireAPIKey())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GRAVE_WORD_BUDGET", "120")
	t.Setenv("GRAVE_RANKING", "chronological")
	t.Setenv("GRAVE_EXCLUDE_STRUCTURAL", "true")
	t.Setenv("GRAVE_SEED", "42")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.NoError(t, cfg.RequireAPIKey())
	assert.Equal(t, 120, cfg.WordBudget)
	assert.Equal(t, RankingChronological, cfg.Ranking)
	assert.True(t, cfg.ExcludeStructural)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown ranking", key: "GRAVE_RANKING", value: "random"},
		{name: "chance above one", key: "GRAVE_MONSTER_CHANCE", value: "1.5"},
		{name: "zero exits", key: "GRAVE_MAX_EXITS", value: "0"},
		{name: "not a number", key: "GRAVE_WORD_BUDGET", value: "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 700, cfg.WordBudget)
	assert.Equal(t, 3, cfg.GenerationAttempts)
}
