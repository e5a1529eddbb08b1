package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tatianab/grave-master/internal/catalog"
	"github.com/tatianab/grave-master/internal/dice"
	"github.com/tatianab/grave-master/internal/models"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{14999, 1},
		{15000, 2},
		{15001, 2},
		{375000, 26},
		{750000, 51},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.xp), "xp %d", tt.xp)
	}
	assert.Equal(t, 15000, XPForLevel(2))
	assert.Equal(t, 0, XPForLevel(1))
}

func TestLevelUpAcrossThreshold(t *testing.T) {
	tr := NewTracker(catalog.Default(), zap.NewNop())
	e := &models.Entity{Name: "Aelor", Class: "Thief", Level: 1, XP: 14999, HP: 15, MaxHP: 15}

	tr.AddXP(dice.NewRand(1), e, 2)

	assert.Equal(t, 15001, e.XP)
	assert.Equal(t, 2, e.Level)
	gain := e.HP - 15
	assert.GreaterOrEqual(t, gain, 2, "two d8 roll at least 2")
	assert.LessOrEqual(t, gain, 16, "two d8 roll at most 16")
	assert.Equal(t, e.HP, e.MaxHP)
}

func TestLevelMatchesCurveAndHPNeverDrops(t *testing.T) {
	tr := NewTracker(catalog.Default(), zap.NewNop())
	rng := dice.NewRand(11)
	e := &models.Entity{Name: "Vor", Class: "Barbarian", Level: 1, HP: 20, MaxHP: 20}

	for i := 0; i < 100; i++ {
		hp, maxHP := e.HP, e.MaxHP
		tr.AddXP(rng, e, dice.Between(rng, 10000, 50000))
		assert.Equal(t, LevelForXP(e.XP), e.Level)
		assert.GreaterOrEqual(t, e.HP, hp)
		assert.GreaterOrEqual(t, e.MaxHP, maxHP)
	}
}

func TestUnknownClassSkipsHitPoints(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := NewTracker(catalog.Default(), zap.New(core))
	e := &models.Entity{Name: "Gorna", Class: "Warrior", Level: 1, HP: 30, MaxHP: 30}

	tr.AddXP(dice.NewRand(1), e, 30000)

	assert.Equal(t, 3, e.Level)
	assert.Equal(t, 30, e.HP)
	assert.Equal(t, 30, e.MaxHP)
	assert.Equal(t, 1, logs.FilterMessage("unknown class, hit points unchanged").Len())
}

func TestEntityAboveCurveKeepsLevel(t *testing.T) {
	tr := NewTracker(catalog.Default(), zap.NewNop())
	e := &models.Entity{Name: "Mortacia", Class: "Assassin-Fighter-Necromancer-Goddess", Level: 50, XP: 0, HP: 130, MaxHP: 130}

	tr.AddXP(dice.NewRand(1), e, 20000)

	assert.Equal(t, 50, e.Level)
	assert.Equal(t, 130, e.HP)
}
