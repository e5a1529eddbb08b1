// Package progression keeps entity levels and hit points in step with XP.
package progression

import (
	"go.uber.org/zap"

	"github.com/tatianab/grave-master/internal/dice"
	"github.com/tatianab/grave-master/internal/models"
)

// XPPerLevel is the XP needed for each level above the first.
const XPPerLevel = 15000

// HitDice resolves a class to its level-up die size.
type HitDice interface {
	HitDie(class string) (int, bool)
}

// LevelForXP is floor(xp/XPPerLevel)+1.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// XPForLevel is the least XP that yields level.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * XPPerLevel
}

type Tracker struct {
	dice   HitDice
	logger *zap.Logger
}

func NewTracker(hd HitDice, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{dice: hd, logger: logger}
}

// AddXP grants xp to e and applies any resulting level gain.
func (t *Tracker) AddXP(rng dice.Rand, e *models.Entity, xp int) {
	e.XP += xp
	t.Recompute(rng, e)
}

// Recompute applies a level gain if e's XP has passed its level. On a gain it
// rolls newLevel hit dice of the class die and adds the total to HP and
// MaxHP. Entities already above the curve keep their level.
func (t *Tracker) Recompute(rng dice.Rand, e *models.Entity) {
	newLevel := LevelForXP(e.XP)
	if newLevel <= e.Level {
		return
	}
	e.Level = newLevel

	die, ok := t.dice.HitDie(e.Class)
	if !ok {
		t.logger.Warn("unknown class, hit points unchanged",
			zap.String("code", "DATA_CONSISTENCY"),
			zap.String("entity", e.Name),
			zap.String("class", e.Class),
			zap.Int("level", newLevel))
		return
	}

	gain, err := dice.Sum(rng, newLevel, die)
	if err != nil {
		t.logger.Warn("hit die roll failed", zap.String("class", e.Class), zap.Error(err))
		return
	}
	e.HP += gain
	e.MaxHP += gain
	t.logger.Debug("level up",
		zap.String("entity", e.Name),
		zap.Int("level", newLevel),
		zap.Int("hp_gain", gain))
}
