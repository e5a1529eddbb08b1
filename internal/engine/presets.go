package engine

import (
	"fmt"
	"strings"

	"github.com/tatianab/grave-master/internal/catalog"
	"github.com/tatianab/grave-master/internal/dice"
	"github.com/tatianab/grave-master/internal/models"
)

const (
	PresetMortacia = "mortacia"
	PresetSuzerain = "suzerain"
)

// Presets lists the playable characters.
var Presets = []string{PresetMortacia, PresetSuzerain}

func mortacia(rng dice.Rand) *models.Entity {
	hp := 120 + dice.Between(rng, 1, 20)
	return &models.Entity{
		Name:  "Mortacia",
		Sex:   catalog.Female,
		Race:  "Goddess",
		Class: "Assassin-Fighter-Necromancer-Goddess",
		Level: 50,
		XP:    750000,
		HP:    hp,
		MaxHP: hp,
	}
}

func suzerain(rng dice.Rand) *models.Entity {
	hp := 80 + dice.Between(rng, 1, 20)
	return &models.Entity{
		Name:  "Suzerain",
		Sex:   catalog.Male,
		Race:  "Human",
		Class: "Knight of Atinus",
		Level: 25,
		XP:    375000,
		HP:    hp,
		MaxHP: hp,
	}
}

// PresetCharacter builds the named player character.
func PresetCharacter(rng dice.Rand, name string) (*models.Entity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PresetMortacia, "":
		return mortacia(rng), nil
	case PresetSuzerain:
		return suzerain(rng), nil
	}
	return nil, fmt.Errorf("unknown character %q, choose one of %s", name, strings.Join(Presets, ", "))
}

// StartingParty rolls five level one companions. Suzerain also travels with
// Mortacia.
func StartingParty(rng dice.Rand, cat *catalog.Catalog, player *models.Entity) []*models.Entity {
	party := make([]*models.Entity, 0, 6)
	if player.Name == "Suzerain" {
		party = append(party, mortacia(rng))
	}
	for i := 0; i < 5; i++ {
		sex := catalog.RandomSex(rng)
		hp := 10 + dice.Between(rng, 1, 20)
		party = append(party, &models.Entity{
			Name:  cat.CharacterName(rng, sex),
			Sex:   sex,
			Race:  dice.Pick(rng, cat.CharacterRaces),
			Class: dice.Pick(rng, cat.CharacterClasses),
			Level: 1,
			HP:    hp,
			MaxHP: hp,
		})
	}
	return party
}
