package catalog

import (
	"fmt"
	"strings"

	"github.com/tatianab/grave-master/internal/dice"
)

const (
	Male   = "Male"
	Female = "Female"
)

// Syllables are the parts a generated name is assembled from.
type Syllables struct {
	Prefixes []string `yaml:"prefixes"`
	Middles  []string `yaml:"middles"`
	Suffixes []string `yaml:"suffixes"`
	Feminine []string `yaml:"feminine"`
}

func (s Syllables) validate() error {
	if len(s.Prefixes) == 0 || len(s.Middles) == 0 || len(s.Suffixes) == 0 || len(s.Feminine) == 0 {
		return fmt.Errorf("every syllable table must be non-empty")
	}
	return nil
}

// Generate builds a name of one to three words. Every word but the last ends
// with a middle syllable; the last takes a suffix, plus a feminine ending for
// female names.
func (s Syllables) Generate(rng dice.Rand, sex string) string {
	words := dice.Between(rng, 1, 3)
	var b strings.Builder
	for i := 0; i < words; i++ {
		b.WriteString(dice.Pick(rng, s.Prefixes))
		if i < words-1 {
			b.WriteString(dice.Pick(rng, s.Middles))
			b.WriteString(" ")
		}
	}
	b.WriteString(dice.Pick(rng, s.Suffixes))
	if sex == Female {
		b.WriteString(dice.Pick(rng, s.Feminine))
	}
	return b.String()
}

// RandomSex picks Male or Female.
func RandomSex(rng dice.Rand) string {
	return dice.Pick(rng, []string{Male, Female})
}

// MonsterName generates a monster name.
func (c *Catalog) MonsterName(rng dice.Rand, sex string) string {
	return c.Names["monster"].Generate(rng, sex)
}

// CharacterName generates a name for a party member.
func (c *Catalog) CharacterName(rng dice.Rand, sex string) string {
	return c.Names["character"].Generate(rng, sex)
}
