// Package catalog holds the fixed item, race and class tables used to
// populate the world.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	Items             []string             `yaml:"items"`
	CharacterRaces    []string             `yaml:"character_races"`
	CharacterClasses  []string             `yaml:"character_classes"`
	HitDice           map[string]int       `yaml:"hit_dice"`
	MonsterRaces      []string             `yaml:"monster_races"`
	MonsterClasses    []string             `yaml:"monster_classes"`
	Names             map[string]Syllables `yaml:"names"`
	OriginDescription string               `yaml:"origin_description"`

	byLength []string
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog. It panics if the embedded data is
// malformed.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultCatalog)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultCat
}

// Parse decodes a catalog document and checks that every table is populated.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	switch {
	case len(c.Items) == 0:
		return nil, fmt.Errorf("catalog has no items")
	case len(c.MonsterRaces) == 0 || len(c.MonsterClasses) == 0:
		return nil, fmt.Errorf("catalog has no monster races or classes")
	case len(c.CharacterRaces) == 0 || len(c.CharacterClasses) == 0:
		return nil, fmt.Errorf("catalog has no character races or classes")
	}
	for _, kind := range []string{"monster", "character"} {
		if err := c.Names[kind].validate(); err != nil {
			return nil, fmt.Errorf("catalog %s names: %w", kind, err)
		}
	}

	c.byLength = slices.Clone(c.Items)
	// Longest first so "dagger +1" wins over "dagger" when scanning prose.
	slices.SortStableFunc(c.byLength, func(a, b string) int { return len(b) - len(a) })
	return &c, nil
}

// HitDie returns the level-up die size for class.
func (c *Catalog) HitDie(class string) (int, bool) {
	for name, die := range c.HitDice {
		if strings.EqualFold(name, class) {
			return die, true
		}
	}
	return 0, false
}

// ItemsByLength lists catalog items longest name first.
func (c *Catalog) ItemsByLength() []string {
	return c.byLength
}
