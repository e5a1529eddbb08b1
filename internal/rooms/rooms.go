// Package rooms manages what a room holds and how it moves into the
// player's hands: discovery on first visit, searching, take, drop, equip
// and party membership.
//
// Every operation validates its whole request before touching the session.
// A failed validation returns an errors.CodeValidation error whose message is
// the player-facing response, and leaves the session unchanged.
package rooms

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/tatianab/grave-master/internal/catalog"
	"github.com/tatianab/grave-master/internal/dice"
	apperrors "github.com/tatianab/grave-master/internal/errors"
	"github.com/tatianab/grave-master/internal/models"
	"github.com/tatianab/grave-master/internal/progression"
)

// Config controls discovery and inventory limits.
type Config struct {
	InventoryCap   int
	MonsterChance  float64
	DiscoveryXPMin int
	DiscoveryXPMax int
}

func DefaultConfig() Config {
	return Config{
		InventoryCap:   25,
		MonsterChance:  0.38,
		DiscoveryXPMin: 10000,
		DiscoveryXPMax: 50000,
	}
}

type Manager struct {
	cfg     Config
	catalog *catalog.Catalog
	tracker *progression.Tracker
	logger  *zap.Logger
}

func NewManager(cfg Config, cat *catalog.Catalog, tracker *progression.Tracker, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, catalog: cat, tracker: tracker, logger: logger}
}

// Discovery reports what a first visit produced.
type Discovery struct {
	Item     string
	XP       int
	Monsters int
}

// Discover populates the room at the current position the first time it is
// entered: one catalog item, an XP bonus for the player and party when the
// item is new, and possibly a group of monsters. Later calls do nothing.
func (m *Manager) Discover(rng dice.Rand, s *models.GameSession) Discovery {
	room := s.CurrentRoom()
	if room.Populated {
		return Discovery{}
	}
	room.Populated = true

	var d Discovery
	item := dice.Pick(rng, m.catalog.Items)
	if room.ItemIndex(item) < 0 {
		room.Items = append(room.Items, item)
		d.Item = item

		if s.DiscoveryXP == 0 {
			s.DiscoveryXP = dice.Between(rng, m.cfg.DiscoveryXPMin, m.cfg.DiscoveryXPMax)
		}
		d.XP = s.DiscoveryXP
		for _, e := range s.Entities() {
			m.tracker.AddXP(rng, e, d.XP)
		}
	}

	if dice.Chance(rng, m.cfg.MonsterChance) {
		room.Monsters = m.spawnMonsters(rng)
		d.Monsters = len(room.Monsters)
	}

	m.logger.Debug("room discovered",
		zap.String("coordinate", room.Coordinate.Key()),
		zap.String("item", d.Item),
		zap.Int("monsters", d.Monsters))
	return d
}

func (m *Manager) spawnMonsters(rng dice.Rand) []*models.Entity {
	n := dice.Between(rng, 1, 10)
	out := make([]*models.Entity, 0, n)
	for i := 0; i < n; i++ {
		level := dice.Between(rng, 1, 5)
		hp := level * dice.Between(rng, 1, 10)
		sex := catalog.RandomSex(rng)
		out = append(out, &models.Entity{
			Name:  m.catalog.MonsterName(rng, sex),
			Sex:   sex,
			Race:  dice.Pick(rng, m.catalog.MonsterRaces),
			Class: dice.Pick(rng, m.catalog.MonsterClasses),
			Level: level,
			XP:    progression.XPForLevel(level),
			HP:    hp,
			MaxHP: hp,
		})
	}
	return out
}

// Search scans the room's narrative for catalog items and adds the ones the
// player does not already see or hold. A room can be searched once.
func (m *Manager) Search(s *models.GameSession) ([]string, error) {
	room := s.CurrentRoom()
	if room.Searched {
		return nil, apperrors.Validation("You have already searched this room.")
	}

	text := room.BaseDescription + "\n" + room.LastNarrative
	var found []string
	for _, item := range FindItems(text, m.catalog.ItemsByLength()) {
		if m.isKnown(s, room, item) {
			continue
		}
		found = append(found, item)
	}

	room.Searched = true
	room.Items = append(room.Items, found...)
	room.Annotations = append(room.Annotations, found...)
	return found, nil
}

func (m *Manager) isKnown(s *models.GameSession, room *models.Room, item string) bool {
	key := models.ItemKey(item)
	held := slices.Concat(room.Items, s.Inventory)
	for _, e := range s.Entities() {
		held = append(held, e.Equipped...)
	}
	for _, h := range held {
		hk := models.ItemKey(h)
		if hk == key || strings.Contains(hk, key) {
			return true
		}
	}
	return false
}

// FindItems returns the items named in text, matched case-insensitively on
// word boundaries. items should be ordered longest first so a longer name
// claims its text before a shorter name inside it.
func FindItems(text string, items []string) []string {
	lower := []byte(strings.ToLower(text))
	var found []string
	for _, item := range items {
		needle := strings.ToLower(item)
		if needle == "" {
			continue
		}
		matched := false
		for from := 0; ; {
			i := strings.Index(string(lower[from:]), needle)
			if i < 0 {
				break
			}
			start, end := from+i, from+i+len(needle)
			if boundary(lower, start, end) {
				matched = true
				for j := start; j < end; j++ {
					lower[j] = ' '
				}
			}
			from = start + 1
		}
		if matched {
			found = append(found, item)
		}
	}
	return found
}

func boundary(text []byte, start, end int) bool {
	if isWordByte(text[start]) && start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if isWordByte(text[end-1]) && end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

var listSeparator = regexp.MustCompile(`\s*,\s*|\s*\|\s*|\s+and\s+`)

// ParseItemList splits "torch, rope 50 ft. and dagger" into item names.
func ParseItemList(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range listSeparator.Split(strings.TrimSpace(s), -1) {
		key := models.ItemKey(part)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func joinNames(names []string) string {
	return strings.Join(names, " and ")
}

func isAll(items []string) bool {
	return len(items) == 1 && models.ItemKey(items[0]) == "all"
}

func indexOf(list []string, name string) int {
	key := models.ItemKey(name)
	return slices.IndexFunc(list, func(it string) bool { return models.ItemKey(it) == key })
}

// Take moves items from the room into the inventory.
func (m *Manager) Take(s *models.GameSession, requested []string) (string, error) {
	room := s.CurrentRoom()
	if len(requested) == 0 {
		return "", apperrors.Validation("Take what?")
	}
	if isAll(requested) {
		if len(room.Items) == 0 {
			return "", apperrors.Validation("The room is empty.")
		}
		requested = slices.Clone(room.Items)
	}

	var missing, held []string
	for _, name := range requested {
		if room.ItemIndex(name) >= 0 {
			continue
		}
		if indexOf(s.Inventory, name) >= 0 {
			held = append(held, name)
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", apperrors.Validation(fmt.Sprintf("There is no %s here.", joinNames(missing)))
	}
	if len(held) > 0 {
		return "", apperrors.Validation(fmt.Sprintf("You already have the %s in your inventory.", joinNames(held)))
	}
	if len(s.Inventory)+len(requested) > m.cfg.InventoryCap {
		return "", apperrors.Validation("You can't carry that much.")
	}

	for _, name := range requested {
		i := room.ItemIndex(name)
		s.Inventory = append(s.Inventory, room.Items[i])
		room.Items = slices.Delete(room.Items, i, i+1)
	}
	return "Taken.", nil
}

// Drop moves items from the inventory into the room.
func (m *Manager) Drop(s *models.GameSession, requested []string) (string, error) {
	room := s.CurrentRoom()
	if len(s.Inventory) == 0 {
		return "", apperrors.Validation("Your inventory is empty.")
	}
	if len(requested) == 0 {
		return "", apperrors.Validation("Drop what?")
	}
	if isAll(requested) {
		requested = slices.Clone(s.Inventory)
	}

	var missing []string
	for _, name := range requested {
		if indexOf(s.Inventory, name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", apperrors.Validation(fmt.Sprintf("You don't have the %s.", joinNames(missing)))
	}

	for _, name := range requested {
		i := indexOf(s.Inventory, name)
		room.Items = append(room.Items, s.Inventory[i])
		s.Inventory = slices.Delete(s.Inventory, i, i+1)
	}
	return "Dropped.", nil
}

// Equip moves an item from the inventory to the player's equipped items.
func (m *Manager) Equip(s *models.GameSession, name string) (string, error) {
	i := indexOf(s.Inventory, name)
	if i < 0 || s.Player == nil {
		return "", apperrors.Validation(fmt.Sprintf("You don't have the %s in your inventory.", strings.TrimSpace(name)))
	}
	item := s.Inventory[i]
	s.Inventory = slices.Delete(s.Inventory, i, i+1)
	s.Player.Equipped = append(s.Player.Equipped, item)
	return fmt.Sprintf("You have equipped the %s.", item), nil
}

func entityIndex(list []*models.Entity, name string) int {
	name = strings.TrimSpace(name)
	return slices.IndexFunc(list, func(e *models.Entity) bool { return strings.EqualFold(e.Name, name) })
}

// AddToParty moves a monster from the room into the party.
func (m *Manager) AddToParty(s *models.GameSession, name string) (string, error) {
	room := s.CurrentRoom()
	i := entityIndex(room.Monsters, name)
	if i < 0 {
		return "", apperrors.Validation(fmt.Sprintf("%s is not in the room.", strings.TrimSpace(name)))
	}
	e := room.Monsters[i]
	room.Monsters = slices.Delete(room.Monsters, i, i+1)
	s.Party = append(s.Party, e)
	return fmt.Sprintf("You added %s to the party.", e.Name), nil
}

// RemoveFromParty moves a party member into the current room.
func (m *Manager) RemoveFromParty(s *models.GameSession, name string) (string, error) {
	i := entityIndex(s.Party, name)
	if i < 0 {
		return "", apperrors.Validation(fmt.Sprintf("%s is not in the party.", strings.TrimSpace(name)))
	}
	e := s.Party[i]
	s.Party = slices.Delete(s.Party, i, i+1)
	room := s.CurrentRoom()
	room.Monsters = append(room.Monsters, e)
	return fmt.Sprintf("You removed %s from the party.", e.Name), nil
}
