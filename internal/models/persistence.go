package models

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Encode serialises the session for the state store.
func (s *GameSession) Encode() ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodeSession reverses Encode.
func DecodeSession(data []byte) (*GameSession, error) {
	var s GameSession
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session YAML: %w", err)
	}
	s.normalize()
	return &s, nil
}

func (s *GameSession) normalize() {
	if s.Graph == nil {
		s.Graph = NewGraph()
	}
	if s.Graph.Nodes == nil {
		s.Graph.Nodes = make(map[string]*RoomNode)
	}
	if s.Rooms == nil {
		s.Rooms = make(map[string]*Room)
	}
}

type worldFile struct {
	Position Coordinate       `yaml:"position"`
	Graph    *Graph           `yaml:"graph"`
	Rooms    map[string]*Room `yaml:"rooms"`
}

type partyFile struct {
	Player    *Entity   `yaml:"player"`
	Party     []*Entity `yaml:"party"`
	Inventory []string  `yaml:"inventory"`
}

type stateFile struct {
	ID          string `yaml:"id"`
	Seed        int64  `yaml:"seed"`
	DiscoveryXP int    `yaml:"discovery_xp"`
	Turns       int    `yaml:"turns"`
}

// Export writes the session as world.yaml, party.yaml and state.yaml under
// root/name.
func (s *GameSession) Export(root, name string) error {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	files := map[string]any{
		"world.yaml": worldFile{Position: s.Position, Graph: s.Graph, Rooms: s.Rooms},
		"party.yaml": partyFile{Player: s.Player, Party: s.Party, Inventory: s.Inventory},
		"state.yaml": stateFile{ID: s.ID, Seed: s.Seed, DiscoveryXP: s.DiscoveryXP, Turns: s.Turns},
	}
	for file, v := range files {
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, file), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// ImportSession reads a session written by Export.
func ImportSession(root, name string) (*GameSession, error) {
	dir := filepath.Join(root, name)

	var world worldFile
	if err := readYAML(filepath.Join(dir, "world.yaml"), &world); err != nil {
		return nil, err
	}
	var party partyFile
	if err := readYAML(filepath.Join(dir, "party.yaml"), &party); err != nil {
		return nil, err
	}
	var state stateFile
	if err := readYAML(filepath.Join(dir, "state.yaml"), &state); err != nil {
		return nil, err
	}

	s := &GameSession{
		ID:          state.ID,
		Seed:        state.Seed,
		Position:    world.Position,
		Graph:       world.Graph,
		Rooms:       world.Rooms,
		Inventory:   party.Inventory,
		Player:      party.Player,
		Party:       party.Party,
		DiscoveryXP: state.DiscoveryXP,
		Turns:       state.Turns,
	}
	s.normalize()
	return s, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ListExports returns the names of exported sessions under root.
func ListExports(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() {
			// world.yaml marks a complete export
			worldPath := filepath.Join(root, entry.Name(), "world.yaml")
			if _, err := os.Stat(worldPath); err == nil {
				sessions = append(sessions, entry.Name())
			}
		}
	}
	return sessions, nil
}
