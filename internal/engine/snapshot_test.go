package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tatianab/grave-master/internal/models"
)

func TestRenderSnapshot(t *testing.T) {
	s := models.NewGameSession("c", 1)
	s.Player = &models.Entity{
		Name: "Mortacia", Sex: "Female", Race: "Goddess", Class: "Assassin-Fighter-Necromancer-Goddess",
		Level: 50, XP: 750000, HP: 130, MaxHP: 130,
	}
	node := s.Graph.Node(models.Origin)
	node.Exits = []models.Direction{models.North, models.East}
	node.Link(models.Origin.Step(models.North))
	node.Link(models.Origin.Step(models.East))
	s.Graph.Visit(models.Origin)
	room := s.CurrentRoom()
	room.BaseDescription = "A ruined temple."
	room.Items = []string{"torch", "rope 50 ft."}
	room.Monsters = []*models.Entity{
		{Name: "Gor", Sex: "Male", Race: "Orc", Class: "Warrior", Level: 2, XP: 15000, HP: 12, MaxHP: 12},
	}

	want := strings.Join([]string{
		"Seed:",
		"Room Description: A ruined temple.",
		"Coordinates: X: 0, Y: 0, Z: 0",
		"Objects in Room: torch, rope 50 ft.",
		"Exits: north, east",
		"Score:",
		"Artifacts Found:",
		"Quests Achieved:",
		"Inventory: Empty",
		"Equipped Items: ",
		"Turns: 0",
		"Player Character: Mortacia",
		"      Sex: Female",
		"      Race: Goddess",
		"      Class: Assassin-Fighter-Necromancer-Goddess",
		"      Level: 50",
		"      XP: 750000",
		"      HP: 130",
		"      MaxHP: 130",
		"      Equipped: None",
		"Non-Player Characters (NPCs) in Party: None",
		"Monsters in Room not in Party: Gor",
		"      Sex: Male",
		"      Race: Orc",
		"      Class: Warrior",
		"      Level: 2",
		"      XP: 15000",
		"      HP: 12",
		"      MaxHP: 12",
		"Rooms Visited: 1",
		"Coordinates of Connected Rooms: 0,1,0; 1,0,0",
	}, "\n")

	assert.Equal(t, want, RenderSnapshot(s))
}

func TestRenderSnapshotLists(t *testing.T) {
	s := models.NewGameSession("c", 1)
	s.Player = &models.Entity{Name: "Suzerain", Equipped: []string{"shield", "dagger"}}
	s.Inventory = []string{"torch", "candle"}
	s.Party = []*models.Entity{{Name: "Belen"}, {Name: "Ilia"}}
	s.Turns = 4

	out := RenderSnapshot(s)

	assert.Contains(t, out, "Objects in Room: None\n")
	assert.Contains(t, out, "Inventory: torch, candle\n")
	assert.Contains(t, out, "Equipped Items: shield, dagger\n")
	assert.Contains(t, out, "      Equipped: shield, dagger\n")
	assert.Contains(t, out, "Turns: 4\n")
	assert.Contains(t, out, "Non-Player Characters (NPCs) in Party: Belen\n      Sex: \n")
	assert.Contains(t, out, "\nIlia\n      Sex: ")
	assert.Contains(t, out, "Rooms Visited: 0\n")
	assert.True(t, strings.HasSuffix(out, "Coordinates of Connected Rooms: "))
}

func TestRenderPrompt(t *testing.T) {
	out, err := RenderPrompt(GenerationRequest{StateSnapshot: "Turns: 1", UserInput: "north"})
	assert.NoError(t, err)
	assert.NotContains(t, out, "Earlier in this adventure")
	assert.Contains(t, out, "Turns: 1")
	assert.Contains(t, out, "The player says: north")

	out, err = RenderPrompt(GenerationRequest{NarrativeContext: "look\nA crypt.", UserInput: "west"})
	assert.NoError(t, err)
	assert.Contains(t, out, "Earlier in this adventure:\n\nlook\nA crypt.")
}
