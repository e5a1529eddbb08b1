package engine

import (
	"fmt"
	"strings"

	"github.com/tatianab/grave-master/internal/models"
)

const blockIndent = "      "

// RenderSnapshot renders the state block sent to the narrator with every turn.
func RenderSnapshot(s *models.GameSession) string {
	room := s.CurrentRoom()
	var exits []string
	var connected []string
	if node, ok := s.Graph.Lookup(s.Position); ok {
		for _, d := range node.Exits {
			exits = append(exits, string(d))
		}
		for _, c := range node.ConnectedRooms {
			connected = append(connected, c.Key())
		}
	}
	var equipped []string
	if s.Player != nil {
		equipped = s.Player.Equipped
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\n")
	}
	line("Seed:")
	line("Room Description: %s", room.Description())
	line("Coordinates: X: %d, Y: %d, Z: %d", s.Position.X, s.Position.Y, s.Position.Z)
	line("Objects in Room: %s", listOr(room.Items, "None"))
	line("Exits: %s", strings.Join(exits, ", "))
	line("Score:")
	line("Artifacts Found:")
	line("Quests Achieved:")
	line("Inventory: %s", listOr(s.Inventory, "Empty"))
	line("Equipped Items: %s", strings.Join(equipped, ", "))
	line("Turns: %d", s.Turns)
	line("Player Character: %s", playerBlock(s.Player))
	line("Non-Player Characters (NPCs) in Party: %s", entityBlocks(s.Party))
	line("Monsters in Room not in Party: %s", entityBlocks(room.Monsters))
	line("Rooms Visited: %d", len(s.Graph.Visited))
	b.WriteString("Coordinates of Connected Rooms: " + strings.Join(connected, "; "))
	return b.String()
}

func listOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

func entityBlock(e *models.Entity) string {
	fields := []string{
		e.Name,
		"Sex: " + e.Sex,
		"Race: " + e.Race,
		"Class: " + e.Class,
		fmt.Sprintf("Level: %d", e.Level),
		fmt.Sprintf("XP: %d", e.XP),
		fmt.Sprintf("HP: %d", e.HP),
		fmt.Sprintf("MaxHP: %d", e.MaxHP),
	}
	return strings.Join(fields, "\n"+blockIndent)
}

func playerBlock(e *models.Entity) string {
	if e == nil {
		return "None"
	}
	return entityBlock(e) + "\n" + blockIndent + "Equipped: " + listOr(e.Equipped, "None")
}

func entityBlocks(list []*models.Entity) string {
	if len(list) == 0 {
		return "None"
	}
	blocks := make([]string, len(list))
	for i, e := range list {
		blocks[i] = entityBlock(e)
	}
	return strings.Join(blocks, "\n")
}
