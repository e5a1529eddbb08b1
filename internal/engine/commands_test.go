package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tatianab/grave-master/internal/models"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		kind  CommandKind
		dir   models.Direction
		items []string
		name  string
	}{
		{input: "n", kind: CommandMove, dir: models.North},
		{input: "  Go   SouthWest ", kind: CommandMove, dir: models.Southwest},
		{input: "walk u", kind: CommandMove, dir: models.Up},
		{input: "go to the altar", kind: CommandNarrate},
		{input: "north of here is what?", kind: CommandNarrate},
		{input: "search room", kind: CommandSearch},
		{input: "Look room", kind: CommandSearch},
		{input: "investigate the room", kind: CommandSearch},
		{input: "explore room", kind: CommandSearch},
		{input: "look around", kind: CommandNarrate},
		{input: "take torch, rope 50 ft. and Dagger", kind: CommandTake, items: []string{"torch", "rope 50 ft.", "Dagger"}, name: "torch, rope 50 ft. and Dagger"},
		{input: "take all", kind: CommandTake, items: []string{"all"}, name: "all"},
		{input: "drop shield | helmet", kind: CommandDrop, items: []string{"shield", "helmet"}, name: "shield | helmet"},
		{input: "ready dagger +1", kind: CommandEquip, name: "dagger +1"},
		{input: "Equip shield", kind: CommandEquip, name: "shield"},
		{input: "add Gor Thrak to party", kind: CommandAddToParty, name: "Gor Thrak"},
		{input: "remove Gor Thrak from the party", kind: CommandRemoveFromParty, name: "Gor Thrak"},
		{input: "take", kind: CommandNarrate},
		{input: "", kind: CommandNarrate},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			assert.Equal(t, tt.kind, cmd.Kind)
			assert.Equal(t, tt.dir, cmd.Direction)
			assert.Equal(t, tt.items, cmd.Items)
			assert.Equal(t, tt.name, cmd.Name)
		})
	}
}

func TestNarratedCommands(t *testing.T) {
	assert.True(t, CommandMove.Narrated())
	assert.True(t, CommandSearch.Narrated())
	assert.True(t, CommandNarrate.Narrated())
	assert.False(t, CommandTake.Narrated())
	assert.False(t, CommandAddToParty.Narrated())
}
