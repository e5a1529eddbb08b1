package engine

import (
	"regexp"
	"slices"
	"strings"

	"github.com/tatianab/grave-master/internal/models"
	"github.com/tatianab/grave-master/internal/rooms"
)

type CommandKind int

const (
	// CommandNarrate is free text passed through to the narrator.
	CommandNarrate CommandKind = iota
	CommandMove
	CommandSearch
	CommandTake
	CommandDrop
	CommandEquip
	CommandAddToParty
	CommandRemoveFromParty
)

func (k CommandKind) String() string {
	switch k {
	case CommandMove:
		return "move"
	case CommandSearch:
		return "search"
	case CommandTake:
		return "take"
	case CommandDrop:
		return "drop"
	case CommandEquip:
		return "equip"
	case CommandAddToParty:
		return "add_to_party"
	case CommandRemoveFromParty:
		return "remove_from_party"
	default:
		return "narrate"
	}
}

// Narrated reports whether the command's response comes from the narrator.
// The rest answer with a fixed message.
func (k CommandKind) Narrated() bool {
	return k == CommandNarrate || k == CommandMove || k == CommandSearch
}

type Command struct {
	Kind      CommandKind
	Direction models.Direction
	Items     []string
	Name      string
	Raw       string
}

var (
	moveVerbs   = []string{"go", "move", "walk", "travel", "head"}
	searchVerbs = []string{"search", "look", "investigate", "examine", "explore"}

	takePattern   = regexp.MustCompile(`(?i)^take\s+(.+)$`)
	dropPattern   = regexp.MustCompile(`(?i)^drop\s+(.+)$`)
	equipPattern  = regexp.MustCompile(`(?i)^(?:ready|equip)\s+(.+)$`)
	addPattern    = regexp.MustCompile(`(?i)^add\s+(.+?)\s+to\s+(?:the\s+)?party$`)
	removePattern = regexp.MustCompile(`(?i)^remove\s+(.+?)\s+from\s+(?:the\s+)?party$`)
	searchPattern = regexp.MustCompile(`(?i)^(\w+)\s+(?:the\s+)?room$`)
)

// ParseCommand classifies player input. Anything it does not recognise is a
// CommandNarrate.
func ParseCommand(input string) Command {
	raw := strings.Join(strings.Fields(input), " ")
	cmd := Command{Kind: CommandNarrate, Raw: raw}
	words := strings.Fields(strings.ToLower(raw))
	if len(words) == 0 {
		return cmd
	}

	if len(words) == 1 {
		if d, ok := models.ParseDirection(words[0]); ok {
			cmd.Kind, cmd.Direction = CommandMove, d
			return cmd
		}
	}
	if len(words) == 2 && slices.Contains(moveVerbs, words[0]) {
		if d, ok := models.ParseDirection(words[1]); ok {
			cmd.Kind, cmd.Direction = CommandMove, d
			return cmd
		}
	}

	if m := searchPattern.FindStringSubmatch(raw); m != nil && slices.Contains(searchVerbs, strings.ToLower(m[1])) {
		cmd.Kind = CommandSearch
		return cmd
	}

	switch {
	case matchInto(takePattern, raw, &cmd.Name):
		cmd.Kind, cmd.Items = CommandTake, rooms.ParseItemList(cmd.Name)
	case matchInto(dropPattern, raw, &cmd.Name):
		cmd.Kind, cmd.Items = CommandDrop, rooms.ParseItemList(cmd.Name)
	case matchInto(equipPattern, raw, &cmd.Name):
		cmd.Kind = CommandEquip
	case matchInto(addPattern, raw, &cmd.Name):
		cmd.Kind = CommandAddToParty
	case matchInto(removePattern, raw, &cmd.Name):
		cmd.Kind = CommandRemoveFromParty
	}
	return cmd
}

func matchInto(re *regexp.Regexp, s string, dst *string) bool {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	*dst = strings.TrimSpace(m[1])
	return true
}
