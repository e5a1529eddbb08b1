package models

import (
	"slices"
	"strings"
	"time"
)

// RoomNode is the graph vertex for one coordinate.
type RoomNode struct {
	Coordinate       Coordinate   `yaml:"coordinate"`
	Exits            []Direction  `yaml:"exits"`
	Generated        bool         `yaml:"generated"`
	ConnectedRooms   []Coordinate `yaml:"connected_rooms"`
	UnconnectedRooms []Coordinate `yaml:"unconnected_rooms"`
}

func newRoomNode(c Coordinate) *RoomNode {
	return &RoomNode{
		Coordinate:       c,
		UnconnectedRooms: c.Neighbors(),
	}
}

// HasExit reports whether d is one of the node's exits.
func (n *RoomNode) HasExit(d Direction) bool {
	return slices.Contains(n.Exits, d)
}

// AddExit appends d unless already present.
func (n *RoomNode) AddExit(d Direction) {
	if !n.HasExit(d) {
		n.Exits = append(n.Exits, d)
	}
}

// IsLinked reports whether c is in the node's connected rooms.
func (n *RoomNode) IsLinked(c Coordinate) bool {
	return slices.Contains(n.ConnectedRooms, c)
}

// Link records c as connected and drops it from the unconnected rooms.
func (n *RoomNode) Link(c Coordinate) {
	if !n.IsLinked(c) {
		n.ConnectedRooms = append(n.ConnectedRooms, c)
	}
	n.UnconnectedRooms = slices.DeleteFunc(n.UnconnectedRooms, func(u Coordinate) bool { return u == c })
}

func (n *RoomNode) clone() *RoomNode {
	return &RoomNode{
		Coordinate:       n.Coordinate,
		Exits:            slices.Clone(n.Exits),
		Generated:        n.Generated,
		ConnectedRooms:   slices.Clone(n.ConnectedRooms),
		UnconnectedRooms: slices.Clone(n.UnconnectedRooms),
	}
}

// Graph is the per-conversation coordinate graph and visited set.
type Graph struct {
	Nodes   map[string]*RoomNode `yaml:"nodes"`
	Visited []Coordinate         `yaml:"visited"`
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]*RoomNode)}
}

// Node returns the node at c, creating it on first reference.
func (g *Graph) Node(c Coordinate) *RoomNode {
	if g.Nodes == nil {
		g.Nodes = make(map[string]*RoomNode)
	}
	n, ok := g.Nodes[c.Key()]
	if !ok {
		n = newRoomNode(c)
		g.Nodes[c.Key()] = n
	}
	return n
}

// Lookup returns the node at c without creating it.
func (g *Graph) Lookup(c Coordinate) (*RoomNode, bool) {
	n, ok := g.Nodes[c.Key()]
	return n, ok
}

// Visit adds c to the visited set. It reports whether this was the first visit.
func (g *Graph) Visit(c Coordinate) bool {
	if g.IsVisited(c) {
		return false
	}
	g.Visited = append(g.Visited, c)
	return true
}

func (g *Graph) IsVisited(c Coordinate) bool {
	return slices.Contains(g.Visited, c)
}

// LastVisited returns the most recently added coordinate of the visited set.
func (g *Graph) LastVisited() (Coordinate, bool) {
	if len(g.Visited) == 0 {
		return Coordinate{}, false
	}
	return g.Visited[len(g.Visited)-1], true
}

func (g *Graph) clone() *Graph {
	out := &Graph{
		Nodes:   make(map[string]*RoomNode, len(g.Nodes)),
		Visited: slices.Clone(g.Visited),
	}
	for k, n := range g.Nodes {
		out.Nodes[k] = n.clone()
	}
	return out
}

// Entity is any stat-bearing actor: the player, a party NPC or a monster.
type Entity struct {
	Name     string   `yaml:"name"`
	Sex      string   `yaml:"sex"`
	Race     string   `yaml:"race"`
	Class    string   `yaml:"class"`
	Level    int      `yaml:"level"`
	XP       int      `yaml:"xp"`
	HP       int      `yaml:"hp"`
	MaxHP    int      `yaml:"max_hp"`
	Equipped []string `yaml:"equipped,omitempty"`
}

func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	c.Equipped = slices.Clone(e.Equipped)
	return &c
}

func cloneEntities(in []*Entity) []*Entity {
	if in == nil {
		return nil
	}
	out := make([]*Entity, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

// Room holds the contents and narrative of a visited coordinate.
type Room struct {
	Coordinate      Coordinate `yaml:"coordinate"`
	BaseDescription string     `yaml:"base_description"`
	// Annotations are items surfaced by a search, rendered after the base
	// description while they remain in the room.
	Annotations   []string  `yaml:"annotations,omitempty"`
	LastNarrative string    `yaml:"last_narrative,omitempty"`
	Items         []string  `yaml:"items"`
	Monsters      []*Entity `yaml:"monsters,omitempty"`
	Searched      bool      `yaml:"searched"`
	Populated     bool      `yaml:"populated"`
}

// Description renders the base description followed by one sentence per
// annotated item still present.
func (r *Room) Description() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.BaseDescription))
	for _, item := range r.Annotations {
		if r.ItemIndex(item) < 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("There is " + item + " here.")
	}
	return b.String()
}

// ItemIndex finds an item by canonical key, or -1.
func (r *Room) ItemIndex(name string) int {
	key := ItemKey(name)
	return slices.IndexFunc(r.Items, func(it string) bool { return ItemKey(it) == key })
}

func (r *Room) clone() *Room {
	c := *r
	c.Annotations = slices.Clone(r.Annotations)
	c.Items = slices.Clone(r.Items)
	c.Monsters = cloneEntities(r.Monsters)
	return &c
}

// ItemKey canonicalises an item name: lower case with whitespace collapsed.
func ItemKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// GameSession is the complete world state of one conversation.
type GameSession struct {
	ID       string           `yaml:"id"`
	Seed     int64            `yaml:"seed"`
	Position Coordinate       `yaml:"position"`
	Graph    *Graph           `yaml:"graph"`
	Rooms    map[string]*Room `yaml:"rooms"`

	Inventory []string  `yaml:"inventory"`
	Player    *Entity   `yaml:"player"`
	Party     []*Entity `yaml:"party,omitempty"`

	// DiscoveryXP is drawn once per conversation and granted on every
	// discovery.
	DiscoveryXP int `yaml:"discovery_xp"`
	Turns       int `yaml:"turns"`
}

// NewGameSession returns an empty session at the origin.
func NewGameSession(id string, seed int64) *GameSession {
	return &GameSession{
		ID:    id,
		Seed:  seed,
		Graph: NewGraph(),
		Rooms: make(map[string]*Room),
	}
}

// Room returns the content record at c, creating it on first reference.
func (s *GameSession) Room(c Coordinate) *Room {
	if s.Rooms == nil {
		s.Rooms = make(map[string]*Room)
	}
	r, ok := s.Rooms[c.Key()]
	if !ok {
		r = &Room{Coordinate: c}
		s.Rooms[c.Key()] = r
	}
	return r
}

// CurrentRoom is the content record at the current position.
func (s *GameSession) CurrentRoom() *Room {
	return s.Room(s.Position)
}

// Entities lists the player followed by the party.
func (s *GameSession) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.Party)+1)
	if s.Player != nil {
		out = append(out, s.Player)
	}
	return append(out, s.Party...)
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *GameSession) Clone() *GameSession {
	c := *s
	if s.Graph != nil {
		c.Graph = s.Graph.clone()
	}
	c.Rooms = make(map[string]*Room, len(s.Rooms))
	for k, r := range s.Rooms {
		c.Rooms[k] = r.clone()
	}
	c.Inventory = slices.Clone(s.Inventory)
	c.Player = s.Player.Clone()
	c.Party = cloneEntities(s.Party)
	return &c
}

// TurnLogEntry is one persisted prompt/response pair.
type TurnLogEntry struct {
	ConversationID string    `yaml:"conversation_id"`
	SequenceIndex  int       `yaml:"sequence_index"`
	Prompt         string    `yaml:"prompt"`
	Response       string    `yaml:"response"`
	StateSnapshot  string    `yaml:"state_snapshot"`
	CreatedAt      time.Time `yaml:"created_at"`
}
