// Package world generates and walks the coordinate graph of a conversation.
//
// Rooms are created lazily. A room's exits are fixed the first time it is
// generated; later calls return the same set. Every edge is recorded on both
// endpoints, so for any two generated rooms A and B, A has an exit toward B
// exactly when B lists A among its connected rooms.
package world

import (
	"slices"

	"github.com/tatianab/grave-master/internal/dice"
	apperrors "github.com/tatianab/grave-master/internal/errors"
	"github.com/tatianab/grave-master/internal/models"
)

// DefaultMaxExits bounds the number of random exits sampled per room.
const DefaultMaxExits = 5

// ErrNoExit is the response for a move through a missing exit.
var ErrNoExit = apperrors.Validation("You can't go that way.")

// Mapper generates exits for one conversation's graph.
type Mapper struct {
	graph    *models.Graph
	rng      dice.Rand
	maxExits int
}

// NewMapper returns a Mapper over g. maxExits values below one fall back to
// DefaultMaxExits.
func NewMapper(g *models.Graph, rng dice.Rand, maxExits int) *Mapper {
	if maxExits < 1 {
		maxExits = DefaultMaxExits
	}
	return &Mapper{graph: g, rng: rng, maxExits: maxExits}
}

// GenerateExits returns the exits of the room at c, generating them on the
// first call. previous is the room the player arrived from, if any.
func (m *Mapper) GenerateExits(c models.Coordinate, previous *models.Coordinate) []models.Direction {
	node := m.graph.Node(c)
	if node.Generated {
		return slices.Clone(node.Exits)
	}

	if previous != nil && *previous != c {
		if _, ok := c.DirectionTo(*previous); ok {
			m.connect(c, *previous)
		}
	}

	candidates := m.candidates(c)
	k := dice.Between(m.rng, 1, m.maxExits)
	for _, d := range sample(m.rng, candidates, k) {
		m.connect(c, c.Step(d))
	}

	// Edges registered by neighbours before this room was generated.
	for _, other := range node.ConnectedRooms {
		if d, ok := c.DirectionTo(other); ok {
			node.AddExit(d)
		}
	}

	if len(node.Exits) == 0 {
		// Every neighbour is already generated and none leads here.
		d := dice.Pick(m.rng, models.Directions)
		m.connect(c, c.Step(d))
	}

	node.Generated = true
	return slices.Clone(node.Exits)
}

// candidates lists directions whose neighbour has not been generated,
// preferring those not yet visited.
func (m *Mapper) candidates(c models.Coordinate) []models.Direction {
	var fresh, fallback []models.Direction
	for _, d := range models.Directions {
		next := c.Step(d)
		if n, ok := m.graph.Lookup(next); ok && n.Generated {
			continue
		}
		if m.graph.IsVisited(next) {
			fallback = append(fallback, d)
			continue
		}
		fresh = append(fresh, d)
	}
	if len(fresh) > 0 {
		return fresh
	}
	return fallback
}

// connect records the edge a-b on both nodes and gives a its exit toward b.
// If b was already generated it also gains the exit back, keeping both sides
// consistent.
func (m *Mapper) connect(a, b models.Coordinate) {
	na, nb := m.graph.Node(a), m.graph.Node(b)
	na.Link(b)
	nb.Link(a)
	if d, ok := a.DirectionTo(b); ok {
		na.AddExit(d)
	}
	if nb.Generated {
		if d, ok := b.DirectionTo(a); ok {
			nb.AddExit(d)
		}
	}
}

// sample draws up to k directions without replacement.
func sample(rng dice.Rand, from []models.Direction, k int) []models.Direction {
	pool := slices.Clone(from)
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Enter generates the exits of c if needed and marks it visited. It reports
// whether this is the first visit.
func (m *Mapper) Enter(c models.Coordinate, previous *models.Coordinate) bool {
	m.GenerateExits(c, previous)
	return m.graph.Visit(c)
}

// Move resolves a step from the room at c in direction d. Moves through a
// missing exit fail with ErrNoExit.
func (m *Mapper) Move(c models.Coordinate, d models.Direction) (models.Coordinate, error) {
	node, ok := m.graph.Lookup(c)
	if !ok || !node.HasExit(d) {
		return c, ErrNoExit
	}
	return c.Step(d), nil
}

// ConnectedRooms returns the coordinates linked to c.
func (m *Mapper) ConnectedRooms(c models.Coordinate) []models.Coordinate {
	node, ok := m.graph.Lookup(c)
	if !ok {
		return nil
	}
	return slices.Clone(node.ConnectedRooms)
}
