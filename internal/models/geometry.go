package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinate is the integer address of a room.
type Coordinate struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// Origin is where every conversation starts.
var Origin = Coordinate{}

// Key is the canonical map key and display form, "x,y,z".
func (c Coordinate) Key() string {
	return fmt.Sprintf("%d,%d,%d", c.X, c.Y, c.Z)
}

func (c Coordinate) String() string {
	return c.Key()
}

// ParseCoordinate reverses Key.
func ParseCoordinate(key string) (Coordinate, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 3 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q", key)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Coordinate{}, fmt.Errorf("invalid coordinate %q: %w", key, err)
		}
		vals[i] = v
	}
	return Coordinate{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// Step returns the neighbouring coordinate in direction d.
func (c Coordinate) Step(d Direction) Coordinate {
	off := offsets[d]
	return Coordinate{X: c.X + off.X, Y: c.Y + off.Y, Z: c.Z + off.Z}
}

// Neighbors returns the ten geometric neighbours in Directions order.
func (c Coordinate) Neighbors() []Coordinate {
	out := make([]Coordinate, 0, len(Directions))
	for _, d := range Directions {
		out = append(out, c.Step(d))
	}
	return out
}

// DirectionTo returns the direction leading from c to an adjacent coordinate.
func (c Coordinate) DirectionTo(other Coordinate) (Direction, bool) {
	delta := Coordinate{X: other.X - c.X, Y: other.Y - c.Y, Z: other.Z - c.Z}
	for _, d := range Directions {
		if offsets[d] == delta {
			return d, true
		}
	}
	return "", false
}

// Direction names an exit.
type Direction string

const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Southeast Direction = "southeast"
	Northwest Direction = "northwest"
	Southwest Direction = "southwest"
	Up        Direction = "up"
	Down      Direction = "down"
)

// Directions lists every direction in a fixed order.
var Directions = []Direction{North, South, East, West, Northeast, Southeast, Northwest, Southwest, Up, Down}

var offsets = map[Direction]Coordinate{
	North:     {Y: 1},
	South:     {Y: -1},
	East:      {X: 1},
	West:      {X: -1},
	Northeast: {X: 1, Y: 1},
	Southeast: {X: 1, Y: -1},
	Northwest: {X: -1, Y: 1},
	Southwest: {X: -1, Y: -1},
	Up:        {Z: 1},
	Down:      {Z: -1},
}

var abbreviations = map[string]Direction{
	"n": North, "s": South, "e": East, "w": West,
	"ne": Northeast, "se": Southeast, "nw": Northwest, "sw": Southwest,
	"u": Up, "d": Down,
}

// ParseDirection accepts full names and short forms, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := abbreviations[s]; ok {
		return d, true
	}
	d := Direction(s)
	if _, ok := offsets[d]; ok {
		return d, true
	}
	return "", false
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	off := offsets[d]
	back, _ := Origin.DirectionTo(Coordinate{X: -off.X, Y: -off.Y, Z: -off.Z})
	return back
}

// Valid reports whether d is one of the ten directions.
func (d Direction) Valid() bool {
	_, ok := offsets[d]
	return ok
}
