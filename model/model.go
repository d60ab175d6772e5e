package model

import (
	"fmt"
	"github.com/pkg/errors"
	"strings"
	"sync"
)

type CellState int

const (
	CELL_FREE CellState = iota
	CELL_BLOCKED
	CELL_VISITED
	CELL_PATH
	CELL_START
	CELL_END
)

var (
	ErrOutOfRange = errors.New("cell out of range")
	ErrFormat     = errors.New("malformed map")
)

var cellNames = map[CellState]string{
	CELL_FREE:    "free",
	CELL_BLOCKED: "blocked",
	CELL_VISITED: "visited",
	CELL_PATH:    "path",
	CELL_START:   "start",
	CELL_END:     "end",
}

func (cs CellState) Name() string {
	if n, ok := cellNames[cs]; ok {
		return n
	}
	return fmt.Sprintf("n/a:%d", cs)
}

func (cs CellState) String() string { return cs.Name() }

// ParseCellState accepts the names returned by Name, case insensitive.
func ParseCellState(name string) (CellState, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for cs, n := range cellNames {
		if n == name {
			return cs, nil
		}
	}
	return CELL_FREE, errors.Errorf("unknown cell state %q", name)
}

type Position struct {
	Row, Col int
}

// Unset marks a start or end that has not been placed yet.
var Unset = Position{Row: -1, Col: -1}

func (p Position) IsSet() bool { return p != Unset }

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Tiles is display metadata read from the map header. The grid never uses it.
type Tiles struct {
	Width, Height int
	Tileset       string
}

type CellChange struct {
	Row, Col int
	State    CellState
}

// GridEvent reports grid mutations. Reset means the whole grid changed and
// observers should take a fresh Snapshot.
type GridEvent struct {
	Reset   bool
	Changes []CellChange
}

// Listener runs with the grid lock held; it must not block or call back into the grid.
type Listener func(GridEvent)

// Grid is the shared map of cell states. Every access goes through one mutex.
type Grid struct {
	mu       sync.Mutex
	rows     int
	cols     int
	cells    [][]CellState
	start    Position
	end      Position
	tiles    Tiles
	listener Listener
}
