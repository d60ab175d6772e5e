package model

import "time"

type ServerMessage struct {
	Setup   []Setup
	Changes []CellChange
	Status  []Status
}

type Setup struct {
	Rows, Cols int
	Tiles      Tiles
	Start, End Position
	Cells      [][]CellState
	Running    bool
}

type Status struct {
	RunID      string
	Running    bool
	Found      bool
	Stale      bool
	Cost       float64
	PathLength int
	Expanded   int
	Duration   time.Duration
	Error      string
}

type ClientAction int

const (
	ACTION_SET_CELL ClientAction = iota + 1
	ACTION_START
	ACTION_STOP
)

type ClientMessage struct {
	Action   ClientAction
	Row, Col int
	State    CellState
}
