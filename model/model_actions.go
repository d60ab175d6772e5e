package model

import (
	"github.com/pkg/errors"
	"strings"
)

func NewGrid() *Grid {
	return &Grid{start: Unset, end: Unset, cells: make([][]CellState, 0)}
}

// NewSizedGrid returns a rows x cols grid with every cell free.
func NewSizedGrid(rows, cols int) *Grid {
	g := NewGrid()
	g.rows, g.cols = rows, cols
	g.cells = makeCells(rows, cols)
	return g
}

func makeCells(rows, cols int) [][]CellState {
	cells := make([][]CellState, 0, rows)
	for r := 0; r < rows; r++ {
		cells = append(cells, make([]CellState, cols))
	}
	return cells
}

func (g *Grid) SetListener(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listener = l
}

func (g *Grid) notify(ev GridEvent) {
	if g.listener != nil {
		g.listener(ev)
	}
}

func (g *Grid) Rows() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rows
}

func (g *Grid) Columns() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cols
}

func (g *Grid) Tiles() Tiles {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tiles
}

func (g *Grid) Start() Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.start
}

func (g *Grid) End() Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.end
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

func (g *Grid) checkBounds(row, col int) error {
	if !g.inBounds(row, col) {
		return errors.Wrapf(ErrOutOfRange, "(%d,%d) outside %dx%d", row, col, g.rows, g.cols)
	}
	return nil
}

func (g *Grid) CellAt(row, col int) (CellState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkBounds(row, col); err != nil {
		return CELL_FREE, err
	}
	return g.cells[row][col], nil
}

// SetCell writes one cell. Placing a start or end moves it: the previous
// start (or end) cell becomes free again.
func (g *Grid) SetCell(row, col int, state CellState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkBounds(row, col); err != nil {
		return err
	}
	changes := make([]CellChange, 0, 2)
	pos := Position{Row: row, Col: col}
	switch state {
	case CELL_START:
		if g.start.IsSet() && g.start != pos {
			changes = append(changes, g.write(g.start, CELL_FREE))
		}
		g.start = pos
	case CELL_END:
		if g.end.IsSet() && g.end != pos {
			changes = append(changes, g.write(g.end, CELL_FREE))
		}
		g.end = pos
	}
	if state != CELL_START && g.start == pos {
		g.start = Unset
	}
	if state != CELL_END && g.end == pos {
		g.end = Unset
	}
	changes = append(changes, g.write(pos, state))
	g.notify(GridEvent{Changes: changes})
	return nil
}

func (g *Grid) write(p Position, state CellState) CellChange {
	g.cells[p.Row][p.Col] = state
	return CellChange{Row: p.Row, Col: p.Col, State: state}
}

// MarkVisited flags a cell as explored. Start, end and path cells keep their state.
func (g *Grid) MarkVisited(row, col int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkBounds(row, col); err != nil {
		return err
	}
	switch g.cells[row][col] {
	case CELL_START, CELL_END, CELL_PATH:
		return nil
	}
	g.notify(GridEvent{Changes: []CellChange{g.write(Position{Row: row, Col: col}, CELL_VISITED)}})
	return nil
}

// ApplyPath writes the chain ending at goal in one critical section: the goal
// becomes the end, the parentless node the start and everything between path.
// A start or end placed elsewhere before is freed.
func (g *Grid) ApplyPath(goal *Node) error {
	if goal == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for n := goal; n != nil; n = n.Parent {
		if err := g.checkBounds(n.row, n.col); err != nil {
			return err
		}
	}
	changes := make([]CellChange, 0, goal.Len()+2)
	root := goal
	for root.Parent != nil {
		root = root.Parent
	}
	if g.start.IsSet() && g.start != root.Position() && g.cells[g.start.Row][g.start.Col] == CELL_START {
		changes = append(changes, g.write(g.start, CELL_FREE))
		g.start = Unset
	}
	if g.end.IsSet() && g.end != goal.Position() && g.cells[g.end.Row][g.end.Col] == CELL_END {
		changes = append(changes, g.write(g.end, CELL_FREE))
		g.end = Unset
	}
	for n := goal; n != nil; n = n.Parent {
		state := CELL_PATH
		switch {
		case n == goal:
			state = CELL_END
			g.end = n.Position()
		case n.Parent == nil:
			state = CELL_START
			g.start = n.Position()
		}
		changes = append(changes, g.write(n.Position(), state))
	}
	g.notify(GridEvent{Changes: changes})
	return nil
}

// Clear frees every cell and forgets start and end. Dimensions are kept.
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = CELL_FREE
		}
	}
	g.start, g.end = Unset, Unset
	g.notify(GridEvent{Reset: true})
}

// ClearSearch drops the marks left by a previous search, keeping walls, start and end.
func (g *Grid) ClearSearch() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for r := range g.cells {
		for c := range g.cells[r] {
			if g.cells[r][c] == CELL_VISITED || g.cells[r][c] == CELL_PATH {
				g.cells[r][c] = CELL_FREE
			}
		}
	}
	if g.start.IsSet() {
		g.cells[g.start.Row][g.start.Col] = CELL_START
	}
	if g.end.IsSet() {
		g.cells[g.end.Row][g.end.Col] = CELL_END
	}
	g.notify(GridEvent{Reset: true})
}

func (g *Grid) Snapshot() [][]CellState {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := makeCells(g.rows, g.cols)
	for r := range g.cells {
		copy(snap[r], g.cells[r])
	}
	return snap
}

var dumpGlyphs = map[CellState]byte{
	CELL_FREE:    '.',
	CELL_BLOCKED: '*',
	CELL_VISITED: '=',
	CELL_PATH:    'x',
	CELL_START:   'O',
	CELL_END:     'X',
}

// Dump renders the grid one line per row, for logs and debugging.
func (g *Grid) Dump() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var sb strings.Builder
	sb.Grow(g.rows * (g.cols + 1))
	for _, row := range g.cells {
		for _, cs := range row {
			sb.WriteByte(dumpGlyphs[cs])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
