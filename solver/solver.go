// Package solver finds minimum cost paths on a model.Grid with A*.
//
// Moves cost 1 in every direction. The default is an 8-connected grid with
// the Chebyshev heuristic; FourWay switches to orthogonal moves and Manhattan.
// Every expanded cell is reported through Map.MarkVisited while the search
// runs, so a concurrent reader of the grid can watch the frontier grow.
package solver

import (
	"container/heap"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/pathfinder/model"
)

var ErrInvalidArgument = errors.New("invalid search endpoint")

// Map is the part of the grid a search needs.
type Map interface {
	Rows() int
	Columns() int
	CellAt(row, col int) (model.CellState, error)
	MarkVisited(row, col int) error
}

type Stats struct {
	Expanded int
	Enqueued int
}

// Solver runs A* over a Map. A Solver is not safe for concurrent Find calls.
type Solver struct {
	grid  Map
	opts  Options
	stats Stats
}

func New(grid Map, options ...Option) *Solver {
	return &Solver{grid: grid, opts: buildOptions(options)}
}

func (s *Solver) Options() Options { return s.opts }

// Stats describes the last Find.
func (s *Solver) Stats() Stats { return s.stats }

type step struct{ dRow, dCol int }

var (
	orthogonal = []step{{-1, 0}, {0, 1}, {1, 0}, {0, -1}}
	diagonal   = []step{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}}
)

type search struct {
	*Solver
	goal   *model.Node
	open   openQueue
	inOpen map[model.Position]*queueItem
	closed map[model.Position]bool
	seq    uint64
}

// Find returns the goal node with its parent chain leading back to start, or
// nil when the goal cannot be reached. An error means start or goal is not a
// usable cell.
func (s *Solver) Find(start, goal *model.Node) (*model.Node, error) {
	s.stats = Stats{}
	if err := s.validate("start", start); err != nil {
		return nil, err
	}
	if err := s.validate("goal", goal); err != nil {
		return nil, err
	}

	sr := &search{
		Solver: s,
		goal:   goal,
		open:   make(openQueue, 0),
		inOpen: make(map[model.Position]*queueItem),
		closed: make(map[model.Position]bool),
	}
	heap.Init(&sr.open)
	start.Cost = 0
	start.Estimate = s.estimate(start, goal)
	start.Parent = nil
	sr.push(start)

	for sr.open.Len() > 0 {
		current := heap.Pop(&sr.open).(*queueItem).node
		pos := current.Position()
		delete(sr.inOpen, pos)
		if current.Equal(goal) {
			log.Debugf("Solver.Find reached %v after %d expansions", pos, s.stats.Expanded)
			return current, nil
		}
		if sr.closed[pos] {
			continue
		}
		sr.closed[pos] = true
		s.stats.Expanded++
		if err := s.grid.MarkVisited(current.Row(), current.Col()); err != nil {
			return nil, errors.Wrap(err, "marking visited")
		}
		sr.successors(current)
	}
	log.Debugf("Solver.Find no path after %d expansions", s.stats.Expanded)
	return nil, nil
}

func (s *Solver) validate(what string, n *model.Node) error {
	if n == nil {
		return errors.Wrapf(ErrInvalidArgument, "%s missing", what)
	}
	state, err := s.grid.CellAt(n.Row(), n.Col())
	if err != nil {
		return errors.Wrapf(ErrInvalidArgument, "%s %v: %v", what, n.Position(), err)
	}
	if state == model.CELL_BLOCKED {
		return errors.Wrapf(ErrInvalidArgument, "%s %v is blocked", what, n.Position())
	}
	return nil
}

func (s *Solver) estimate(current, goal *model.Node) float64 {
	return s.opts.Heuristic(current.Position(), goal.Position())
}

func (s *Solver) movementCost(from, to *model.Node) float64 {
	return 1
}

func (sr *search) push(n *model.Node) {
	sr.seq++
	item := &queueItem{node: n, f: n.TotalCost(), seq: sr.seq}
	heap.Push(&sr.open, item)
	sr.inOpen[n.Position()] = item
	sr.stats.Enqueued++
}

// passable reports whether a cell is inside the grid and not a wall.
func (sr *search) passable(row, col int) bool {
	state, err := sr.grid.CellAt(row, col)
	return err == nil && state != model.CELL_BLOCKED
}

func (sr *search) successors(current *model.Node) {
	steps := orthogonal
	if sr.opts.Connectivity == EightWay {
		steps = append(append(make([]step, 0, 8), orthogonal...), diagonal...)
	}
	for _, st := range steps {
		row, col := current.Row()+st.dRow, current.Col()+st.dCol
		pos := model.Position{Row: row, Col: col}
		if sr.closed[pos] || !sr.passable(row, col) {
			continue
		}
		if st.dRow != 0 && st.dCol != 0 &&
			!sr.passable(current.Row()+st.dRow, current.Col()) &&
			!sr.passable(current.Row(), current.Col()+st.dCol) {
			continue
		}
		sr.relax(current, pos)
	}
}

func (sr *search) relax(current *model.Node, pos model.Position) {
	item, seen := sr.inOpen[pos]
	var neighbour *model.Node
	if seen {
		neighbour = item.node
	} else {
		neighbour = model.NewNode(pos.Row, pos.Col)
	}
	g := current.Cost + sr.movementCost(current, neighbour)
	if seen && g >= neighbour.Cost {
		return
	}
	neighbour.Parent = current
	neighbour.Cost = g
	neighbour.Estimate = sr.estimate(neighbour, sr.goal)
	if !seen {
		sr.push(neighbour)
		return
	}
	sr.seq++
	item.f = neighbour.TotalCost()
	item.seq = sr.seq
	heap.Fix(&sr.open, item.index)
}
