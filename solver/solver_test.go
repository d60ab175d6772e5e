package solver

import (
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/pathfinder/model"
	"math/rand"
	"testing"
)

// gridFrom builds a grid from rows where '#' is a wall and anything else free.
func gridFrom(t *testing.T, rows ...string) *model.Grid {
	t.Helper()
	g := model.NewSizedGrid(len(rows), len(rows[0]))
	for r, line := range rows {
		require.Len(t, line, len(rows[0]))
		for c := range line {
			if line[c] == '#' {
				require.NoError(t, g.SetCell(r, c, model.CELL_BLOCKED))
			}
		}
	}
	return g
}

func find(t *testing.T, g *model.Grid, from, to model.Position, options ...Option) *model.Node {
	t.Helper()
	goal, err := New(g, options...).Find(model.NewNode(from.Row, from.Col), model.NewNode(to.Row, to.Col))
	require.NoError(t, err)
	return goal
}

func TestFind_OpenGridEightWay(t *testing.T) {
	g := gridFrom(t, "...", "...", "...")
	goal := find(t, g, model.Position{Row: 0, Col: 0}, model.Position{Row: 2, Col: 2})
	require.NotNil(t, goal)
	assert.Equal(t, 3, goal.Len())
	assert.Equal(t, float64(2), goal.Cost)
	assert.Equal(t, []model.Position{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}}, goal.Path())
}

func TestFind_OpenGridFourWay(t *testing.T) {
	g := gridFrom(t, "...", "...", "...")
	goal := find(t, g, model.Position{Row: 0, Col: 0}, model.Position{Row: 2, Col: 2}, WithConnectivity(FourWay))
	require.NotNil(t, goal)
	assert.Equal(t, 5, goal.Len())
	assert.Equal(t, float64(4), goal.Cost)
}

func TestFind_RoutesThroughOpening(t *testing.T) {
	for _, c := range []Connectivity{EightWay, FourWay} {
		t.Run(c.String(), func(t *testing.T) {
			g := gridFrom(t, "...", "#.#", "...")
			goal := find(t, g, model.Position{Row: 0, Col: 0}, model.Position{Row: 2, Col: 2}, WithConnectivity(c))
			require.NotNil(t, goal)
			assert.Contains(t, goal.Path(), model.Position{Row: 1, Col: 1})
		})
	}
}

func TestFind_WallMeansNoPath(t *testing.T) {
	g := gridFrom(t, "...", "###", "...")
	s := New(g)
	goal, err := s.Find(model.NewNode(0, 0), model.NewNode(2, 2))
	require.NoError(t, err)
	assert.Nil(t, goal)
	assert.Equal(t, "===\n***\n...\n", g.Dump())
	assert.Equal(t, 3, s.Stats().Expanded)
}

func TestFind_KeepsEndpointMarks(t *testing.T) {
	g := gridFrom(t, "....", "###.", "....")
	require.NoError(t, g.SetCell(0, 0, model.CELL_START))
	require.NoError(t, g.SetCell(2, 0, model.CELL_END))
	goal := find(t, g, model.Position{Row: 0, Col: 0}, model.Position{Row: 2, Col: 0})
	require.NotNil(t, goal)
	require.NoError(t, g.ApplyPath(goal))

	for _, p := range goal.Path()[1 : goal.Len()-1] {
		cs, err := g.CellAt(p.Row, p.Col)
		require.NoError(t, err)
		assert.Equal(t, model.CELL_PATH, cs)
	}
	assert.Equal(t, model.Position{Row: 0, Col: 0}, g.Start())
	assert.Equal(t, model.Position{Row: 2, Col: 0}, g.End())
	assert.Equal(t, byte('O'), g.Dump()[0])
}

func TestFind_NoDiagonalSqueeze(t *testing.T) {
	g := gridFrom(t, ".#", "#.")
	goal := find(t, g, model.Position{Row: 0, Col: 0}, model.Position{Row: 1, Col: 1})
	assert.Nil(t, goal)

	g = gridFrom(t, "..", "#.")
	goal = find(t, g, model.Position{Row: 0, Col: 0}, model.Position{Row: 1, Col: 1})
	require.NotNil(t, goal)
	assert.Equal(t, 2, goal.Len())
}

func TestFind_StartIsGoal(t *testing.T) {
	g := gridFrom(t, "..", "..")
	goal := find(t, g, model.Position{Row: 1, Col: 1}, model.Position{Row: 1, Col: 1})
	require.NotNil(t, goal)
	assert.Equal(t, 1, goal.Len())
	assert.Equal(t, float64(0), goal.Cost)
}

func TestFind_InvalidEndpoints(t *testing.T) {
	g := gridFrom(t, ".#", "..")
	s := New(g)
	cases := map[string][2]*model.Node{
		"nil start":     {nil, model.NewNode(0, 0)},
		"nil goal":      {model.NewNode(0, 0), nil},
		"start outside": {model.NewNode(-1, 0), model.NewNode(1, 1)},
		"goal outside":  {model.NewNode(0, 0), model.NewNode(2, 0)},
		"blocked goal":  {model.NewNode(0, 0), model.NewNode(0, 1)},
		"blocked start": {model.NewNode(0, 1), model.NewNode(1, 1)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			goal, err := s.Find(tc[0], tc[1])
			assert.Nil(t, goal)
			assert.Equal(t, ErrInvalidArgument, errors.Cause(err))
		})
	}
	assert.Equal(t, ".*\n..\n", g.Dump(), "a rejected search must not touch the grid")
}

func TestFind_Deterministic(t *testing.T) {
	rows := []string{
		"......",
		".#..#.",
		"......",
		"..##..",
		"......",
	}
	var first []model.Position
	for i := 0; i < 5; i++ {
		goal := find(t, gridFrom(t, rows...), model.Position{Row: 0, Col: 0}, model.Position{Row: 4, Col: 5})
		require.NotNil(t, goal)
		if first == nil {
			first = goal.Path()
			continue
		}
		assert.Equal(t, first, goal.Path())
	}
}

func TestFind_CustomHeuristic(t *testing.T) {
	g := gridFrom(t, "....", "....")
	zero := func(from, to model.Position) float64 { return 0 }
	s := New(g, WithHeuristic(zero))
	goal, err := s.Find(model.NewNode(0, 0), model.NewNode(1, 3))
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, float64(3), goal.Cost)
}

func TestHeuristics(t *testing.T) {
	a, b := model.Position{Row: 1, Col: 1}, model.Position{Row: 4, Col: 3}
	assert.Equal(t, float64(3), Chebyshev(a, b))
	assert.Equal(t, float64(5), Manhattan(a, b))
	assert.Equal(t, float64(0), Chebyshev(a, a))

	assert.Equal(t, FourWay, New(model.NewGrid(), WithConnectivity(FourWay)).Options().Connectivity)
	assert.NotNil(t, New(model.NewGrid()).Options().Heuristic)
}

func randomGrid(rng *rand.Rand, rows, cols int, density float64) *model.Grid {
	g := model.NewSizedGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if rng.Float64() < density {
				_ = g.SetCell(r, c, model.CELL_BLOCKED)
			}
		}
	}
	return g
}

func blocked(cells [][]model.CellState, r, c int) bool {
	return r < 0 || c < 0 || r >= len(cells) || c >= len(cells[0]) || cells[r][c] == model.CELL_BLOCKED
}

// canMove applies the solver's movement rules to a single step.
func canMove(cells [][]model.CellState, from, to model.Position, conn Connectivity) bool {
	dr, dc := to.Row-from.Row, to.Col-from.Col
	if dr < -1 || dr > 1 || dc < -1 || dc > 1 || (dr == 0 && dc == 0) {
		return false
	}
	if blocked(cells, to.Row, to.Col) {
		return false
	}
	if dr != 0 && dc != 0 {
		if conn == FourWay {
			return false
		}
		return !(blocked(cells, from.Row+dr, from.Col) && blocked(cells, from.Row, from.Col+dc))
	}
	return true
}

// bfsDistance is the exhaustive reference for unit cost moves; -1 when unreachable.
func bfsDistance(cells [][]model.CellState, from, to model.Position, conn Connectivity) int {
	dist := map[model.Position]int{from: 0}
	queue := []model.Position{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return dist[cur]
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				next := model.Position{Row: cur.Row + dr, Col: cur.Col + dc}
				if _, seen := dist[next]; seen || !canMove(cells, cur, next, conn) {
					continue
				}
				dist[next] = dist[cur] + 1
				queue = append(queue, next)
			}
		}
	}
	return -1
}

func TestFind_OptimalAgainstExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, conn := range []Connectivity{EightWay, FourWay} {
		for i := 0; i < 60; i++ {
			g := randomGrid(rng, 4+rng.Intn(9), 4+rng.Intn(9), 0.3)
			cells := g.Snapshot()
			from := model.Position{Row: rng.Intn(len(cells)), Col: rng.Intn(len(cells[0]))}
			to := model.Position{Row: rng.Intn(len(cells)), Col: rng.Intn(len(cells[0]))}
			if blocked(cells, from.Row, from.Col) || blocked(cells, to.Row, to.Col) {
				continue
			}
			want := bfsDistance(cells, from, to, conn)

			goal := find(t, g, from, to, WithConnectivity(conn))
			if want < 0 {
				assert.Nil(t, goal, "%s grid %d: %v -> %v", conn, i, from, to)
				continue
			}
			require.NotNil(t, goal, "%s grid %d: %v -> %v", conn, i, from, to)
			assert.Equal(t, float64(want), goal.Cost, "%s grid %d", conn, i)

			path := goal.Path()
			assert.Equal(t, from, path[0])
			assert.Equal(t, to, path[len(path)-1])
			assert.Equal(t, float64(len(path)-1), goal.Cost, "step costs must sum to the goal cost")
			for k := 1; k < len(path); k++ {
				assert.True(t, canMove(cells, path[k-1], path[k], conn), "%s illegal step %v -> %v", conn, path[k-1], path[k])
			}
		}
	}
}
