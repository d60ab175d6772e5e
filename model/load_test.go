package model

import (
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

const sampleMap = `AStarv20
32 32 tiles.png
3 5
..*..
.***.
.....
`

func TestLoad_RoundTrip(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Load(strings.NewReader(sampleMap)))

	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 5, g.Columns())
	assert.Equal(t, Tiles{Width: 32, Height: 32, Tileset: "tiles.png"}, g.Tiles())
	assert.Equal(t, Unset, g.Start())
	assert.Equal(t, Unset, g.End())

	lines := strings.Split(strings.TrimSpace(sampleMap), "\n")[3:]
	for r, line := range lines {
		for c := range line {
			cs, err := g.CellAt(r, c)
			require.NoError(t, err)
			if line[c] == '.' {
				assert.Equal(t, CELL_FREE, cs, "(%d,%d)", r, c)
			} else {
				assert.Equal(t, CELL_BLOCKED, cs, "(%d,%d)", r, c)
			}
		}
	}
}

func TestLoad_AnyNonDotIsBlocked(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Load(strings.NewReader("AStarv20\n16 16 t\n1 4\n.#x.\r\n")))
	assert.Equal(t, ".**.\n", g.Dump())
}

func TestLoad_ResetsStartAndEnd(t *testing.T) {
	g := NewSizedGrid(2, 2)
	require.NoError(t, g.SetCell(0, 0, CELL_START))
	require.NoError(t, g.SetCell(1, 1, CELL_END))

	require.NoError(t, g.Load(strings.NewReader(sampleMap)))
	assert.Equal(t, Unset, g.Start())
	assert.Equal(t, Unset, g.End())
}

func TestLoad_FailuresLeaveGridUnchanged(t *testing.T) {
	cases := map[string]string{
		"missing version": "32 32 tiles.png\n3 5\n.....\n.....\n.....\n",
		"wrong version":   "AStarv10\n32 32 tiles.png\n1 1\n.\n",
		"empty":           "",
		"no dimensions":   "AStarv20\n32 32 tiles.png\n",
		"bad dimensions":  "AStarv20\n32 32 tiles.png\nthree 5\n",
		"zero rows":       "AStarv20\n32 32 tiles.png\n0 5\n",
		"bad tiles":       "AStarv20\n32 tiles.png\n1 1\n.\n",
		"short row":       "AStarv20\n32 32 tiles.png\n2 3\n...\n..\n",
		"long row":        "AStarv20\n32 32 tiles.png\n1 3\n....\n",
		"missing row":     "AStarv20\n32 32 tiles.png\n3 3\n...\n...\n",
		"extra row":       "AStarv20\n32 32 tiles.png\n1 3\n...\n...\n",
		"huge rows":       "AStarv20\n1 1 t\n1000000000000 1\n",
		"huge area":       "AStarv20\n1 1 t\n65536 65536\n.\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewSizedGrid(2, 2)
			require.NoError(t, g.SetCell(0, 1, CELL_BLOCKED))
			before := g.Dump()

			err := g.Load(strings.NewReader(input))
			require.Error(t, err)
			assert.Equal(t, ErrFormat, errors.Cause(err))
			assert.Equal(t, 2, g.Rows())
			assert.Equal(t, 2, g.Columns())
			assert.Equal(t, before, g.Dump())
		})
	}
}

func TestLoad_TrailingBlankLinesIgnored(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Load(strings.NewReader("AStarv20\n8 8 t\n1 2\n..\n\n\n")))
	assert.Equal(t, 1, g.Rows())
}

func TestLoad_NotifiesReset(t *testing.T) {
	g := NewGrid()
	var events []GridEvent
	g.SetListener(func(ev GridEvent) { events = append(events, ev) })

	require.NoError(t, g.Load(strings.NewReader(sampleMap)))
	require.Len(t, events, 1)
	assert.True(t, events[0].Reset)
}
