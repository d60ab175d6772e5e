package model

import (
	"bufio"
	"github.com/pkg/errors"
	"io"
	"strconv"
	"strings"
)

const MapVersion = "AStarv20"

// MaxCells bounds rows*columns accepted from a map header.
const MaxCells = 1 << 24

const (
	lineVersion = iota
	lineTiles
	lineSize
	headerLines
)

// Load replaces the grid with the map read from reader. On error the grid is
// left exactly as it was.
func (g *Grid) Load(reader io.Reader) error {
	rows, cols, tiles, cells, err := read(reader)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows, g.cols = rows, cols
	g.tiles = tiles
	g.cells = cells
	g.start, g.end = Unset, Unset
	g.notify(GridEvent{Reset: true})
	return nil
}

func read(reader io.Reader) (rows, cols int, tiles Tiles, cells [][]CellState, err error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	line := 0
	for scanner.Scan() {
		s := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == lineVersion:
			if strings.TrimSpace(s) != MapVersion {
				err = errors.Wrapf(ErrFormat, "version tag %q, want %q", s, MapVersion)
				return
			}
		case line == lineTiles:
			fields := strings.Fields(s)
			if len(fields) != 3 {
				err = errors.Wrapf(ErrFormat, "tiles line %q: want width height tileset", s)
				return
			}
			if tiles.Width, err = strconv.Atoi(fields[0]); err != nil {
				err = errors.Wrapf(ErrFormat, "tile width %q", fields[0])
				return
			}
			if tiles.Height, err = strconv.Atoi(fields[1]); err != nil {
				err = errors.Wrapf(ErrFormat, "tile height %q", fields[1])
				return
			}
			tiles.Tileset = fields[2]
		case line == lineSize:
			if rows, cols, err = readSize(s); err != nil {
				return
			}
		default:
			matrixRow := line - headerLines
			if matrixRow >= rows {
				if strings.TrimSpace(s) != "" {
					err = errors.Wrapf(ErrFormat, "line %d: unexpected data after %d rows", line+1, rows)
					return
				}
				break
			}
			if len(s) != cols {
				err = errors.Wrapf(ErrFormat, "row %d has %d cells, want %d", matrixRow, len(s), cols)
				return
			}
			row := make([]CellState, cols)
			for i := 0; i < cols; i++ {
				if s[i] != '.' {
					row[i] = CELL_BLOCKED
				}
			}
			cells = append(cells, row)
		}
		line++
	}
	if err = scanner.Err(); err != nil {
		err = errors.Wrap(err, "reading map")
		return
	}
	switch {
	case line <= lineVersion:
		err = errors.Wrap(ErrFormat, "missing version tag")
	case line <= lineSize:
		err = errors.Wrap(ErrFormat, "missing map dimensions")
	case line-headerLines < rows:
		err = errors.Wrapf(ErrFormat, "got %d rows, want %d", line-headerLines, rows)
	}
	return
}

func readSize(s string) (rows, cols int, err error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, errors.Wrapf(ErrFormat, "size line %q: want rows columns", s)
	}
	if rows, err = strconv.Atoi(fields[0]); err != nil || rows <= 0 {
		return 0, 0, errors.Wrapf(ErrFormat, "row count %q", fields[0])
	}
	if cols, err = strconv.Atoi(fields[1]); err != nil || cols <= 0 {
		return 0, 0, errors.Wrapf(ErrFormat, "column count %q", fields[1])
	}
	if rows > MaxCells/cols {
		return 0, 0, errors.Wrapf(ErrFormat, "%dx%d exceeds %d cells", rows, cols, MaxCells)
	}
	return rows, cols, nil
}
