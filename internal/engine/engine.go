package engine

import (
	"errors"
	"fmt"
)

var ErrColumnFull = errors.New("column is full")
var ErrColumnOutOfRange = errors.New("column out of range")
var ErrInvalidConfig = errors.New("invalid board config")

type Cell uint8

const (
	Empty Cell = iota
	Red
	Yellow
)

type Config struct {
	Rows    int
	Columns int
	WinRun  int
}

func (c Config) Validate() error {
	if c.Rows < 1 || c.Columns < 1 || c.WinRun < 1 {
		return fmt.Errorf("%w: rows=%d columns=%d win_run=%d", ErrInvalidConfig, c.Rows, c.Columns, c.WinRun)
	}
	if c.WinRun > c.Rows && c.WinRun > c.Columns {
		return fmt.Errorf("%w: win_run %d does not fit a %dx%d board", ErrInvalidConfig, c.WinRun, c.Rows, c.Columns)
	}
	return nil
}

// Board is a gravity grid. Row 0 is the top row, Rows-1 the bottom.
type Board struct {
	cfg   Config
	cells [][]Cell
}

func NewBoard(cfg Config) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Board{cfg: cfg, cells: make([][]Cell, cfg.Rows)}
	for r := range b.cells {
		b.cells[r] = make([]Cell, cfg.Columns)
	}
	return b, nil
}

func (b *Board) Config() Config { return b.cfg }

// Drop places color in the lowest empty cell of column and returns its row.
// It does not care whose turn it is or which color is dropped.
func (b *Board) Drop(column int, color Cell) (int, error) {
	if column < 0 || column >= b.cfg.Columns {
		return -1, fmt.Errorf("%w: %d", ErrColumnOutOfRange, column)
	}
	for r := b.cfg.Rows - 1; r >= 0; r-- {
		if b.cells[r][column] == Empty {
			b.cells[r][column] = color
			return r, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrColumnFull, column)
}

func (b *Board) IsWin(color Cell) bool {
	if color == Empty {
		return false
	}
	k := b.cfg.WinRun

	// Rows, top to bottom.
	for r := 0; r < b.cfg.Rows; r++ {
		for c := 0; c+k <= b.cfg.Columns; c++ {
			if b.hasRun(color, r, c, 0, 1) {
				return true
			}
		}
	}
	// Columns, left to right.
	for c := 0; c < b.cfg.Columns; c++ {
		for r := 0; r+k <= b.cfg.Rows; r++ {
			if b.hasRun(color, r, c, 1, 0) {
				return true
			}
		}
	}
	// Negative diagonals run down-right from a top-left anchor.
	for r := 0; r+k <= b.cfg.Rows; r++ {
		for c := 0; c+k <= b.cfg.Columns; c++ {
			if b.hasRun(color, r, c, 1, 1) {
				return true
			}
		}
	}
	// Positive diagonals run up-right from a bottom-left anchor.
	for r := k - 1; r < b.cfg.Rows; r++ {
		for c := 0; c+k <= b.cfg.Columns; c++ {
			if b.hasRun(color, r, c, -1, 1) {
				return true
			}
		}
	}
	return false
}

// hasRun reports whether the WinRun cells starting at (r, c) and stepping
// (dr, dc) all hold color. The caller only passes anchors where the run fits.
func (b *Board) hasRun(color Cell, r, c, dr, dc int) bool {
	for i := 0; i < b.cfg.WinRun; i++ {
		if b.cells[r+i*dr][c+i*dc] != color {
			return false
		}
	}
	return true
}

func (b *Board) IsDraw() bool {
	return b.emptyCells() == 0 && !b.IsWin(Red) && !b.IsWin(Yellow)
}

func (b *Board) IsTerminal() bool {
	return b.IsWin(Red) || b.IsWin(Yellow) || b.IsDraw()
}

// Winner returns the first color with a winning run, checking Red before
// Yellow, or Empty.
func (b *Board) Winner() Cell {
	switch {
	case b.IsWin(Red):
		return Red
	case b.IsWin(Yellow):
		return Yellow
	default:
		return Empty
	}
}

func (b *Board) Reset() {
	for r := range b.cells {
		clear(b.cells[r])
	}
}

func (b *Board) ColumnIsFull(column int) bool {
	if column < 0 || column >= b.cfg.Columns {
		return true
	}
	return b.cells[0][column] != Empty
}

// LegalColumns lists the columns an input layer may offer.
func (b *Board) LegalColumns() []int {
	cols := make([]int, 0, b.cfg.Columns)
	for c := 0; c < b.cfg.Columns; c++ {
		if !b.ColumnIsFull(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (b *Board) At(row, column int) Cell {
	return b.cells[row][column]
}

// Cells returns a copy of the grid.
func (b *Board) Cells() [][]Cell {
	out := make([][]Cell, len(b.cells))
	for r, row := range b.cells {
		out[r] = append([]Cell(nil), row...)
	}
	return out
}

func (b *Board) emptyCells() int {
	n := 0
	for _, row := range b.cells {
		for _, cell := range row {
			if cell == Empty {
				n++
			}
		}
	}
	return n
}
