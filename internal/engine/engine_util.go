package engine

import (
	"fmt"
	"strings"
)

func DefaultConfig() Config {
	return Config{Rows: 6, Columns: 7, WinRun: 4}
}

func (c Cell) String() string {
	switch c {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

// Symbol is the single-byte form used by String and ParseBoard.
func (c Cell) Symbol() byte {
	switch c {
	case Red:
		return 'R'
	case Yellow:
		return 'Y'
	default:
		return '.'
	}
}

// Rows renders each grid row as a string of symbols, top row first.
func (b *Board) Rows() []string {
	out := make([]string, len(b.cells))
	for r, row := range b.cells {
		buf := make([]byte, len(row))
		for c, cell := range row {
			buf[c] = cell.Symbol()
		}
		out[r] = string(buf)
	}
	return out
}

func (b *Board) String() string {
	return strings.Join(b.Rows(), "\n")
}

// ParseBoard builds a board from symbol rows ('R', 'Y', '.'), top row first.
// It places cells as written and does not check gravity.
func ParseBoard(cfg Config, rows ...string) (*Board, error) {
	b, err := NewBoard(cfg)
	if err != nil {
		return nil, err
	}
	if len(rows) != cfg.Rows {
		return nil, fmt.Errorf("parse board: want %d rows, got %d", cfg.Rows, len(rows))
	}
	for r, line := range rows {
		if len(line) != cfg.Columns {
			return nil, fmt.Errorf("parse board: row %d: want %d columns, got %d", r, cfg.Columns, len(line))
		}
		for c := 0; c < len(line); c++ {
			switch line[c] {
			case 'R':
				b.cells[r][c] = Red
			case 'Y':
				b.cells[r][c] = Yellow
			case '.':
				b.cells[r][c] = Empty
			default:
				return nil, fmt.Errorf("parse board: row %d: unknown symbol %q", r, line[c])
			}
		}
	}
	return b, nil
}
