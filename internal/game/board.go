package game

import (
	"errors"
	"unicode"

	"github.com/dkeye/wordpot/internal/domain"
)

const (
	// BoardSize is the edge length of the square board.
	BoardSize = 15
	// Center is the row and column of the starting cell.
	Center = 7
)

var ErrCellConflict = errors.New("cell already holds a different letter")

// Bonus is the multiplier kind of a board cell. It is fixed at board
// creation and applies only to tiles newly placed in the current move.
type Bonus int

const (
	BonusNone Bonus = iota
	BonusDoubleLetter
	BonusTripleLetter
	BonusDoubleWord
	BonusTripleWord
)

func (b Bonus) String() string {
	switch b {
	case BonusDoubleLetter:
		return "DL"
	case BonusTripleLetter:
		return "TL"
	case BonusDoubleWord:
		return "DW"
	case BonusTripleWord:
		return "TW"
	default:
		return ""
	}
}

// bonusTable is the single source of bonus-cell geometry, shared by the
// board and the scorer.
var bonusTable = buildBonusTable()

func buildBonusTable() [BoardSize][BoardSize]Bonus {
	var t [BoardSize][BoardSize]Bonus

	// Double letter on both main diagonals (corners and center excluded
	// below by the stronger kinds).
	for i := 1; i < BoardSize-1; i++ {
		t[i][i] = BonusDoubleLetter
		t[i][BoardSize-1-i] = BonusDoubleLetter
	}
	extraDL := [][2]int{
		{0, 3}, {0, 11}, {2, 6}, {2, 8}, {3, 0}, {3, 7}, {3, 14},
		{6, 2}, {6, 6}, {6, 8}, {6, 12}, {7, 3}, {7, 11},
		{8, 2}, {8, 6}, {8, 8}, {8, 12}, {11, 0}, {11, 7}, {11, 14},
		{12, 6}, {12, 8}, {14, 3}, {14, 11},
	}
	for _, c := range extraDL {
		t[c[0]][c[1]] = BonusDoubleLetter
	}

	tripleLetter := [][2]int{
		{1, 5}, {1, 9}, {5, 1}, {5, 5}, {5, 9}, {5, 13},
		{9, 1}, {9, 5}, {9, 9}, {9, 13}, {13, 5}, {13, 9},
	}
	for _, c := range tripleLetter {
		t[c[0]][c[1]] = BonusTripleLetter
	}

	doubleWord := [][2]int{
		{1, 1}, {1, 13}, {2, 2}, {2, 12}, {3, 3}, {3, 11}, {4, 4}, {4, 10},
		{10, 4}, {10, 10}, {11, 3}, {11, 11}, {12, 2}, {12, 12}, {13, 1}, {13, 13},
		{Center, Center},
	}
	for _, c := range doubleWord {
		t[c[0]][c[1]] = BonusDoubleWord
	}

	tripleWord := [][2]int{
		{0, 0}, {0, 7}, {0, 14}, {7, 0}, {7, 14}, {14, 0}, {14, 7}, {14, 14},
	}
	for _, c := range tripleWord {
		t[c[0]][c[1]] = BonusTripleWord
	}

	return t
}

// BonusAt returns the bonus kind of a cell, BonusNone outside the board.
func BonusAt(row, col int) Bonus {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return BonusNone
	}
	return bonusTable[row][col]
}

// Board is the 15x15 shared grid of a room. It carries no locking of its
// own; the owning room serializes access.
type Board struct {
	cells [BoardSize][BoardSize]*domain.Tile
}

func NewBoard() *Board {
	return &Board{}
}

// TileAt returns the tile occupying a cell, if any.
func (b *Board) TileAt(row, col int) (domain.Tile, bool) {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return domain.Tile{}, false
	}
	if t := b.cells[row][col]; t != nil {
		return *t, true
	}
	return domain.Tile{}, false
}

// Empty reports whether no tile has been placed yet.
func (b *Board) Empty() bool {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if b.cells[r][c] != nil {
				return false
			}
		}
	}
	return true
}

// place puts a tile on a cell. An occupied cell is left untouched: same
// letter is a no-op (the move reuses it), a different letter is a conflict.
func (b *Board) place(row, col int, t domain.Tile) error {
	if cur := b.cells[row][col]; cur != nil {
		if unicode.ToUpper(cur.Letter) != unicode.ToUpper(t.Letter) {
			return ErrCellConflict
		}
		return nil
	}
	placed := t
	b.cells[row][col] = &placed
	return nil
}

// Snapshot returns a deep copy, used where callers need a stable view
// outside the room's critical section.
func (b *Board) Snapshot() *Board {
	cp := &Board{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if t := b.cells[r][c]; t != nil {
				tc := *t
				cp.cells[r][c] = &tc
			}
		}
	}
	return cp
}
