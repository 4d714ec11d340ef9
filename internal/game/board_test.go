package game

import (
	"testing"

	"github.com/dkeye/wordpot/internal/domain"
)

func TestBonusLayout(t *testing.T) {
	cases := []struct {
		row, col int
		want     Bonus
	}{
		{0, 0, BonusTripleWord},
		{0, 7, BonusTripleWord},
		{14, 14, BonusTripleWord},
		{7, 7, BonusDoubleWord},
		{1, 1, BonusDoubleWord},
		{13, 13, BonusDoubleWord},
		{4, 10, BonusDoubleWord},
		{1, 5, BonusTripleLetter},
		{5, 5, BonusTripleLetter},
		{9, 13, BonusTripleLetter},
		{0, 3, BonusDoubleLetter},
		{6, 6, BonusDoubleLetter},
		{8, 6, BonusDoubleLetter},
		{6, 8, BonusDoubleLetter},
		{14, 11, BonusDoubleLetter},
		{0, 1, BonusNone},
		{7, 6, BonusNone},
		{8, 7, BonusNone},
	}
	for _, c := range cases {
		if got := BonusAt(c.row, c.col); got != c.want {
			t.Fatalf("BonusAt(%d,%d) = %v, want %v", c.row, c.col, got, c.want)
		}
	}
}

func TestBonusCornerSymmetry(t *testing.T) {
	corners := BonusAt(0, 0)
	for _, c := range [][2]int{{0, 14}, {14, 0}, {14, 14}} {
		if got := BonusAt(c[0], c[1]); got != corners {
			t.Fatalf("corner (%d,%d) = %v, want %v", c[0], c[1], got, corners)
		}
	}
}

func TestBonusOutOfRange(t *testing.T) {
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {15, 7}, {7, 15}} {
		if got := BonusAt(c[0], c[1]); got != BonusNone {
			t.Fatalf("BonusAt(%d,%d) should be none off-board, got %v", c[0], c[1], got)
		}
	}
}

func TestBoardPlaceRefusesConflicts(t *testing.T) {
	b := NewBoard()
	if !b.Empty() {
		t.Fatal("new board should be empty")
	}
	a := domain.Tile{ID: "t1", Letter: 'A', Points: 1}
	if err := b.place(7, 7, a); err != nil {
		t.Fatalf("unexpected place error: %v", err)
	}
	if b.Empty() {
		t.Fatal("board with a tile should not be empty")
	}

	// Same letter is a no-op reuse, different letter is a conflict.
	if err := b.place(7, 7, domain.Tile{ID: "t2", Letter: 'a', Points: 1}); err != nil {
		t.Fatalf("matching letter should be accepted: %v", err)
	}
	if err := b.place(7, 7, domain.Tile{ID: "t3", Letter: 'B', Points: 3}); err == nil {
		t.Fatal("expected conflict for a different letter")
	}

	got, ok := b.TileAt(7, 7)
	if !ok || got.ID != "t1" {
		t.Fatalf("first tile should survive, got %+v", got)
	}
}

func TestBoardSnapshotIsIndependent(t *testing.T) {
	b := NewBoard()
	if err := b.place(3, 4, domain.Tile{ID: "t1", Letter: 'X', Points: 8}); err != nil {
		t.Fatalf("unexpected place error: %v", err)
	}
	snap := b.Snapshot()
	if err := b.place(3, 5, domain.Tile{ID: "t2", Letter: 'Y', Points: 4}); err != nil {
		t.Fatalf("unexpected place error: %v", err)
	}
	if _, ok := snap.TileAt(3, 5); ok {
		t.Fatal("snapshot should not see later placements")
	}
	if _, ok := snap.TileAt(3, 4); !ok {
		t.Fatal("snapshot should keep earlier placements")
	}
}
