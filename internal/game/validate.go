package game

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dkeye/wordpot/internal/domain"
)

// Move is a placement request as it arrives from a player.
type Move struct {
	Word       string
	Row        int
	Col        int
	Horizontal bool
	TileIDs    []domain.TileID
}

// ValidationResult is the outcome of validating one move. It has no
// identity beyond the call that produced it.
type ValidationResult struct {
	Valid   bool
	Message string
	Score   int
	Words   []string
}

// Validator checks moves against the board rules and an injected Lexicon.
// Validation never mutates the board; applying a move is the room's job.
type Validator struct {
	lexicon Lexicon
}

func NewValidator(lex Lexicon) *Validator {
	return &Validator{lexicon: lex}
}

// placement is one tile the move adds to the board, already carrying the
// letter it stands for (relevant for blanks).
type placement struct {
	row, col int
	tile     domain.Tile
}

// scoredCell is one cell of a formed word as the scorer sees it.
type scoredCell struct {
	row, col int
	points   int
	newTile  bool
	blank    bool
}

type candidate struct {
	word  string
	cells []scoredCell
}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{Message: fmt.Sprintf(format, args...)}
}

// ValidateMove runs every gate in order and, on success, returns the total
// score and the list of words the move forms. It is a pure function of its
// inputs.
func (v *Validator) ValidateMove(m Move, board *Board, rack []domain.Tile) ValidationResult {
	res, _ := v.plan(m, board, rack)
	return res
}

// plan is ValidateMove plus the tile placements needed to apply the move.
func (v *Validator) plan(m Move, board *Board, rack []domain.Tile) (ValidationResult, []placement) {
	word := strings.ToUpper(strings.TrimSpace(m.Word))
	if word == "" {
		return invalid("word cannot be empty"), nil
	}
	for _, r := range word {
		if r < 'A' || r > 'Z' {
			return invalid("word must contain only English letters"), nil
		}
	}
	letters := []rune(word)
	if len(letters) < 2 {
		return invalid("word must contain at least 2 letters"), nil
	}

	if m.Row < 0 || m.Row >= BoardSize || m.Col < 0 || m.Col >= BoardSize {
		return invalid("coordinates are out of board bounds"), nil
	}
	if m.Horizontal && m.Col+len(letters) > BoardSize {
		return invalid("word does not fit horizontally"), nil
	}
	if !m.Horizontal && m.Row+len(letters) > BoardSize {
		return invalid("word does not fit vertically"), nil
	}

	firstMove := board.Empty()

	// Walk the word once: occupied cells must match their letter, empty
	// cells become this move's placements. Overlap or adjacency to an
	// existing tile satisfies connectivity.
	newIdx := make([]int, 0, len(letters))
	touches := false
	for i, r := range letters {
		row, col := cellAt(m, i)
		if cur, ok := board.TileAt(row, col); ok {
			if unicode.ToUpper(cur.Letter) != r {
				return invalid("cannot place word at the specified position"), nil
			}
			touches = true
			continue
		}
		if hasAdjacentTile(board, row, col) {
			touches = true
		}
		newIdx = append(newIdx, i)
	}
	if len(newIdx) == 0 {
		return invalid("move places no new tiles"), nil
	}
	if !firstMove && !touches {
		return invalid("word must touch existing tiles"), nil
	}

	if firstMove {
		centered := false
		for _, i := range newIdx {
			if row, col := cellAt(m, i); row == Center && col == Center {
				centered = true
				break
			}
		}
		if !centered {
			return invalid("first move must pass through the center cell"), nil
		}
	}

	if len(m.TileIDs) != len(letters) {
		return invalid("you don't have the required tiles for this move"), nil
	}
	placements, ok := assignTiles(m, newIdx, letters, rack)
	if !ok {
		return invalid("you don't have the required tiles for this move"), nil
	}

	candidates := v.formedWords(m, letters, board, placements)
	for _, c := range candidates {
		if !v.lexicon.IsValidWord(c.word) {
			return invalid("invalid word formed: %s", c.word), nil
		}
	}

	total := 0
	words := make([]string, 0, len(candidates))
	for _, c := range candidates {
		total += scoreWord(c)
		words = append(words, c.word)
	}

	res := ValidationResult{Valid: true, Score: total, Words: words}
	if len(placements) == RackSize {
		total += bingoBonus
		res.Score = total
		res.Message = fmt.Sprintf("BINGO! +%d points for using all tiles!", bingoBonus)
	} else {
		res.Message = fmt.Sprintf("Word accepted! Score: %d", total)
	}
	return res, placements
}

func cellAt(m Move, i int) (row, col int) {
	if m.Horizontal {
		return m.Row, m.Col + i
	}
	return m.Row + i, m.Col
}

func hasAdjacentTile(board *Board, row, col int) bool {
	dirs := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	for _, d := range dirs {
		if _, ok := board.TileAt(row+d[0], col+d[1]); ok {
			return true
		}
	}
	return false
}

// assignTiles matches the claimed rack tiles to the letters the move
// actually places. Exact letters are consumed first so blanks only cover
// letters nothing else can. The claimed count must equal the word length;
// claimed tiles beyond the placed cells stay on the rack.
func assignTiles(m Move, newIdx []int, letters []rune, rack []domain.Tile) ([]placement, bool) {
	byID := make(map[domain.TileID]domain.Tile, len(rack))
	for _, t := range rack {
		byID[t.ID] = t
	}
	avail := make([]domain.Tile, 0, len(m.TileIDs))
	seen := make(map[domain.TileID]struct{}, len(m.TileIDs))
	for _, id := range m.TileIDs {
		t, ok := byID[id]
		if !ok {
			return nil, false
		}
		if _, dup := seen[id]; dup {
			return nil, false
		}
		seen[id] = struct{}{}
		avail = append(avail, t)
	}

	used := make([]bool, len(avail))
	out := make([]placement, len(newIdx))
	pending := make([]int, 0, len(newIdx))

	for k, i := range newIdx {
		row, col := cellAt(m, i)
		out[k] = placement{row: row, col: col}
		matched := false
		for j, t := range avail {
			if !used[j] && !t.Blank && unicode.ToUpper(t.Letter) == letters[i] {
				used[j] = true
				t.Letter = letters[i]
				out[k].tile = t
				matched = true
				break
			}
		}
		if !matched {
			pending = append(pending, k)
		}
	}
	for _, k := range pending {
		matched := false
		for j, t := range avail {
			if !used[j] && t.Blank {
				used[j] = true
				t.Letter = letters[newIdx[k]]
				out[k].tile = t
				matched = true
				break
			}
		}
		if !matched {
			return nil, false
		}
	}
	return out, true
}

// formedWords assembles the primary word plus every cross word created by a
// newly placed tile: from each placement, scan the perpendicular axis both
// directions through contiguous occupied cells.
func (v *Validator) formedWords(m Move, letters []rune, board *Board, placements []placement) []candidate {
	placedAt := make(map[[2]int]domain.Tile, len(placements))
	for _, p := range placements {
		placedAt[[2]int{p.row, p.col}] = p.tile
	}

	main := candidate{word: string(letters)}
	for i, r := range letters {
		row, col := cellAt(m, i)
		main.cells = append(main.cells, wordCell(board, placedAt, row, col, r))
	}
	out := []candidate{main}

	for _, p := range placements {
		var cells []scoredCell
		if m.Horizontal {
			cells = scanLine(board, placedAt, p.row, p.col, false)
		} else {
			cells = scanLine(board, placedAt, p.row, p.col, true)
		}
		if len(cells) > 1 {
			var sb strings.Builder
			for _, c := range cells {
				sb.WriteRune(letterOf(board, placedAt, c.row, c.col))
			}
			out = append(out, candidate{word: sb.String(), cells: cells})
		}
	}
	return out
}

// scanLine walks the full occupied run through (row, col) along one axis.
// The pivot cell belongs to the current move; its neighbors come from the
// board.
func scanLine(board *Board, placedAt map[[2]int]domain.Tile, row, col int, horizontal bool) []scoredCell {
	dr, dc := 1, 0
	if horizontal {
		dr, dc = 0, 1
	}

	startR, startC := row, col
	for {
		r, c := startR-dr, startC-dc
		if _, ok := board.TileAt(r, c); !ok {
			break
		}
		startR, startC = r, c
	}

	var cells []scoredCell
	r, c := startR, startC
	for r < BoardSize && c < BoardSize {
		if r == row && c == col {
			t := placedAt[[2]int{r, c}]
			cells = append(cells, scoredCell{row: r, col: c, points: t.Points, newTile: true, blank: t.Blank})
		} else if t, ok := board.TileAt(r, c); ok {
			cells = append(cells, scoredCell{row: r, col: c, points: t.Points, blank: t.Blank})
		} else {
			break
		}
		r, c = r+dr, c+dc
	}
	return cells
}

func wordCell(board *Board, placedAt map[[2]int]domain.Tile, row, col int, letter rune) scoredCell {
	if t, ok := placedAt[[2]int{row, col}]; ok {
		return scoredCell{row: row, col: col, points: t.Points, newTile: true, blank: t.Blank}
	}
	t, _ := board.TileAt(row, col)
	return scoredCell{row: row, col: col, points: t.Points, blank: t.Blank}
}

func letterOf(board *Board, placedAt map[[2]int]domain.Tile, row, col int) rune {
	if t, ok := placedAt[[2]int{row, col}]; ok {
		return unicode.ToUpper(t.Letter)
	}
	t, _ := board.TileAt(row, col)
	return unicode.ToUpper(t.Letter)
}

// scoreWord applies letter bonuses on newly covered cells, then the word
// multiplier product. A word containing any blank scores its raw sum: the
// word multiplier is suppressed entirely.
func scoreWord(c candidate) int {
	sum := 0
	mult := 1
	hasBlank := false
	for _, cell := range c.cells {
		pts := cell.points
		if cell.blank {
			hasBlank = true
		}
		if cell.newTile {
			switch BonusAt(cell.row, cell.col) {
			case BonusDoubleLetter:
				pts *= 2
			case BonusTripleLetter:
				pts *= 3
			case BonusDoubleWord:
				mult *= 2
			case BonusTripleWord:
				mult *= 3
			}
		}
		sum += pts
	}
	if hasBlank {
		return sum
	}
	return sum * mult
}

// FinalScore deducts the value of a leftover rack at game end, floored at
// zero.
func FinalScore(score int, rack []domain.Tile) int {
	for _, t := range rack {
		score -= t.Points
	}
	if score < 0 {
		return 0
	}
	return score
}
