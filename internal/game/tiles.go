package game

import (
	"math/rand"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wordpot/internal/domain"
)

// Standard English tile distribution: 100 tiles including two blanks.
var tileDistribution = []struct {
	letter rune
	points int
	count  int
}{
	{'A', 1, 9}, {'B', 3, 2}, {'C', 3, 2}, {'D', 2, 4}, {'E', 1, 12},
	{'F', 4, 2}, {'G', 2, 3}, {'H', 4, 2}, {'I', 1, 9}, {'J', 8, 1},
	{'K', 5, 1}, {'L', 1, 4}, {'M', 3, 2}, {'N', 1, 6}, {'O', 1, 8},
	{'P', 3, 2}, {'Q', 10, 1}, {'R', 1, 6}, {'S', 1, 4}, {'T', 1, 6},
	{'U', 1, 4}, {'V', 4, 2}, {'W', 4, 2}, {'X', 8, 1}, {'Y', 4, 2},
	{'Z', 10, 1}, {domain.BlankLetter, 0, 2},
}

var letterValues = func() map[rune]int {
	m := make(map[rune]int, len(tileDistribution))
	for _, d := range tileDistribution {
		m[d.letter] = d.points
	}
	return m
}()

// LetterValue returns the point value of a letter, 0 for blanks and
// anything outside the tile set.
func LetterValue(letter rune) int {
	return letterValues[unicode.ToUpper(letter)]
}

// TilePool holds the undrawn tiles of a game server. Draw and Return are
// safe for concurrent use from any number of rooms; a tile handed out by
// Draw is never handed out again until it is returned.
type TilePool struct {
	mu    sync.Mutex
	rng   *rand.Rand
	tiles []domain.Tile
}

// NewTilePool builds a shuffled pool with the full 100-tile distribution.
func NewTilePool(seed int64) *TilePool {
	p := &TilePool{rng: rand.New(rand.NewSource(seed))}
	for _, d := range tileDistribution {
		for i := 0; i < d.count; i++ {
			p.tiles = append(p.tiles, domain.Tile{
				ID:     domain.TileID(uuid.NewString()),
				Letter: d.letter,
				Points: d.points,
				Blank:  d.letter == domain.BlankLetter,
			})
		}
	}
	p.shuffle()
	log.Info().Str("module", "game.tiles").Int("tiles", len(p.tiles)).Msg("tile pool initialized")
	return p
}

func (p *TilePool) shuffle() {
	p.rng.Shuffle(len(p.tiles), func(i, j int) {
		p.tiles[i], p.tiles[j] = p.tiles[j], p.tiles[i]
	})
}

// Draw removes one tile from the pool. The second return is false when the
// pool is exhausted; that is not an error, callers refill racks with what
// they get.
func (p *TilePool) Draw() (domain.Tile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tiles) == 0 {
		return domain.Tile{}, false
	}
	t := p.tiles[len(p.tiles)-1]
	p.tiles = p.tiles[:len(p.tiles)-1]
	return t, true
}

// DrawN draws up to n tiles, stopping silently when the pool runs dry.
func (p *TilePool) DrawN(n int) []domain.Tile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > len(p.tiles) {
		n = len(p.tiles)
	}
	drawn := make([]domain.Tile, 0, n)
	for i := 0; i < n; i++ {
		drawn = append(drawn, p.tiles[len(p.tiles)-1])
		p.tiles = p.tiles[:len(p.tiles)-1]
	}
	return drawn
}

// Return puts a tile back and reshuffles. A blank that stood for a letter
// goes back to being a plain blank.
func (p *TilePool) Return(t domain.Tile) {
	if t.Blank {
		t.Letter = domain.BlankLetter
		t.Points = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tiles = append(p.tiles, t)
	p.shuffle()
}

// Remaining reports how many tiles are still in the pool.
func (p *TilePool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tiles)
}
