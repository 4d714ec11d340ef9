package game

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Lexicon is the word-validity oracle consulted during move validation.
// Implementations must be pure and case-insensitive.
type Lexicon interface {
	IsValidWord(word string) bool
}

// WordList is an immutable set-backed Lexicon.
type WordList struct {
	words map[string]struct{}
}

// NewWordList builds a lexicon from the given words.
func NewWordList(words ...string) *WordList {
	l := &WordList{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w != "" {
			l.words[w] = struct{}{}
		}
	}
	return l
}

// LoadWordList reads one word per line from path.
func LoadWordList(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	l := &WordList{words: make(map[string]struct{})}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.ToUpper(strings.TrimSpace(sc.Text()))
		if w != "" {
			l.words[w] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	log.Info().Str("module", "game.lexicon").Str("path", path).Int("words", len(l.words)).Msg("word list loaded")
	return l, nil
}

func (l *WordList) IsValidWord(word string) bool {
	_, ok := l.words[strings.ToUpper(word)]
	return ok
}

// Len reports the number of words, handy for startup logging.
func (l *WordList) Len() int { return len(l.words) }
