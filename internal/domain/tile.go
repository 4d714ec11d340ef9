package domain

type TileID string

// BlankLetter is the letter a wildcard tile carries while it sits in the
// pool or on a rack. Once placed, a blank takes on the letter it stands
// for but keeps Blank=true and zero points.
const BlankLetter = ' '

type Tile struct {
	ID     TileID `json:"id"`
	Letter rune   `json:"letter"`
	Points int    `json:"points"`
	Blank  bool   `json:"blank,omitempty"`
}
