package game

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wordpot/internal/domain"
)

const (
	// RackSize is the number of tiles a player holds when the pool allows.
	RackSize = 7

	bingoBonus = 50
	minPlayers = 2
)

var (
	ErrRoomFull         = errors.New("room is full")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrGameNotActive    = errors.New("game is not active")
	ErrNotAMember       = errors.New("player is not a member of this room")
	ErrNotCreator       = errors.New("only the room creator can start the game")
	ErrNotEnoughPlayers = errors.New("at least two players are required")
	ErrPlayersNotReady  = errors.New("not all players are ready")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrTilesNotOnRack   = errors.New("tiles are not on your rack")
	ErrPoolTooSmall     = errors.New("not enough tiles left to exchange")
)

// Status is the lifecycle state of a room. Forming rooms accept members,
// Active rooms run the game, Finished is terminal.
type Status int

const (
	StatusForming Status = iota
	StatusActive
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusForming:
		return "forming"
	case StatusActive:
		return "active"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

type playerState struct {
	player domain.Player
	rack   []domain.Tile
	score  int
	ready  bool
}

// Room is the per-game state machine. Every mutating operation runs under
// one mutex so join, ready, start, moves and turn advancement never
// interleave for the same room.
type Room struct {
	mu         sync.Mutex
	id         domain.RoomID
	name       string
	maxPlayers int
	creatorID  domain.PlayerID
	status     Status
	order      []domain.PlayerID
	players    map[domain.PlayerID]*playerState
	currentID  domain.PlayerID
	board      *Board
	pool       *TilePool
	validator  *Validator
}

// StartResult carries what the start broadcast needs: the opening player
// and each member's freshly dealt rack.
type StartResult struct {
	First domain.PlayerID
	Racks map[domain.PlayerID][]domain.Tile
}

// GameOutcome is produced once, when a room finishes.
type GameOutcome struct {
	WinnerID    domain.PlayerID
	FinalScores map[domain.PlayerID]int
}

// MoveOutcome reports an accepted (or rejected) move. Result.Valid false
// means the board and turn are untouched.
type MoveOutcome struct {
	Result ValidationResult
	Rack   []domain.Tile
	Next   domain.PlayerID
	Over   *GameOutcome
}

// ExchangeOutcome reports a completed tile exchange.
type ExchangeOutcome struct {
	Rack []domain.Tile
	Next domain.PlayerID
}

// LeaveResult describes the side effects of a member leaving.
type LeaveResult struct {
	WasMember  bool
	Empty      bool
	NewCreator domain.PlayerID
	Over       *GameOutcome
}

func NewRoom(name string, maxPlayers int, creator domain.Player, pool *TilePool, v *Validator) *Room {
	r := &Room{
		id:         domain.RoomID(uuid.NewString()),
		name:       name,
		maxPlayers: maxPlayers,
		creatorID:  creator.ID,
		players:    make(map[domain.PlayerID]*playerState),
		board:      NewBoard(),
		pool:       pool,
		validator:  v,
	}
	r.order = append(r.order, creator.ID)
	r.players[creator.ID] = &playerState{player: creator}
	log.Info().Str("module", "game.room").Str("room", string(r.id)).Str("creator", string(creator.ID)).Msg("room created")
	return r
}

// AddPlayer admits a player while the room is forming. Re-adding a member
// is a no-op.
func (r *Room) AddPlayer(p domain.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[p.ID]; ok {
		return nil
	}
	if r.status != StatusForming {
		return ErrGameInProgress
	}
	if len(r.order) >= r.maxPlayers {
		return ErrRoomFull
	}
	r.order = append(r.order, p.ID)
	r.players[p.ID] = &playerState{player: p}
	log.Info().Str("module", "game.room").Str("room", string(r.id)).Str("player", string(p.ID)).Msg("player joined")
	return nil
}

// SetReady marks a member ready and reports whether everyone now is.
func (r *Room) SetReady(id domain.PlayerID) (allReady bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, ok := r.players[id]
	if !ok {
		return false, ErrNotAMember
	}
	if r.status != StatusForming {
		return false, ErrGameInProgress
	}
	ps.ready = true
	for _, pid := range r.order {
		if !r.players[pid].ready {
			return false, nil
		}
	}
	return true, nil
}

// Start moves the room to Active: creator-only, at least two members, all
// ready. Picks a uniformly random opener and deals every rack.
func (r *Room) Start(by domain.PlayerID) (StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusForming {
		return StartResult{}, ErrGameInProgress
	}
	if by != r.creatorID {
		return StartResult{}, ErrNotCreator
	}
	if len(r.order) < minPlayers {
		return StartResult{}, ErrNotEnoughPlayers
	}
	for _, pid := range r.order {
		if !r.players[pid].ready {
			return StartResult{}, ErrPlayersNotReady
		}
	}

	r.status = StatusActive
	r.currentID = r.order[rand.Intn(len(r.order))]

	res := StartResult{First: r.currentID, Racks: make(map[domain.PlayerID][]domain.Tile, len(r.order))}
	for _, pid := range r.order {
		ps := r.players[pid]
		ps.rack = r.pool.DrawN(RackSize)
		res.Racks[pid] = copyTiles(ps.rack)
	}
	log.Info().Str("module", "game.room").Str("room", string(r.id)).Str("first", string(r.currentID)).Msg("game started")
	return res, nil
}

// PlayMove validates and, if valid, applies a move as one critical
// section. A rejected move leaves board, rack, score and turn untouched
// and is reported through Result, not an error.
func (r *Room) PlayMove(playerID domain.PlayerID, m Move) (MoveOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusActive {
		return MoveOutcome{}, ErrGameNotActive
	}
	ps, ok := r.players[playerID]
	if !ok {
		return MoveOutcome{}, ErrNotAMember
	}
	if playerID != r.currentID {
		return MoveOutcome{}, ErrNotYourTurn
	}

	result, placements := r.validator.plan(m, r.board, ps.rack)
	if !result.Valid {
		return MoveOutcome{Result: result}, nil
	}

	for _, p := range placements {
		if err := r.board.place(p.row, p.col, p.tile); err != nil {
			// Cannot happen after a successful plan; fail the move loudly.
			return MoveOutcome{}, err
		}
	}
	removeFromRack(ps, placements)
	ps.score += result.Score
	ps.rack = append(ps.rack, r.pool.DrawN(RackSize-len(ps.rack))...)

	out := MoveOutcome{Result: result, Rack: copyTiles(ps.rack)}
	if len(ps.rack) == 0 && r.pool.Remaining() == 0 {
		out.Over = r.finishLocked()
	} else {
		r.advanceTurnLocked()
		out.Next = r.currentID
	}
	log.Debug().Str("module", "game.room").Str("room", string(r.id)).Str("player", string(playerID)).
		Int("score", result.Score).Strs("words", result.Words).Msg("move applied")
	return out, nil
}

// ExchangeTiles swaps rack tiles with the pool and spends the turn.
func (r *Room) ExchangeTiles(playerID domain.PlayerID, ids []domain.TileID) (ExchangeOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusActive {
		return ExchangeOutcome{}, ErrGameNotActive
	}
	ps, ok := r.players[playerID]
	if !ok {
		return ExchangeOutcome{}, ErrNotAMember
	}
	if playerID != r.currentID {
		return ExchangeOutcome{}, ErrNotYourTurn
	}
	if r.pool.Remaining() < len(ids) {
		return ExchangeOutcome{}, ErrPoolTooSmall
	}

	give := make([]domain.Tile, 0, len(ids))
	keep := make([]domain.Tile, 0, len(ps.rack))
	want := make(map[domain.TileID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for _, t := range ps.rack {
		if _, ok := want[t.ID]; ok {
			give = append(give, t)
			delete(want, t.ID)
		} else {
			keep = append(keep, t)
		}
	}
	if len(want) != 0 {
		return ExchangeOutcome{}, ErrTilesNotOnRack
	}

	// Draw replacements before returning the old tiles so none of them
	// come straight back.
	keep = append(keep, r.pool.DrawN(len(give))...)
	for _, t := range give {
		r.pool.Return(t)
	}
	ps.rack = keep

	r.advanceTurnLocked()
	return ExchangeOutcome{Rack: copyTiles(ps.rack), Next: r.currentID}, nil
}

// RemovePlayer takes a member out in any state, returning its rack to the
// pool. Mid-game departures that leave fewer than two players finish the
// game.
func (r *Room) RemovePlayer(playerID domain.PlayerID) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, ok := r.players[playerID]
	if !ok {
		return LeaveResult{}
	}

	idx := indexOf(r.order, playerID)
	r.order = append(r.order[:idx], r.order[idx+1:]...)
	delete(r.players, playerID)
	for _, t := range ps.rack {
		r.pool.Return(t)
	}

	res := LeaveResult{WasMember: true}
	if len(r.order) == 0 {
		res.Empty = true
		if r.status == StatusActive {
			r.status = StatusFinished
			r.currentID = ""
		}
		return res
	}
	if playerID == r.creatorID {
		// The longest-standing remaining member inherits the room.
		r.creatorID = r.order[0]
		res.NewCreator = r.creatorID
	}
	if r.status == StatusActive {
		if len(r.order) < minPlayers {
			res.Over = r.finishLocked()
		} else if playerID == r.currentID {
			r.currentID = r.order[idx%len(r.order)]
		}
	}
	log.Info().Str("module", "game.room").Str("room", string(r.id)).Str("player", string(playerID)).Msg("player left")
	return res
}

// finishLocked computes the terminal outcome: each score minus the value
// of the leftover rack, floored at zero; highest adjusted score wins, ties
// going to the earlier joiner.
func (r *Room) finishLocked() *GameOutcome {
	r.status = StatusFinished
	r.currentID = ""
	out := &GameOutcome{FinalScores: make(map[domain.PlayerID]int, len(r.order))}
	best := -1
	for _, pid := range r.order {
		ps := r.players[pid]
		final := FinalScore(ps.score, ps.rack)
		out.FinalScores[pid] = final
		if final > best {
			best = final
			out.WinnerID = pid
		}
	}
	log.Info().Str("module", "game.room").Str("room", string(r.id)).Str("winner", string(out.WinnerID)).Msg("game over")
	return out
}

// advanceTurnLocked moves to the next member in round-robin order over the
// current membership snapshot.
func (r *Room) advanceTurnLocked() {
	if len(r.order) == 0 {
		r.currentID = ""
		return
	}
	idx := indexOf(r.order, r.currentID)
	r.currentID = r.order[(idx+1)%len(r.order)]
}

func (r *Room) ID() domain.RoomID { return r.id }

func (r *Room) Name() string { return r.name }

func (r *Room) MaxPlayers() int { return r.maxPlayers }

func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) CreatorID() domain.PlayerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creatorID
}

func (r *Room) CurrentPlayer() domain.PlayerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentID
}

// Players returns the membership in join order.
func (r *Room) Players() []domain.PlayerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PlayerID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// CanJoin reports whether the room is still forming and has space.
func (r *Room) CanJoin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == StatusForming && len(r.order) < r.maxPlayers
}

func (r *Room) Info() domain.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.RoomInfo{ID: r.id, Name: r.name, Players: len(r.order), MaxPlayers: r.maxPlayers}
}

// Rack returns a copy of a member's rack.
func (r *Room) Rack(playerID domain.PlayerID) []domain.Tile {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ps, ok := r.players[playerID]; ok {
		return copyTiles(ps.rack)
	}
	return nil
}

// Scores returns every member's cumulative score.
func (r *Room) Scores() map[domain.PlayerID]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.PlayerID]int, len(r.order))
	for _, pid := range r.order {
		out[pid] = r.players[pid].score
	}
	return out
}

func removeFromRack(ps *playerState, placements []placement) {
	used := make(map[domain.TileID]struct{}, len(placements))
	for _, p := range placements {
		used[p.tile.ID] = struct{}{}
	}
	kept := ps.rack[:0]
	for _, t := range ps.rack {
		if _, ok := used[t.ID]; !ok {
			kept = append(kept, t)
		}
	}
	ps.rack = kept
}

func copyTiles(ts []domain.Tile) []domain.Tile {
	out := make([]domain.Tile, len(ts))
	copy(out, ts)
	return out
}

func indexOf(order []domain.PlayerID, id domain.PlayerID) int {
	for i, pid := range order {
		if pid == id {
			return i
		}
	}
	return -1
}
