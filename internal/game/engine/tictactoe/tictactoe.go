// Package tictactoe implements the reference 3x3 tic-tac-toe engine.
package tictactoe

import (
	"encoding/json"
	"errors"
	"fmt"
	mrand "math/rand"

	"github.com/parlorgames/parlor/internal/game/engine"
	"github.com/parlorgames/parlor/internal/random"
)

// TitleID is the registry key for this engine.
const TitleID = "TicTacToe"

var (
	// ErrInvalidPlayers indicates the game was not given exactly two
	// distinct players.
	ErrInvalidPlayers = errors.New("tic-tac-toe requires exactly 2 distinct players")
	// ErrNotYourTurn indicates a move by the player whose turn it is not.
	ErrNotYourTurn = errors.New("not this player's turn")
	// ErrCellOccupied indicates a move onto a non-blank cell.
	ErrCellOccupied = errors.New("cell is already occupied")
	// ErrInvalidCell indicates a move outside the board.
	ErrInvalidCell = errors.New("cell is outside the board")
	// ErrGameOver indicates a move after the game ended.
	ErrGameOver = errors.New("game is already over")
)

const boardSize = 3

// Tile marks one board cell.
type Tile string

const (
	TileBlank Tile = " "
	TileP1    Tile = "X"
	TileP2    Tile = "O"
)

type result int

const (
	resultOngoing result = iota
	resultDraw
	resultP1Win
	resultP2Win
)

// Action is one player's move.
type Action struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Outcome is a game result from one player's perspective.
type Outcome string

const (
	OutcomeOngoing Outcome = "ongoing"
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomeDraw    Outcome = "draw"
)

// View is the board as one player sees it.
type View struct {
	Board        [boardSize][boardSize]Tile `json:"board"`
	IsPlayerTurn bool                       `json:"isPlayerTurn"`
	PlayerNumber int                        `json:"playerNumber"`
	Opponent     string                     `json:"opponent"`
	Outcome      Outcome                    `json:"outcome"`
}

// Game is one tic-tac-toe instance. Turn order is randomized once at
// construction; players[0] is P1 (X) afterwards.
type Game struct {
	players [2]string
	board   [boardSize][boardSize]Tile
	turn    int
	result  result
}

// Constructor builds a Game from the ordered participant list, seeding
// the turn shuffle from crypto/rand. Options are ignored.
func Constructor(playerIDs []string, options json.RawMessage) (engine.Engine, error) {
	rng, err := random.NewGenerator()
	if err != nil {
		return nil, fmt.Errorf("seed turn order: %w", err)
	}
	return New(playerIDs, rng)
}

// New builds a Game using the provided generator for the turn shuffle.
func New(playerIDs []string, rng *mrand.Rand) (*Game, error) {
	if len(playerIDs) != 2 {
		return nil, fmt.Errorf("%w: got %d players", ErrInvalidPlayers, len(playerIDs))
	}
	if playerIDs[0] == playerIDs[1] {
		return nil, fmt.Errorf("%w: both players are %q", ErrInvalidPlayers, playerIDs[0])
	}

	g := &Game{players: [2]string{playerIDs[0], playerIDs[1]}}
	if rng.Intn(2) == 1 {
		g.players[0], g.players[1] = g.players[1], g.players[0]
	}
	for r := 0; r < boardSize; r++ {
		for c := 0; c < boardSize; c++ {
			g.board[r][c] = TileBlank
		}
	}
	return g, nil
}

// Start returns the initial per-player views.
func (g *Game) Start() (engine.UpdateResult, error) {
	return g.updateResult()
}

// Update applies each action in order. The first rule violation aborts
// the batch with the board unchanged by the offending move.
func (g *Game) Update(actions []engine.PlayerData) (engine.UpdateResult, error) {
	for _, pa := range actions {
		var action Action
		if err := json.Unmarshal(pa.Data, &action); err != nil {
			return engine.UpdateResult{}, fmt.Errorf("decode action for %s: %w", pa.PlayerID, err)
		}
		if err := g.act(pa.PlayerID, action); err != nil {
			return engine.UpdateResult{}, err
		}
	}
	return g.updateResult()
}

func (g *Game) act(playerID string, action Action) error {
	if g.result != resultOngoing {
		return ErrGameOver
	}
	if playerID != g.players[g.turn] {
		return fmt.Errorf("%w: %s", ErrNotYourTurn, playerID)
	}
	if action.Row < 0 || action.Row >= boardSize || action.Col < 0 || action.Col >= boardSize {
		return fmt.Errorf("%w: row %d col %d", ErrInvalidCell, action.Row, action.Col)
	}
	if g.board[action.Row][action.Col] != TileBlank {
		return fmt.Errorf("%w: row %d col %d", ErrCellOccupied, action.Row, action.Col)
	}

	tile := TileP1
	if g.turn == 1 {
		tile = TileP2
	}
	g.board[action.Row][action.Col] = tile

	g.result = g.resolve()
	if g.result == resultOngoing {
		g.turn = 1 - g.turn
	}
	return nil
}

var lines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

func (g *Game) resolve() result {
	for _, line := range lines {
		a := g.board[line[0][0]][line[0][1]]
		b := g.board[line[1][0]][line[1][1]]
		c := g.board[line[2][0]][line[2][1]]
		if a == TileP1 && b == TileP1 && c == TileP1 {
			return resultP1Win
		}
		if a == TileP2 && b == TileP2 && c == TileP2 {
			return resultP2Win
		}
	}

	for r := 0; r < boardSize; r++ {
		for c := 0; c < boardSize; c++ {
			if g.board[r][c] == TileBlank {
				return resultOngoing
			}
		}
	}
	return resultDraw
}

func (g *Game) outcomeFor(playerIndex int) Outcome {
	switch g.result {
	case resultOngoing:
		return OutcomeOngoing
	case resultDraw:
		return OutcomeDraw
	case resultP1Win:
		if playerIndex == 0 {
			return OutcomeWin
		}
		return OutcomeLoss
	default:
		if playerIndex == 1 {
			return OutcomeWin
		}
		return OutcomeLoss
	}
}

func (g *Game) updateResult() (engine.UpdateResult, error) {
	views := make([]engine.PlayerData, 0, len(g.players))
	for i, playerID := range g.players {
		view := View{
			Board:        g.board,
			IsPlayerTurn: g.result == resultOngoing && i == g.turn,
			PlayerNumber: i + 1,
			Opponent:     g.players[1-i],
			Outcome:      g.outcomeFor(i),
		}
		data, err := json.Marshal(view)
		if err != nil {
			return engine.UpdateResult{}, fmt.Errorf("marshal view for %s: %w", playerID, err)
		}
		views = append(views, engine.PlayerData{PlayerID: playerID, Data: data})
	}
	return engine.UpdateResult{
		Finished:    g.result != resultOngoing,
		PlayerViews: views,
	}, nil
}
