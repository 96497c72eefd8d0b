// Package platform defines the contract with the remote game platform. The
// engine only ever creates, polls and deletes games there; everything else
// about the platform is out of its hands.
package platform

import (
	"context"
	"fmt"
)

// GameState is the platform's coarse view of a game.
type GameState string

const (
	GameRunning           GameState = "running"
	GameWaitingForPlayers GameState = "waiting_for_players"
	GameFinished          GameState = "finished"
)

// PlayerState is a single player's terminal (or not) state within a game.
type PlayerState string

const (
	PlayerPlaying    PlayerState = "playing"
	PlayerWaiting    PlayerState = "waiting"
	PlayerDeclined   PlayerState = "declined"
	PlayerWon        PlayerState = "won"
	PlayerEliminated PlayerState = "eliminated"
	PlayerVotedEnd   PlayerState = "voted_end"
	PlayerBooted     PlayerState = "booted"
)

// Terminal reports whether the player reached a state the game can resolve
// from.
func (s PlayerState) Terminal() bool {
	switch s {
	case PlayerWon, PlayerEliminated, PlayerBooted:
		return true
	default:
		return false
	}
}

type PlayerStatus struct {
	PlayerID int
	State    PlayerState
}

type GameStatus struct {
	State   GameState
	Players []PlayerStatus
}

// Client is the remote game service. Calls are blocking and are not retried;
// a failure surfaces to the caller immediately.
type Client interface {
	// CreateGame materializes a game on the platform and returns its
	// external id. Sides carry the player ids per alliance.
	CreateGame(ctx context.Context, templateExternalID string, sides [][]int) (string, error)

	QueryGame(ctx context.Context, externalID string) (*GameStatus, error)

	DeleteGame(ctx context.Context, externalID string) error
}

// Error wraps a platform rejection so callers can match on it and roll back
// whatever local state the failed call stranded.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
