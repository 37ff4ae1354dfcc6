// Package session tracks the bot's per-chat conversation state.
package session

import "fmt"

// State is the bot's mode of interaction with one chat.
type State int

const (
	// Stopped is the initial state and the target of every reset.
	Stopped State = iota
	NewCharacter
	DeleteCharacter
	Master
	DeleteAdventure
	NewAdventure
	Joining
	Playing
)

var stateNames = [...]string{
	Stopped:         "Stopped",
	NewCharacter:    "New Character",
	DeleteCharacter: "Delete Character",
	Master:          "Master CLI",
	DeleteAdventure: "Delete Adventure",
	NewAdventure:    "New Adventure",
	Joining:         "Waiting for players",
	Playing:         "Playing",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Session is one chat's conversation state.
type Session struct {
	// Chat is the chat ID the session belongs to.
	Chat int64
	// State is the current conversation state.
	State State
	// Lang is the chat's chosen locale code, empty for the default.
	Lang string
	// Context is opaque per-state data. It is nil whenever State is Stopped.
	Context []byte
}

// Reset returns the session to Stopped and clears its context. The locale
// choice survives resets.
func (s *Session) Reset() {
	s.State = Stopped
	s.Context = nil
}
