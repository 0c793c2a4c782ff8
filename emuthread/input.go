package emuthread

import "sync"

// MaxPlayers is the number of controller ports.
const MaxPlayers = 2

// SharedInput holds controller state as button bitmasks written by the
// host thread and read by the emulation goroutine.
type SharedInput struct {
	mu      sync.Mutex
	buttons [MaxPlayers]uint32
}

// Set updates button bitmask for a player.
func (si *SharedInput) Set(player int, buttons uint32) {
	if player < 0 || player >= MaxPlayers {
		return
	}
	si.mu.Lock()
	si.buttons[player] = buttons
	si.mu.Unlock()
}

// Read returns the current button bitmasks for all players.
func (si *SharedInput) Read() [MaxPlayers]uint32 {
	si.mu.Lock()
	result := si.buttons
	si.mu.Unlock()
	return result
}
