// pkg/input/input.go
package input

import (
	"slices"
	"strings"
	"sync"
)

// Action is an abstract control identifier, such as the key that drives a thruster.
type Action string

// Actions of the default control layout.
const (
	ActionThrustE Action = "E"
	ActionThrustI Action = "I"
	ActionThrustJ Action = "J"
	ActionThrustF Action = "F"
	ActionHarpoon Action = "SPACE"
)

// Snapshot answers whether an action is currently held.
type Snapshot interface {
	IsHeld(action Action) bool
}

// KeyState tracks held actions. Press and Release may be called from host
// event goroutines while the game loop reads through IsHeld.
type KeyState struct {
	mu       sync.RWMutex
	held     map[Action]int
	bindings Bindings
}

// NewKeyState creates a key state that maps host key names through bindings.
// A nil bindings value uses DefaultBindings.
func NewKeyState(bindings Bindings) *KeyState {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &KeyState{
		held:     make(map[Action]int),
		bindings: bindings,
	}
}

// Press records a key-down event for a host key name. Unbound keys are ignored.
func (k *KeyState) Press(key string) {
	action, ok := k.bindings.Lookup(key)
	if !ok {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.held[action]++
}

// Release records a key-up event. Releasing a key that is not held is ignored.
func (k *KeyState) Release(key string) {
	action, ok := k.bindings.Lookup(key)
	if !ok {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.held[action] <= 1 {
		delete(k.held, action)
		return
	}
	k.held[action]--
}

// IsHeld implements Snapshot.
func (k *KeyState) IsHeld(action Action) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.held[action] > 0
}

// Held returns the currently held actions in sorted order.
func (k *KeyState) Held() []Action {
	k.mu.RLock()
	defer k.mu.RUnlock()
	actions := make([]Action, 0, len(k.held))
	for a := range k.held {
		actions = append(actions, a)
	}
	slices.Sort(actions)
	return actions
}

// Bindings maps host key names (case-insensitive) to actions. Several keys
// may drive the same action.
type Bindings map[string]Action

// DefaultBindings returns the E/I/J/F thruster layout plus space for the harpoon.
func DefaultBindings() Bindings {
	return Bindings{
		"e":     ActionThrustE,
		"i":     ActionThrustI,
		"j":     ActionThrustJ,
		"f":     ActionThrustF,
		"space": ActionHarpoon,
		" ":     ActionHarpoon,
	}
}

// Lookup resolves a host key name.
func (b Bindings) Lookup(key string) (Action, bool) {
	a, ok := b[strings.ToLower(key)]
	return a, ok
}

// Keys returns the host key names bound to action, sorted.
func (b Bindings) Keys(action Action) []string {
	var keys []string
	for k, a := range b {
		if a == action {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Static is a fixed Snapshot, useful for scripted runs and tests.
type Static map[Action]bool

// IsHeld implements Snapshot.
func (s Static) IsHeld(action Action) bool {
	return s[action]
}
