// pkg/render/engo/input.go
package engo

import (
	"sort"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-harpoon/pkg/input"
)

// keyCodes maps binding key names to engo keys.
var keyCodes = map[string]engo.Key{
	"e":     engo.KeyE,
	"i":     engo.KeyI,
	"j":     engo.KeyJ,
	"f":     engo.KeyF,
	"space": engo.KeySpace,
	" ":     engo.KeySpace,
	"up":    engo.KeyArrowUp,
	"down":  engo.KeyArrowDown,
	"left":  engo.KeyArrowLeft,
	"right": engo.KeyArrowRight,
}

// ButtonInput is an input.Snapshot backed by engo's button registry. Each
// action is registered as a button named after the action.
type ButtonInput struct{}

// IsHeld implements input.Snapshot.
func (ButtonInput) IsHeld(action input.Action) bool {
	if engo.Input == nil {
		return false
	}
	return engo.Input.Button(string(action)).Down()
}

// SetupInputBindings registers one engo button per bound action.
func SetupInputBindings(b input.Bindings) {
	for action, keys := range buttonKeys(b) {
		engo.Input.RegisterButton(string(action), keys...)
	}
}

// buttonKeys groups the engo keys of b by action. Unknown key names are
// skipped and duplicates collapsed.
func buttonKeys(b input.Bindings) map[input.Action][]engo.Key {
	out := make(map[input.Action][]engo.Key)
	seen := make(map[input.Action]bool)
	for _, action := range b {
		if seen[action] {
			continue
		}
		seen[action] = true

		var keys []engo.Key
		for _, name := range b.Keys(action) {
			if key, ok := keyCodes[name]; ok && !containsKey(keys, key) {
				keys = append(keys, key)
			}
		}
		if len(keys) == 0 {
			continue
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		out[action] = keys
	}
	return out
}

func containsKey(keys []engo.Key, k engo.Key) bool {
	for _, existing := range keys {
		if existing == k {
			return true
		}
	}
	return false
}

var _ input.Snapshot = ButtonInput{}
