// pkg/entity/entity.go
package entity

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/opd-ai/go-harpoon/pkg/config"
	"github.com/opd-ai/go-harpoon/pkg/event"
	"github.com/opd-ai/go-harpoon/pkg/input"
	"github.com/opd-ai/go-harpoon/pkg/logging"
	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// ErrInvalidConfig is returned by constructors given unusable parameters.
var ErrInvalidConfig = errors.New("invalid entity configuration")

// ID is a unique identifier for an entity
type ID uint64

var nextID atomic.Uint64

// GenerateID returns a process-wide unique entity id.
func GenerateID() ID {
	return ID(nextID.Add(1))
}

// Entity is the base interface for all simulation objects
type Entity interface {
	GetID() ID
	Update(deltaTime float64)
	Render(s Surface)
}

// Disposable is implemented by entities that hold physics state. Dispose
// takes the entity out of the world and the registry; it is safe to call
// more than once.
type Disposable interface {
	Dispose()
}

// BaseEntity contains common functionality for all entities
type BaseEntity struct {
	ID ID
}

// GetID returns the entity's unique identifier
func (e *BaseEntity) GetID() ID {
	return e.ID
}

// Context carries the collaborators every entity needs. It replaces shared
// globals: the game builds one and hands it to each constructor.
type Context struct {
	World    *physics.World
	Registry *Registry
	Input    input.Snapshot
	Events   *event.Bus
	Rand     *rand.Rand
	Logger   *logging.Logger
	Config   *config.GameConfig

	// Base is the context used for log lines; the game loop refreshes it
	// every tick so entries carry the tick number.
	Base context.Context
}

// Validate checks that the mandatory collaborators are present.
func (c *Context) Validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil context", ErrInvalidConfig)
	case c.World == nil:
		return fmt.Errorf("%w: context without physics world", ErrInvalidConfig)
	case c.Registry == nil:
		return fmt.Errorf("%w: context without registry", ErrInvalidConfig)
	case c.Rand == nil:
		return fmt.Errorf("%w: context without random source", ErrInvalidConfig)
	case c.Config == nil:
		return fmt.Errorf("%w: context without configuration", ErrInvalidConfig)
	}
	return nil
}

// Held reports whether any of actions is currently held.
func (c *Context) Held(actions []input.Action) bool {
	if c.Input == nil {
		return false
	}
	for _, a := range actions {
		if c.Input.IsHeld(a) {
			return true
		}
	}
	return false
}

// Publish sends e on the event bus, if there is one.
func (c *Context) Publish(e event.Event) {
	if c.Events != nil {
		c.Events.Publish(e)
	}
}

// Log returns the logger and the context to log with.
func (c *Context) Log() (*logging.Logger, context.Context) {
	logger := c.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	ctx := c.Base
	if ctx == nil {
		ctx = context.Background()
	}
	return logger, ctx
}
