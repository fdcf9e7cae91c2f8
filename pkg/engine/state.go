package engine

import (
	"github.com/opd-ai/go-harpoon/pkg/entity"
	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// GameState is a read-only summary of the simulation at the end of a tick.
type GameState struct {
	Tick      uint64
	Entities  int
	Bodies    int
	Springs   int
	Particles int
	Obstacles []ObstacleState
	Craft     CraftState
}

// CraftState summarises the player craft.
type CraftState struct {
	Present       bool
	Position      physics.Vector2D
	Angle         float64
	Velocity      physics.Vector2D
	Destroyed     bool
	HarpoonLoaded bool
	Tethered      bool
}

// ObstacleState summarises one obstacle.
type ObstacleState struct {
	ID       entity.ID
	Position physics.Vector2D
	Angle    float64
}

// State builds a GameState from the current registry and world.
func (g *Game) State() GameState {
	state := GameState{
		Tick:     g.CurrentTick,
		Entities: g.Registry.Len(),
		Bodies:   g.World.BodyCount(),
		Springs:  g.World.SpringCount(),
		Craft:    g.craftState(),
	}
	state.Particles = g.Registry.Count(func(e entity.Entity) bool {
		_, ok := e.(*entity.Particle)
		return ok
	})
	for _, e := range g.Registry.Snapshot() {
		if o, ok := e.(*entity.Obstacle); ok {
			state.Obstacles = append(state.Obstacles, ObstacleState{
				ID:       o.GetID(),
				Position: o.Body().Position(),
				Angle:    o.Body().Angle(),
			})
		}
	}
	return state
}

func (g *Game) craftState() CraftState {
	c := g.craft
	if c == nil {
		return CraftState{}
	}
	cs := CraftState{
		Present:       true,
		Position:      c.Position(),
		Destroyed:     c.Destroyed(),
		HarpoonLoaded: c.Harpoon().Loaded(),
	}
	if t := c.Harpoon().Tether(); t != nil {
		cs.Tethered = t.Active()
	}
	if !cs.Destroyed {
		cs.Angle = c.Body().Angle()
		cs.Velocity = c.Body().Velocity()
	}
	return cs
}
