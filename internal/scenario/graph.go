// Package scenario grades runs through a level's branching decision graph and
// derives the greedy best-score path. Everything here is pure: no I/O and no
// shared state, so it is safe to call from any number of goroutines.
package scenario

import (
	"errors"
	"fmt"

	"training_backend/internal/model"
)

// StartSceneID is where every run and the optimal path begin when present.
const StartSceneID = 1

var ErrInvalidGraph = errors.New("invalid scenario graph")

// Graph is an id-indexed arena over a level's scenes. Scenes point at each
// other only by id, so cycles never turn into reference loops.
type Graph struct {
	scenes map[int]*model.Scene
	order  []int
}

// NewGraph indexes scenes by id. When ids repeat the first definition wins.
func NewGraph(scenes []model.Scene) *Graph {
	g := &Graph{
		scenes: make(map[int]*model.Scene, len(scenes)),
		order:  make([]int, 0, len(scenes)),
	}
	for i := range scenes {
		s := &scenes[i]
		if _, dup := g.scenes[s.ID]; dup {
			continue
		}
		g.scenes[s.ID] = s
		g.order = append(g.order, s.ID)
	}
	return g
}

func (g *Graph) Len() int {
	return len(g.order)
}

func (g *Graph) Scene(id int) (*model.Scene, bool) {
	s, ok := g.scenes[id]
	return s, ok
}

// Scenes returns the scenes in definition order.
func (g *Graph) Scenes() []*model.Scene {
	out := make([]*model.Scene, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.scenes[id])
	}
	return out
}

// Start returns scene 1, or the first defined scene when there is no scene 1.
func (g *Graph) Start() (*model.Scene, bool) {
	if s, ok := g.scenes[StartSceneID]; ok {
		return s, true
	}
	if len(g.order) == 0 {
		return nil, false
	}
	return g.scenes[g.order[0]], true
}

// SceneMaxPoints is the most a single visit to s can contribute.
// Terminal scenes contribute nothing and negative totals floor at zero.
func SceneMaxPoints(s *model.Scene) int {
	if s == nil || s.Terminal {
		return 0
	}
	if len(s.Options) == 0 {
		return max(0, s.Bonus)
	}
	best := s.Options[0].Points
	for _, o := range s.Options[1:] {
		if o.Points > best {
			best = o.Points
		}
	}
	return max(0, best+s.Bonus)
}

// MaxScore sums SceneMaxPoints over every non-terminal scene of the level.
func (g *Graph) MaxScore() int {
	total := 0
	for _, id := range g.order {
		total += SceneMaxPoints(g.scenes[id])
	}
	return total
}

// Validate checks a level definition before it is stored: at least one scene,
// unique ids, and every option's next pointing at an existing scene.
func Validate(scenes []model.Scene) error {
	if len(scenes) == 0 {
		return fmt.Errorf("%w: no scenes", ErrInvalidGraph)
	}
	seen := make(map[int]struct{}, len(scenes))
	for _, s := range scenes {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate scene id %d", ErrInvalidGraph, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	for _, s := range scenes {
		for i, o := range s.Options {
			if o.Next == nil {
				continue
			}
			if _, ok := seen[*o.Next]; !ok {
				return fmt.Errorf("%w: scene %d option %d points at missing scene %d", ErrInvalidGraph, s.ID, i, *o.Next)
			}
		}
	}
	return nil
}
