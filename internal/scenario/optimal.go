package scenario

import (
	"sort"

	"training_backend/internal/model"
)

type StopReason string

const (
	StopEndOfBranch StopReason = "end"
	StopTerminal    StopReason = "terminal"
	StopNoOptions   StopReason = "no_options"
	StopCycle       StopReason = "cycle"
	StopDangling    StopReason = "dangling"
	StopEmpty       StopReason = "empty"
)

// Step is one scene on the optimal path.
type Step struct {
	SceneID      int            `json:"sceneId"`
	Description  string         `json:"description"`
	Terminal     bool           `json:"terminal"`
	ChosenOption *model.Option  `json:"chosenOption,omitempty"`
	Points       int            `json:"points"`
	Bonus        int            `json:"bonus"`
	Total        int            `json:"total"`
	Alternatives []model.Option `json:"alternatives"`
}

// Path is the greedy best-score walk through a level.
type Path struct {
	Steps         []Step     `json:"steps"`
	TotalMaxScore int        `json:"totalMaxScore"`
	LevelMaxScore int        `json:"levelMaxScore"`
	StopReason    StopReason `json:"stopReason"`
	// NextSceneID is the scene the walk refused to enter on a cycle or
	// dangling stop.
	NextSceneID *int `json:"nextSceneId,omitempty"`
}

// OptimalPath walks g from its start scene, taking the highest-point option
// at every scene (first one on ties). It is a local greedy walk: a locally
// worse option that unlocks a richer branch is never explored.
func OptimalPath(g *Graph) Path {
	p := Path{Steps: []Step{}, StopReason: StopEmpty}
	if g == nil {
		return p
	}
	p.LevelMaxScore = g.MaxScore()

	cur, ok := g.Start()
	if !ok {
		return p
	}

	visited := make(map[int]struct{}, g.Len())
	for {
		visited[cur.ID] = struct{}{}

		if cur.Terminal {
			p.Steps = append(p.Steps, Step{
				SceneID:      cur.ID,
				Description:  cur.Description,
				Terminal:     true,
				Bonus:        cur.Bonus,
				Alternatives: []model.Option{},
			})
			p.StopReason = StopTerminal
			return p
		}

		if len(cur.Options) == 0 {
			total := max(0, cur.Bonus)
			p.Steps = append(p.Steps, Step{
				SceneID:      cur.ID,
				Description:  cur.Description,
				Bonus:        cur.Bonus,
				Total:        total,
				Alternatives: []model.Option{},
			})
			p.TotalMaxScore += total
			p.StopReason = StopNoOptions
			return p
		}

		bestIdx := 0
		for i := 1; i < len(cur.Options); i++ {
			if cur.Options[i].Points > cur.Options[bestIdx].Points {
				bestIdx = i
			}
		}
		best := cur.Options[bestIdx]
		total := max(0, best.Points+cur.Bonus)

		p.Steps = append(p.Steps, Step{
			SceneID:      cur.ID,
			Description:  cur.Description,
			ChosenOption: &best,
			Points:       best.Points,
			Bonus:        cur.Bonus,
			Total:        total,
			Alternatives: alternatives(cur.Options, bestIdx),
		})
		p.TotalMaxScore += total

		if best.Next == nil {
			p.StopReason = StopEndOfBranch
			return p
		}
		next := *best.Next
		if _, seen := visited[next]; seen {
			p.StopReason = StopCycle
			p.NextSceneID = &next
			return p
		}
		nextScene, ok := g.Scene(next)
		if !ok {
			p.StopReason = StopDangling
			p.NextSceneID = &next
			return p
		}
		cur = nextScene
	}
}

// alternatives returns every option except the chosen one, by points desc.
// The sort is stable so equal options keep definition order.
func alternatives(opts []model.Option, chosen int) []model.Option {
	out := make([]model.Option, 0, len(opts)-1)
	for i, o := range opts {
		if i != chosen {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points > out[j].Points
	})
	return out
}
