package scenario

import "training_backend/internal/model"

// DefaultThreshold is the approval threshold, in percent, used when neither
// the caller nor the level sets one.
const DefaultThreshold = 80.0

// Result is the graded outcome of one run.
type Result struct {
	Approved        bool                   `json:"approved"`
	EarnedPoints    int                    `json:"earnedPoints"`
	TotalPoints     int                    `json:"totalPoints"`
	Percentage      float64                `json:"percentage"`
	SelectedOptions []model.SelectedOption `json:"selectedOptions"`
}

// Evaluate scores trail against g. A scene is scored at most once per run;
// later entries for an already scored scene are ignored. Entries that are
// flagged terminal, point at a terminal scene, or name an unknown scene are
// skipped. Earned points are clamped to [0, total].
//
// An empty graph or an empty trail yields a zeroed, not approved result.
func Evaluate(g *Graph, trail []TrailEntry, threshold float64) Result {
	res := Result{SelectedOptions: []model.SelectedOption{}}
	if g == nil || g.Len() == 0 || len(trail) == 0 {
		return res
	}

	res.TotalPoints = g.MaxScore()

	earned := 0
	visited := make(map[int]struct{}, len(trail))
	for i := range trail {
		entry := &trail[i]
		if entry.Terminal || !entry.HasScene {
			continue
		}
		scene, ok := g.Scene(entry.SceneID)
		if !ok || scene.Terminal {
			continue
		}
		if _, seen := visited[scene.ID]; seen {
			continue
		}
		visited[scene.ID] = struct{}{}

		r := entry.resolve(scene)
		sel := model.SelectedOption{
			SceneID:     scene.ID,
			Description: r.description,
			Points:      r.points,
		}
		if r.option != nil {
			sel.OptionID = r.option.ID
		}
		earned += r.points
		res.SelectedOptions = append(res.SelectedOptions, sel)
	}

	res.EarnedPoints = clamp(earned, 0, res.TotalPoints)
	res.Percentage = Percentage(res.EarnedPoints, res.TotalPoints)
	res.Approved = res.Percentage >= threshold
	return res
}

// Percentage returns earned/total*100, or 0 when total is not positive.
func Percentage(earned, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(earned) / float64(total) * 100
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
