package scenario

import (
	"math"

	"training_backend/internal/model"
)

const percentageEpsilon = 1e-9

// IsBetter reports whether candidate should replace stored as the learner's
// kept attempt. A nil stored attempt is always beaten. Ties keep stored.
//
// Order: newly approved beats not approved; with the same approval state a
// higher percentage wins, then more earned points.
func IsBetter(candidate, stored *model.ScenarioAttempt) bool {
	if candidate == nil {
		return false
	}
	if stored == nil {
		return true
	}
	if candidate.Approved != stored.Approved {
		return candidate.Approved
	}
	if math.Abs(candidate.Percentage-stored.Percentage) > percentageEpsilon {
		return candidate.Percentage > stored.Percentage
	}
	return candidate.EarnedPoints > stored.EarnedPoints
}

// Best returns the attempt that wins IsBetter against all others, or nil.
func Best(attempts []model.ScenarioAttempt) *model.ScenarioAttempt {
	var best *model.ScenarioAttempt
	for i := range attempts {
		if IsBetter(&attempts[i], best) {
			best = &attempts[i]
		}
	}
	return best
}
