package scenario

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"training_backend/internal/model"
)

func intp(v int) *int { return &v }

// twoSceneLevel: scene 1 offers 10 or 5 points, both leading to terminal scene 2.
func twoSceneLevel() []model.Scene {
	return []model.Scene{
		{
			ID:          1,
			Description: "customer complains",
			Options: []model.Option{
				{ID: "a", Description: "apologise and fix", Points: 10, Next: intp(2)},
				{ID: "b", Description: "escalate", Points: 5, Next: intp(2)},
			},
		},
		{ID: 2, Description: "end", Terminal: true},
	}
}

func parseTrail(t *testing.T, raw string) []TrailEntry {
	t.Helper()
	var trail []TrailEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &trail))
	return trail
}
