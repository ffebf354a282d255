package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training_backend/internal/model"
)

func TestOptimalPath_TwoSceneLevel(t *testing.T) {
	p := OptimalPath(NewGraph(twoSceneLevel()))

	assert.Equal(t, 10, p.TotalMaxScore)
	assert.Equal(t, 10, p.LevelMaxScore)
	assert.Equal(t, StopTerminal, p.StopReason)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "a", p.Steps[0].ChosenOption.ID)
	require.Len(t, p.Steps[0].Alternatives, 1)
	assert.Equal(t, "b", p.Steps[0].Alternatives[0].ID)
	assert.True(t, p.Steps[1].Terminal)
	assert.Equal(t, 0, p.Steps[1].Total)
}

func TestOptimalPath_StopsOnCycle(t *testing.T) {
	g := NewGraph([]model.Scene{
		{ID: 1, Options: []model.Option{{Points: 3, Next: intp(2)}}},
		{ID: 2, Options: []model.Option{{Points: 4, Next: intp(1)}}, Bonus: 1},
	})
	p := OptimalPath(g)

	assert.Equal(t, StopCycle, p.StopReason)
	assert.Equal(t, 8, p.TotalMaxScore)
	require.NotNil(t, p.NextSceneID)
	assert.Equal(t, 1, *p.NextSceneID)
}

func TestOptimalPath_DanglingAndNoOptions(t *testing.T) {
	dangling := OptimalPath(NewGraph([]model.Scene{
		{ID: 1, Options: []model.Option{{Points: 2, Next: intp(42)}}},
	}))
	assert.Equal(t, StopDangling, dangling.StopReason)
	assert.Equal(t, 2, dangling.TotalMaxScore)

	noOpts := OptimalPath(NewGraph([]model.Scene{
		{ID: 1, Options: []model.Option{{Points: 1, Next: intp(2)}}},
		{ID: 2, Bonus: 5},
	}))
	assert.Equal(t, StopNoOptions, noOpts.StopReason)
	assert.Equal(t, 6, noOpts.TotalMaxScore)
}

func TestOptimalPath_TiesAndNegativeBonus(t *testing.T) {
	p := OptimalPath(NewGraph([]model.Scene{
		{ID: 1, Bonus: -20, Options: []model.Option{
			{ID: "first", Points: 5},
			{ID: "second", Points: 5},
			{ID: "low", Points: 1},
		}},
	}))
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "first", p.Steps[0].ChosenOption.ID)
	assert.Equal(t, 0, p.Steps[0].Total)
	assert.Equal(t, []string{"second", "low"}, []string{p.Steps[0].Alternatives[0].ID, p.Steps[0].Alternatives[1].ID})
	assert.Equal(t, StopEndOfBranch, p.StopReason)
}

func TestOptimalPath_BoundsLearnerScore(t *testing.T) {
	g := NewGraph(twoSceneLevel())
	p := OptimalPath(g)
	for _, raw := range []string{
		`[{"sceneId":1,"optionIndex":0}]`,
		`[{"sceneId":1,"optionIndex":1}]`,
		`[{"sceneId":1,"points":1000}]`,
	} {
		res := Evaluate(g, parseTrail(t, raw), DefaultThreshold)
		assert.GreaterOrEqual(t, p.TotalMaxScore, res.EarnedPoints)
	}
}

func TestOptimalPath_EmptyGraph(t *testing.T) {
	p := OptimalPath(NewGraph(nil))
	assert.Equal(t, StopEmpty, p.StopReason)
	assert.Empty(t, p.Steps)
}
