package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training_backend/internal/model"
)

func TestGraph_MaxScore(t *testing.T) {
	scenes := []model.Scene{
		{ID: 1, Options: []model.Option{{Points: 4}, {Points: 7}}, Bonus: 2},
		{ID: 2, Options: []model.Option{{Points: -5}}, Bonus: 1},
		{ID: 3, Bonus: 3},
		{ID: 4, Options: []model.Option{{Points: 50}}, Terminal: true},
	}
	g := NewGraph(scenes)

	// 9 + 0 (floored) + 3 (bonus only) + 0 (terminal)
	assert.Equal(t, 12, g.MaxScore())
}

func TestGraph_StartFallsBackToFirstScene(t *testing.T) {
	g := NewGraph([]model.Scene{{ID: 7}, {ID: 3}})
	s, ok := g.Start()
	require.True(t, ok)
	assert.Equal(t, 7, s.ID)

	_, ok = NewGraph(nil).Start()
	assert.False(t, ok)
}

func TestGraph_DuplicateIDsKeepFirst(t *testing.T) {
	g := NewGraph([]model.Scene{
		{ID: 1, Description: "first"},
		{ID: 1, Description: "second"},
	})
	assert.Equal(t, 1, g.Len())
	s, _ := g.Scene(1)
	assert.Equal(t, "first", s.Description)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(twoSceneLevel()))

	err := Validate(nil)
	assert.ErrorIs(t, err, ErrInvalidGraph)

	err = Validate([]model.Scene{{ID: 1}, {ID: 1}})
	assert.ErrorIs(t, err, ErrInvalidGraph)

	err = Validate([]model.Scene{{ID: 1, Options: []model.Option{{Next: intp(9)}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing scene 9")
}
