package service

import (
	"context"
	"strings"
	"testing"

	"training_backend/internal/model"
	"training_backend/internal/repository"
	"training_backend/internal/testutil"
	"training_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importFixture = `
trainings:
  - title: Customer support
    description: Handling difficult calls
    levels:
      - levelNumber: 1
        title: Greeting
        passingThreshold: 70
        scenes:
          - id: 1
            description: The customer is angry
            options:
              - id: calm
                description: Stay calm and listen
                points: 10
                next: 2
              - id: argue
                description: Argue back
                points: -5
                next: 2
          - id: 2
            description: Call ends
            terminal: true
users:
  - name: Lee
    email: lee@example.com
    trainings: [Customer support]
  - name: Coach
    email: coach@example.com
    role: instructor
    trainings: [Customer support]
`

func TestImportService_Import(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := NewImportService(db)

	sum, err := svc.Import(ctx, strings.NewReader(importFixture))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Trainings)
	assert.Equal(t, 1, sum.LevelsCreated)
	assert.Equal(t, 2, sum.Users)
	assert.Equal(t, 2, sum.Enrollments)

	tr, err := repository.NewTrainingRepository(db).FindByTitle(ctx, "Customer support")
	require.NoError(t, err)
	lvl, err := repository.NewLevelRepository(db).FindByNumber(ctx, tr.ID, 1)
	require.NoError(t, err)
	require.Len(t, lvl.Scenes, 2)
	assert.Equal(t, -5, lvl.Scenes[0].Options[1].Points)
	require.NotNil(t, lvl.PassingThreshold)
	assert.Equal(t, 70.0, *lvl.PassingThreshold)

	learners, err := repository.NewEnrollmentRepository(db).CountByRole(ctx, tr.ID, model.Learner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), learners)

	// 再次导入应更新而不是重复创建
	sum, err = svc.Import(ctx, strings.NewReader(importFixture))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.LevelsCreated)
	assert.Equal(t, 1, sum.LevelsUpdated)
}

func TestImportService_RejectsInvalidGraph(t *testing.T) {
	db := testutil.DB(t)
	svc := NewImportService(db)

	_, err := svc.Import(context.Background(), strings.NewReader(`
trainings:
  - title: Broken
    levels:
      - levelNumber: 1
        title: Dangling
        scenes:
          - id: 1
            options:
              - description: nowhere
                points: 1
                next: 9
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing scene 9")

	var count int64
	require.NoError(t, db.Model(&model.Training{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportService_MalformedDocument(t *testing.T) {
	svc := NewImportService(testutil.DB(t))

	_, err := svc.Import(context.Background(), strings.NewReader("trainings:\n  - title: x\n    unknownField: 1\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInvalidScenario)

	_, err = svc.Import(context.Background(), strings.NewReader("trainings:\n  - description: no title\n"))
	assert.ErrorIs(t, err, util.ErrInvalidScenario)
}
