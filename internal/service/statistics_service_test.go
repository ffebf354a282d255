package service

import (
	"context"
	"testing"
	"time"

	"training_backend/internal/model"
	"training_backend/internal/testutil"
	"training_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenPointAttempt(userID, trainingID, levelID uint, optionID string, points int, approved bool, at time.Time) *model.ScenarioAttempt {
	return &model.ScenarioAttempt{
		UserID:       userID,
		TrainingID:   trainingID,
		LevelID:      levelID,
		EarnedPoints: points,
		TotalPoints:  10,
		Percentage:   float64(points) * 10,
		Approved:     approved,
		SelectedOptions: []model.SelectedOption{
			{SceneID: 1, OptionID: optionID, Points: points},
		},
		CompletedAt: at,
	}
}

func TestStatisticsService_UserTrainingStatistics_NoAttempts(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newStatisticsService(db)

	tr := testutil.SeedTraining(t, db, "support")
	for i := 1; i <= 3; i++ {
		testutil.SeedLevel(t, db, tr.ID, i, "", testutil.TenPointLevel())
	}
	u := testutil.SeedUser(t, db, "Lee", model.Learner)

	stats, err := svc.GetUserTrainingStatistics(ctx, u.ID, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Summary.TotalLevels)
	assert.Equal(t, 0, stats.Summary.Attempted)
	assert.Equal(t, 0, stats.Summary.Approved)
	assert.Equal(t, 3, stats.Summary.Pending)
	assert.Equal(t, 30, stats.Summary.TotalPossibleScore)
	assert.Equal(t, 0.0, stats.Summary.OverallPercentage)
	require.Len(t, stats.Levels, 3)
	for _, l := range stats.Levels {
		assert.False(t, l.Attempted)
		assert.Empty(t, l.Decisions)
		assert.Equal(t, 10, l.TotalPoints)
	}
}

func TestStatisticsService_UserTrainingStatistics_WithAttempt(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newStatisticsService(db)

	tr := testutil.SeedTraining(t, db, "support")
	second := testutil.SeedLevel(t, db, tr.ID, 2, "Escalation", testutil.TenPointLevel())
	first := testutil.SeedLevel(t, db, tr.ID, 1, "Greeting", testutil.TenPointLevel())
	testutil.SeedLevel(t, db, tr.ID, 3, "Closing", testutil.TenPointLevel())
	u := testutil.SeedUser(t, db, "Lee", model.Learner)

	testutil.SeedAttempt(t, db, tenPointAttempt(u.ID, tr.ID, first.ID, "best", 10, true, time.Now()))
	testutil.SeedAttempt(t, db, tenPointAttempt(u.ID, tr.ID, second.ID, "half", 5, false, time.Now()))

	stats, err := svc.GetUserTrainingStatistics(ctx, u.ID, tr.ID)
	require.NoError(t, err)
	require.Len(t, stats.Levels, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{stats.Levels[0].LevelNumber, stats.Levels[1].LevelNumber, stats.Levels[2].LevelNumber})

	l1 := stats.Levels[0]
	assert.True(t, l1.Attempted)
	assert.True(t, l1.Approved)
	require.Len(t, l1.Decisions, 1)
	d := l1.Decisions[0]
	assert.Equal(t, "opening", d.SceneDescription)
	assert.True(t, d.Correct)
	assert.Equal(t, 10, d.SceneMaxPoints)

	sum := stats.Summary
	assert.Equal(t, 2, sum.Attempted)
	assert.Equal(t, 1, sum.Approved)
	assert.Equal(t, 2, sum.Pending)
	assert.Equal(t, 15, sum.TotalEarnedScore)
	assert.Equal(t, 30, sum.TotalPossibleScore)
	assert.InDelta(t, 75.0, sum.AverageScore, 1e-9)
	assert.InDelta(t, 50.0, sum.OverallPercentage, 1e-9)
}

func TestStatisticsService_UserTrainingStatistics_NotFound(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newStatisticsService(db)

	tr := testutil.SeedTraining(t, db, "support")
	u := testutil.SeedUser(t, db, "Lee", model.Learner)

	_, err := svc.GetUserTrainingStatistics(ctx, 999, tr.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
	_, err = svc.GetUserTrainingStatistics(ctx, u.ID, 999)
	assert.ErrorIs(t, err, util.ErrTrainingNotFound)
	_, err = svc.GetUserTrainingStatistics(ctx, 0, tr.ID)
	assert.ErrorIs(t, err, util.ErrMissingIdentifier)
}

func TestStatisticsService_LevelStatistics(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newStatisticsService(db)

	tr := testutil.SeedTraining(t, db, "support")
	lvl := testutil.SeedLevel(t, db, tr.ID, 1, "Greeting", testutil.TenPointLevel())
	alice := testutil.SeedUser(t, db, "Alice", model.Learner)
	bob := testutil.SeedUser(t, db, "Bob", model.Learner)
	carol := testutil.SeedUser(t, db, "Carol", model.Learner)
	for _, u := range []*model.User{alice, bob, carol} {
		testutil.Enroll(t, db, tr.ID, u.ID, model.Learner)
	}

	now := time.Now()
	testutil.SeedAttempt(t, db, tenPointAttempt(alice.ID, tr.ID, lvl.ID, "best", 10, true, now.Add(-time.Hour)))
	testutil.SeedAttempt(t, db, tenPointAttempt(bob.ID, tr.ID, lvl.ID, "half", 5, false, now))

	stats, err := svc.GetLevelStatistics(ctx, tr.ID, lvl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.EnrolledLearners)
	assert.Equal(t, 2, stats.LearnersAttempted)
	assert.Equal(t, 1, stats.LearnersApproved)
	assert.InDelta(t, 200.0/3, stats.CompletionRate, 1e-9)
	assert.InDelta(t, 50.0, stats.ApprovalRate, 1e-9)
	assert.Equal(t, 10, stats.LevelMaxScore)
	assert.InDelta(t, 7.5, stats.Scores.AverageScore, 1e-9)
	assert.Equal(t, 5, stats.Scores.MinScore)
	assert.Equal(t, 10, stats.Scores.MaxScore)
	assert.InDelta(t, 75.0, stats.Scores.AveragePercentage, 1e-9)

	// 终止场景不出现在频次表中
	require.Len(t, stats.OptionFrequency, 1)
	freq := stats.OptionFrequency[0]
	assert.Equal(t, 1, freq.SceneID)
	require.Len(t, freq.Options, 2)
	for _, o := range freq.Options {
		assert.Equal(t, 1, o.Count, o.Key)
		assert.InDelta(t, 50.0, o.Percentage, 1e-9)
	}

	require.Len(t, stats.RecentAttempts, 2)
	assert.Equal(t, "Bob", stats.RecentAttempts[0].Name)
	assert.Equal(t, "bob@example.com", stats.RecentAttempts[0].Email)
	assert.Equal(t, 5, stats.RecentAttempts[0].Score)

	limited, err := svc.GetLevelStatistics(ctx, tr.ID, lvl.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited.RecentAttempts, 1)
}

func TestStatisticsService_LevelStatistics_EmptyAndUnknownOptions(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newStatisticsService(db)

	tr := testutil.SeedTraining(t, db, "support")
	other := testutil.SeedTraining(t, db, "other")
	lvl := testutil.SeedLevel(t, db, tr.ID, 1, "Greeting", testutil.TenPointLevel())

	stats, err := svc.GetLevelStatistics(ctx, tr.ID, lvl.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, stats.LearnersAttempted)
	assert.Zero(t, stats.CompletionRate)
	require.Len(t, stats.OptionFrequency, 1)
	assert.Len(t, stats.OptionFrequency[0].Options, 2)
	assert.Empty(t, stats.RecentAttempts)

	u := testutil.SeedUser(t, db, "Lee", model.Learner)
	testutil.Enroll(t, db, tr.ID, u.ID, model.Learner)
	testutil.SeedAttempt(t, db, &model.ScenarioAttempt{
		UserID:          u.ID,
		TrainingID:      tr.ID,
		LevelID:         lvl.ID,
		SelectedOptions: []model.SelectedOption{{SceneID: 1, Points: 3}},
	})
	stats, err = svc.GetLevelStatistics(ctx, tr.ID, lvl.ID, 0)
	require.NoError(t, err)
	require.Len(t, stats.OptionFrequency[0].Options, 3)
	assert.Equal(t, "unknown", stats.OptionFrequency[0].Options[2].Key)
	assert.Equal(t, 1, stats.OptionFrequency[0].Options[2].Count)

	_, err = svc.GetLevelStatistics(ctx, other.ID, lvl.ID, 0)
	assert.ErrorIs(t, err, util.ErrLevelNotFound)
}

func TestStatisticsService_LevelStatistics_OnlyEnrolledLearners(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newStatisticsService(db)

	tr := testutil.SeedTraining(t, db, "support")
	lvl := testutil.SeedLevel(t, db, tr.ID, 1, "Greeting", testutil.TenPointLevel())
	learner := testutil.SeedUser(t, db, "Lana", model.Learner)
	coach := testutil.SeedUser(t, db, "Coach", model.Instructor)
	outsider := testutil.SeedUser(t, db, "Outsider", model.Learner)
	testutil.Enroll(t, db, tr.ID, learner.ID, model.Learner)
	testutil.Enroll(t, db, tr.ID, coach.ID, model.Instructor)

	now := time.Now()
	testutil.SeedAttempt(t, db, tenPointAttempt(coach.ID, tr.ID, lvl.ID, "best", 10, true, now))
	testutil.SeedAttempt(t, db, tenPointAttempt(outsider.ID, tr.ID, lvl.ID, "best", 10, true, now))

	stats, err := svc.GetLevelStatistics(ctx, tr.ID, lvl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.EnrolledLearners)
	assert.Zero(t, stats.LearnersAttempted)
	assert.Zero(t, stats.LearnersApproved)
	assert.Zero(t, stats.CompletionRate)
	assert.Zero(t, stats.Scores.MaxScore)
	assert.Empty(t, stats.RecentAttempts)
	for _, o := range stats.OptionFrequency[0].Options {
		assert.Zero(t, o.Count, o.Key)
	}

	progress, err := svc.GetTrainingProgress(ctx, tr.ID)
	require.NoError(t, err)
	assert.Zero(t, progress.ApprovedLevels)

	// 学员作答后两个聚合口径一致
	testutil.SeedAttempt(t, db, tenPointAttempt(learner.ID, tr.ID, lvl.ID, "half", 5, false, now))
	stats, err = svc.GetLevelStatistics(ctx, tr.ID, lvl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LearnersAttempted)
	assert.Zero(t, stats.LearnersApproved)
	assert.InDelta(t, 100.0, stats.CompletionRate, 1e-9)
	assert.Equal(t, 5, stats.Scores.MaxScore)
	require.Len(t, stats.RecentAttempts, 1)
	assert.Equal(t, learner.ID, stats.RecentAttempts[0].UserID)
}

func TestStatisticsService_TrainingProgress(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newStatisticsService(db)

	tr := testutil.SeedTraining(t, db, "support")
	empty := testutil.SeedTraining(t, db, "empty")
	l1 := testutil.SeedLevel(t, db, tr.ID, 1, "Greeting", testutil.TenPointLevel())
	l2 := testutil.SeedLevel(t, db, tr.ID, 2, "Escalation", testutil.TenPointLevel())

	alice := testutil.SeedUser(t, db, "Alice", model.Learner)
	bob := testutil.SeedUser(t, db, "Bob", model.Learner)
	coach := testutil.SeedUser(t, db, "Coach", model.Instructor)
	testutil.Enroll(t, db, tr.ID, alice.ID, model.Learner)
	testutil.Enroll(t, db, tr.ID, bob.ID, model.Learner)
	testutil.Enroll(t, db, tr.ID, coach.ID, model.Instructor)

	now := time.Now()
	testutil.SeedAttempt(t, db, tenPointAttempt(alice.ID, tr.ID, l1.ID, "best", 10, true, now))
	testutil.SeedAttempt(t, db, tenPointAttempt(alice.ID, tr.ID, l2.ID, "best", 10, true, now))
	testutil.SeedAttempt(t, db, tenPointAttempt(bob.ID, tr.ID, l1.ID, "best", 10, true, now))
	testutil.SeedAttempt(t, db, tenPointAttempt(coach.ID, tr.ID, l1.ID, "best", 10, true, now))

	p, err := svc.GetTrainingProgress(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.TotalLevels)
	assert.Equal(t, int64(2), p.EnrolledLearners)
	assert.Equal(t, int64(3), p.ApprovedLevels)
	assert.InDelta(t, 75.0, p.AverageCompletion, 1e-9)
	require.NotNil(t, p.LearnersCompleted)
	assert.Equal(t, int64(1), *p.LearnersCompleted)

	all, err := svc.GetAllTrainingProgress(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, tr.ID, all[0].TrainingID)
	assert.InDelta(t, 75.0, all[0].AverageCompletion, 1e-9)
	assert.Equal(t, empty.ID, all[1].TrainingID)
	assert.Zero(t, all[1].AverageCompletion)
	assert.Nil(t, all[1].LearnersCompleted)

	_, err = svc.GetTrainingProgress(ctx, 999)
	assert.ErrorIs(t, err, util.ErrTrainingNotFound)
}

func TestStatisticsService_StorageFailureYieldsZeroedResults(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newStatisticsService(db)

	tr := testutil.SeedTraining(t, db, "support")
	lvl := testutil.SeedLevel(t, db, tr.ID, 1, "Greeting", testutil.TenPointLevel())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	all, err := svc.GetAllTrainingProgress(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	stats, err := svc.GetLevelStatistics(ctx, tr.ID, lvl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, lvl.ID, stats.LevelID)
	assert.Zero(t, stats.LearnersAttempted)
}
