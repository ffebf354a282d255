package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"training_backend/internal/model"
	"training_backend/internal/repository"
	"training_backend/internal/scenario"
	"training_backend/internal/util"
	"training_backend/pkg/logger"
	"training_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const unknownOptionKey = "unknown"

// StatisticsService derives read-only analytics from stored attempts. Storage
// failures are logged and answered with zeroed structures; only missing
// identifiers and unknown entities are reported as errors.
type StatisticsService struct {
	TrainingRepo   *repository.TrainingRepository
	LevelRepo      *repository.LevelRepository
	AttemptRepo    *repository.ScenarioAttemptRepository
	EnrollmentRepo *repository.EnrollmentRepository
	UserRepo       *repository.UserRepository

	mu          sync.RWMutex
	recentLimit int
}

func NewStatisticsService(
	trainingRepo *repository.TrainingRepository,
	levelRepo *repository.LevelRepository,
	attemptRepo *repository.ScenarioAttemptRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	userRepo *repository.UserRepository,
	recentLimit int,
) *StatisticsService {
	s := &StatisticsService{
		TrainingRepo:   trainingRepo,
		LevelRepo:      levelRepo,
		AttemptRepo:    attemptRepo,
		EnrollmentRepo: enrollmentRepo,
		UserRepo:       userRepo,
	}
	s.SetRecentLimit(recentLimit)
	return s
}

// SetRecentLimit changes the default number of recent attempts returned by
// GetLevelStatistics.
func (s *StatisticsService) SetRecentLimit(n int) {
	if n <= 0 {
		n = 10
	}
	s.mu.Lock()
	s.recentLimit = n
	s.mu.Unlock()
}

func (s *StatisticsService) defaultRecent() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentLimit
}

// GetLevelStatistics aggregates the stored attempts of a level made by users
// enrolled as learners; instructors and unenrolled users are ignored so the
// rates stay relative to EnrolledLearners. recent <= 0 uses the configured
// default.
func (s *StatisticsService) GetLevelStatistics(ctx context.Context, trainingID, levelID uint, recent int) (*model.LevelStatistics, error) {
	ctx, span := tracing.Start(ctx, "StatisticsService.GetLevelStatistics",
		attribute.Int64("training.id", int64(trainingID)),
		attribute.Int64("level.id", int64(levelID)),
	)
	defer span.End()

	if trainingID == 0 || levelID == 0 {
		return nil, fmt.Errorf("%w: trainingId and levelId are required", util.ErrMissingIdentifier)
	}
	if recent <= 0 {
		recent = s.defaultRecent()
	}

	level, err := s.LevelRepo.FindInTraining(ctx, trainingID, levelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: level %d in training %d", util.ErrLevelNotFound, levelID, trainingID)
		}
		logger.Log.Error("Failed to load level for statistics", zap.Uint("levelId", levelID), zap.Error(err))
		tracing.Fail(span, err)
		return &model.LevelStatistics{
			TrainingID:      trainingID,
			LevelID:         levelID,
			OptionFrequency: []model.SceneFrequency{},
			RecentAttempts:  []model.RecentAttempt{},
		}, nil
	}

	g := scenario.NewGraph(level.Scenes)
	stats := emptyLevelStatistics(level, g)

	var (
		enrolled    int64
		attempts    []model.ScenarioAttempt
		recentRows  []model.ScenarioAttempt
		recentUsers map[uint]model.User
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := s.EnrollmentRepo.CountByRole(egCtx, trainingID, model.Learner)
		enrolled = n
		return err
	})
	eg.Go(func() error {
		rows, err := s.AttemptRepo.FindLearnerAttempts(egCtx, trainingID, level.ID)
		attempts = rows
		return err
	})
	eg.Go(func() error {
		rows, err := s.AttemptRepo.FindRecentLearnerAttempts(egCtx, trainingID, level.ID, recent)
		if err != nil {
			return err
		}
		recentRows = rows
		ids := make([]uint, 0, len(rows))
		for _, a := range rows {
			ids = append(ids, a.UserID)
		}
		recentUsers, err = s.UserRepo.FindByIDs(egCtx, ids)
		return err
	})
	if err := eg.Wait(); err != nil {
		logger.Log.Error("Failed to aggregate level statistics",
			zap.Uint("trainingId", trainingID),
			zap.Uint("levelId", level.ID),
			zap.Error(err))
		tracing.Fail(span, err)
		return stats, nil
	}

	stats.EnrolledLearners = enrolled
	fillLevelStatistics(stats, attempts)

	for _, a := range recentRows {
		score := derivedScore(&a, stats.LevelMaxScore)
		u := recentUsers[a.UserID]
		stats.RecentAttempts = append(stats.RecentAttempts, model.RecentAttempt{
			UserID:      a.UserID,
			Name:        u.Name,
			Email:       u.Email,
			CompletedAt: a.CompletedAt,
			Score:       score,
			Percentage:  scenario.Percentage(score, stats.LevelMaxScore),
			Approved:    a.Approved,
		})
	}
	return stats, nil
}

// emptyLevelStatistics is the "no attempts yet" answer: the level's max score
// and a frequency table listing every option with a zero count.
func emptyLevelStatistics(level *model.Level, g *scenario.Graph) *model.LevelStatistics {
	stats := &model.LevelStatistics{
		TrainingID:      level.TrainingID,
		LevelID:         level.ID,
		LevelNumber:     level.LevelNumber,
		LevelTitle:      level.Title,
		LevelMaxScore:   g.MaxScore(),
		OptionFrequency: []model.SceneFrequency{},
		RecentAttempts:  []model.RecentAttempt{},
	}
	for _, sc := range g.Scenes() {
		if sc.Terminal {
			continue
		}
		freq := model.SceneFrequency{
			SceneID:     sc.ID,
			Description: sc.Description,
			Options:     make([]model.OptionFrequency, 0, len(sc.Options)),
		}
		seen := make(map[string]struct{}, len(sc.Options))
		for _, o := range sc.Options {
			key := optionKey(o.ID, o.Description)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			freq.Options = append(freq.Options, model.OptionFrequency{
				Key:         key,
				OptionID:    o.ID,
				Description: o.Description,
			})
		}
		stats.OptionFrequency = append(stats.OptionFrequency, freq)
	}
	return stats
}

func fillLevelStatistics(stats *model.LevelStatistics, attempts []model.ScenarioAttempt) {
	if len(attempts) == 0 {
		return
	}

	attempted := make(map[uint]struct{}, len(attempts))
	approved := make(map[uint]struct{}, len(attempts))
	sceneIdx := make(map[int]int, len(stats.OptionFrequency))
	for i, f := range stats.OptionFrequency {
		sceneIdx[f.SceneID] = i
	}

	var sumScore int
	var sumPct float64
	for i := range attempts {
		a := &attempts[i]
		attempted[a.UserID] = struct{}{}
		if a.Approved {
			approved[a.UserID] = struct{}{}
		}

		score := derivedScore(a, stats.LevelMaxScore)
		pct := scenario.Percentage(score, stats.LevelMaxScore)
		sumScore += score
		sumPct += pct
		if i == 0 || score < stats.Scores.MinScore {
			stats.Scores.MinScore = score
		}
		if i == 0 || score > stats.Scores.MaxScore {
			stats.Scores.MaxScore = score
		}
		if i == 0 || pct < stats.Scores.MinPercentage {
			stats.Scores.MinPercentage = pct
		}
		if i == 0 || pct > stats.Scores.MaxPercentage {
			stats.Scores.MaxPercentage = pct
		}

		counted := make(map[int]struct{}, len(a.SelectedOptions))
		for _, sel := range a.SelectedOptions {
			idx, ok := sceneIdx[sel.SceneID]
			if !ok {
				continue
			}
			// 每次尝试每个场景只计一次
			if _, dup := counted[sel.SceneID]; dup {
				continue
			}
			counted[sel.SceneID] = struct{}{}
			countOption(&stats.OptionFrequency[idx], sel)
		}
	}

	n := float64(len(attempts))
	stats.Scores.AverageScore = float64(sumScore) / n
	stats.Scores.AveragePercentage = sumPct / n
	stats.LearnersAttempted = len(attempted)
	stats.LearnersApproved = len(approved)
	stats.CompletionRate = ratio(int64(stats.LearnersAttempted), stats.EnrolledLearners)
	stats.ApprovalRate = ratio(int64(stats.LearnersApproved), int64(stats.LearnersAttempted))

	for i := range stats.OptionFrequency {
		for j := range stats.OptionFrequency[i].Options {
			o := &stats.OptionFrequency[i].Options[j]
			o.Percentage = float64(o.Count) / n * 100
		}
	}
}

func countOption(freq *model.SceneFrequency, sel model.SelectedOption) {
	key := optionKey(sel.OptionID, sel.Description)
	for i := range freq.Options {
		if freq.Options[i].Key == key {
			freq.Options[i].Count++
			return
		}
	}
	freq.Options = append(freq.Options, model.OptionFrequency{
		Key:         key,
		OptionID:    sel.OptionID,
		Description: sel.Description,
		Count:       1,
	})
}

// optionKey identifies an option by id, then description, then "unknown".
func optionKey(id, description string) string {
	switch {
	case id != "":
		return id
	case description != "":
		return description
	}
	return unknownOptionKey
}

// derivedScore re-adds the stored option points and clamps them to the
// level's current maximum.
func derivedScore(a *model.ScenarioAttempt, maxScore int) int {
	score := a.PointsSum()
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// ratio returns part/whole*100, or 0 when whole is not positive.
func ratio(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// GetUserTrainingStatistics reports a learner's stored attempt for every
// level of a training in level-number order. Unattempted levels still count
// towards the possible score.
func (s *StatisticsService) GetUserTrainingStatistics(ctx context.Context, userID, trainingID uint) (*model.UserTrainingStatistics, error) {
	ctx, span := tracing.Start(ctx, "StatisticsService.GetUserTrainingStatistics",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("training.id", int64(trainingID)),
	)
	defer span.End()

	if userID == 0 || trainingID == 0 {
		return nil, fmt.Errorf("%w: userId and trainingId are required", util.ErrMissingIdentifier)
	}

	out := &model.UserTrainingStatistics{
		UserID:     userID,
		TrainingID: trainingID,
		Levels:     []model.UserLevelStatistics{},
	}
	if err := s.checkTrainingAndUser(ctx, trainingID, userID); err != nil {
		if util.IsNotFound(err) {
			return nil, err
		}
		logger.Log.Error("Failed to load user statistics subjects", zap.Uint("userId", userID), zap.Error(err))
		tracing.Fail(span, err)
		return out, nil
	}

	levels, err := s.LevelRepo.ListByTraining(ctx, trainingID)
	if err != nil {
		logger.Log.Error("Failed to list training levels", zap.Uint("trainingId", trainingID), zap.Error(err))
		tracing.Fail(span, err)
		return out, nil
	}
	attempts, err := s.AttemptRepo.FindByUserAndTraining(ctx, userID, trainingID)
	if err != nil {
		logger.Log.Error("Failed to load user attempts", zap.Uint("userId", userID), zap.Error(err))
		tracing.Fail(span, err)
		return out, nil
	}

	// 结果已按百分比倒序，同一关卡取第一条即最佳
	best := make(map[uint]*model.ScenarioAttempt, len(attempts))
	for i := range attempts {
		if _, ok := best[attempts[i].LevelID]; !ok {
			best[attempts[i].LevelID] = &attempts[i]
		}
	}

	sum := &out.Summary
	sum.TotalLevels = len(levels)
	var pctSum float64
	for i := range levels {
		level := &levels[i]
		g := scenario.NewGraph(level.Scenes)
		maxScore := g.MaxScore()
		sum.TotalPossibleScore += maxScore

		row := model.UserLevelStatistics{
			LevelID:     level.ID,
			LevelNumber: level.LevelNumber,
			LevelTitle:  level.Title,
			TotalPoints: maxScore,
			Decisions:   []model.Decision{},
		}
		if a, ok := best[level.ID]; ok {
			completedAt := a.CompletedAt
			row.Attempted = true
			row.Approved = a.Approved
			row.EarnedPoints = a.EarnedPoints
			row.TotalPoints = a.TotalPoints
			row.Percentage = a.Percentage
			row.CompletedAt = &completedAt
			row.Decisions = decisions(g, a.SelectedOptions)

			sum.Attempted++
			if a.Approved {
				sum.Approved++
			}
			sum.TotalEarnedScore += min(max(a.EarnedPoints, 0), maxScore)
			pctSum += a.Percentage
		}
		out.Levels = append(out.Levels, row)
	}

	sum.Pending = sum.TotalLevels - sum.Approved
	if sum.Attempted > 0 {
		sum.AverageScore = pctSum / float64(sum.Attempted)
	}
	sum.OverallPercentage = scenario.Percentage(sum.TotalEarnedScore, sum.TotalPossibleScore)
	return out, nil
}

func (s *StatisticsService) checkTrainingAndUser(ctx context.Context, trainingID, userID uint) error {
	if _, err := s.TrainingRepo.FindByID(ctx, trainingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", util.ErrTrainingNotFound, trainingID)
		}
		return err
	}
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", util.ErrUserNotFound, userID)
		}
		return err
	}
	return nil
}

func decisions(g *scenario.Graph, selected []model.SelectedOption) []model.Decision {
	out := make([]model.Decision, 0, len(selected))
	for _, sel := range selected {
		d := model.Decision{
			SceneID:     sel.SceneID,
			OptionID:    sel.OptionID,
			Description: sel.Description,
			Points:      sel.Points,
			Correct:     sel.Points > 0,
		}
		if sc, ok := g.Scene(sel.SceneID); ok {
			d.SceneDescription = sc.Description
			d.SceneMaxPoints = scenario.SceneMaxPoints(sc)
		}
		out = append(out, d)
	}
	return out
}

// GetTrainingProgress reports progress for one training, including how many
// learners have passed every level.
func (s *StatisticsService) GetTrainingProgress(ctx context.Context, trainingID uint) (*model.TrainingProgress, error) {
	ctx, span := tracing.Start(ctx, "StatisticsService.GetTrainingProgress",
		attribute.Int64("training.id", int64(trainingID)),
	)
	defer span.End()

	if trainingID == 0 {
		return nil, fmt.Errorf("%w: trainingId is required", util.ErrMissingIdentifier)
	}
	training, err := s.TrainingRepo.FindByID(ctx, trainingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", util.ErrTrainingNotFound, trainingID)
		}
		logger.Log.Error("Failed to load training", zap.Uint("trainingId", trainingID), zap.Error(err))
		tracing.Fail(span, err)
		return &model.TrainingProgress{TrainingID: trainingID}, nil
	}

	list, err := s.progress(ctx, []model.Training{*training})
	if err != nil {
		logger.Log.Error("Failed to aggregate training progress", zap.Uint("trainingId", trainingID), zap.Error(err))
		tracing.Fail(span, err)
		return &model.TrainingProgress{TrainingID: trainingID, Title: training.Title}, nil
	}
	p := list[0]

	perLearner, err := s.AttemptRepo.ApprovedCountsByLearner(ctx, trainingID)
	if err != nil {
		logger.Log.Error("Failed to count learner approvals", zap.Uint("trainingId", trainingID), zap.Error(err))
		return &p, nil
	}
	var completed int64
	if p.TotalLevels > 0 {
		for _, n := range perLearner {
			if n >= p.TotalLevels {
				completed++
			}
		}
	}
	p.LearnersCompleted = &completed
	return &p, nil
}

// GetAllTrainingProgress reports progress for every training with three
// grouped queries regardless of the number of trainings or learners.
func (s *StatisticsService) GetAllTrainingProgress(ctx context.Context) ([]model.TrainingProgress, error) {
	ctx, span := tracing.Start(ctx, "StatisticsService.GetAllTrainingProgress")
	defer span.End()

	trainings, err := s.TrainingRepo.List(ctx)
	if err != nil {
		logger.Log.Error("Failed to list trainings", zap.Error(err))
		tracing.Fail(span, err)
		return []model.TrainingProgress{}, nil
	}
	list, err := s.progress(ctx, trainings)
	if err != nil {
		logger.Log.Error("Failed to aggregate training progress", zap.Error(err))
		tracing.Fail(span, err)
		list = make([]model.TrainingProgress, 0, len(trainings))
		for _, t := range trainings {
			list = append(list, model.TrainingProgress{TrainingID: t.ID, Title: t.Title})
		}
	}
	return list, nil
}

func (s *StatisticsService) progress(ctx context.Context, trainings []model.Training) ([]model.TrainingProgress, error) {
	out := make([]model.TrainingProgress, 0, len(trainings))
	if len(trainings) == 0 {
		return out, nil
	}
	ids := make([]uint, 0, len(trainings))
	for _, t := range trainings {
		ids = append(ids, t.ID)
	}

	var levelCounts, enrolledCounts, approvedCounts map[uint]int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		levelCounts, err = s.LevelRepo.CountGroupedByTraining(egCtx, ids...)
		return err
	})
	eg.Go(func() (err error) {
		enrolledCounts, err = s.EnrollmentRepo.CountByRoleGrouped(egCtx, model.Learner, ids...)
		return err
	})
	eg.Go(func() (err error) {
		approvedCounts, err = s.AttemptRepo.ApprovedCountsByTraining(egCtx, ids...)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, t := range trainings {
		p := model.TrainingProgress{
			TrainingID:       t.ID,
			Title:            t.Title,
			TotalLevels:      levelCounts[t.ID],
			EnrolledLearners: enrolledCounts[t.ID],
			ApprovedLevels:   approvedCounts[t.ID],
		}
		p.AverageCompletion = ratio(p.ApprovedLevels, p.EnrolledLearners*p.TotalLevels)
		out = append(out, p)
	}
	return out, nil
}
