package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"training_backend/internal/config"
	"training_backend/internal/model"
	"training_backend/internal/repository"
	"training_backend/internal/scenario"
	"training_backend/internal/util"
	"training_backend/pkg/lock"
	"training_backend/pkg/logger"
	"training_backend/pkg/monitoring"
	"training_backend/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EvaluateRequest is a submitted run. The level is named by id, number or
// title; Threshold overrides the level's passing threshold for this call.
type EvaluateRequest struct {
	model.LevelRef
	Trail     []scenario.TrailEntry `json:"trail"`
	Threshold *float64              `json:"threshold,omitempty"`
}

type EvaluationResult struct {
	scenario.Result
	LevelID   uint                        `json:"levelId"`
	Threshold float64                     `json:"threshold"`
	Retention repository.RetentionOutcome `json:"retention,omitempty"`
	// 当前保存的最佳尝试（可能不是本次提交）
	Stored *model.ScenarioAttempt `json:"storedAttempt,omitempty"`
}

type OptimalPathResult struct {
	TrainingID uint   `json:"trainingId"`
	LevelID    uint   `json:"levelId"`
	LevelTitle string `json:"levelTitle"`
	scenario.Path
}

// AttemptStore keeps the best attempt per (learner, level).
type AttemptStore interface {
	ReplaceIfBetter(ctx context.Context, candidate *model.ScenarioAttempt, better repository.BetterFunc) (repository.RetentionOutcome, *model.ScenarioAttempt, error)
}

type ScenarioService struct {
	LevelRepo   *repository.LevelRepository
	AttemptRepo AttemptStore
	Locker      lock.Locker
	Redis       *redis.Client

	mu      sync.RWMutex
	scoring config.ScoringConfig
}

// NewScenarioService wires the submission path. rdb may be nil, in which case
// optimal paths are recomputed on every call.
func NewScenarioService(
	levelRepo *repository.LevelRepository,
	attemptRepo AttemptStore,
	locker lock.Locker,
	rdb *redis.Client,
	scoring config.ScoringConfig,
) *ScenarioService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &ScenarioService{
		LevelRepo:   levelRepo,
		AttemptRepo: attemptRepo,
		Locker:      locker,
		Redis:       rdb,
		scoring:     scoring,
	}
}

// ApplyScoring swaps the scoring settings; used by config hot reload.
func (s *ScenarioService) ApplyScoring(cfg config.ScoringConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoring = cfg
}

func (s *ScenarioService) scoringConfig() config.ScoringConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scoring
}

// Threshold picks the approval threshold: call override, then the level's
// own passing threshold, then the configured default.
func (s *ScenarioService) Threshold(level *model.Level, override *float64) float64 {
	if override != nil {
		return *override
	}
	if level != nil && level.PassingThreshold != nil {
		return *level.PassingThreshold
	}
	if t := s.scoringConfig().DefaultThreshold; t > 0 {
		return t
	}
	return scenario.DefaultThreshold
}

// EvaluateAndStore grades a run and keeps it when it beats the learner's
// stored attempt for the level. The returned result is never nil; on any
// error it is zeroed and not approved.
func (s *ScenarioService) EvaluateAndStore(ctx context.Context, learnerID, trainingID uint, req EvaluateRequest) (*EvaluationResult, error) {
	ctx, span := tracing.Start(ctx, "ScenarioService.EvaluateAndStore",
		attribute.Int64("learner.id", int64(learnerID)),
		attribute.Int64("training.id", int64(trainingID)),
	)
	defer span.End()

	if learnerID == 0 || trainingID == 0 || req.LevelRef.IsEmpty() {
		return rejected(0), fmt.Errorf("%w: learnerId, trainingId and a level reference are required", util.ErrMissingIdentifier)
	}

	level, err := s.LevelRepo.FindByRef(ctx, trainingID, req.LevelRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rejected(0), fmt.Errorf("%w: training %d has no level matching %+v", util.ErrLevelNotFound, trainingID, req.LevelRef)
		}
		tracing.Fail(span, err)
		return rejected(0), fmt.Errorf("resolve level: %w", err)
	}
	span.SetAttributes(attribute.Int64("level.id", int64(level.ID)))

	g := scenario.NewGraph(level.Scenes)
	threshold := s.Threshold(level, req.Threshold)
	res := &EvaluationResult{
		Result:    scenario.Evaluate(g, req.Trail, threshold),
		LevelID:   level.ID,
		Threshold: threshold,
	}
	monitoring.ObserveEvaluation(res.Approved)

	// 空轨迹或空关卡不算一次作答
	if g.Len() == 0 || len(req.Trail) == 0 {
		return res, nil
	}

	candidate := &model.ScenarioAttempt{
		UserID:          learnerID,
		TrainingID:      trainingID,
		LevelID:         level.ID,
		EarnedPoints:    res.EarnedPoints,
		TotalPoints:     res.TotalPoints,
		Percentage:      res.Percentage,
		Approved:        res.Approved,
		SelectedOptions: res.SelectedOptions,
		CompletedAt:     time.Now(),
	}
	outcome, kept, err := s.retain(ctx, candidate)
	if err != nil {
		monitoring.ObserveRetention("error")
		tracing.Fail(span, err)
		logger.Log.Error("Failed to store scenario attempt",
			zap.Uint("userId", learnerID),
			zap.Uint("levelId", level.ID),
			zap.Error(err))
		return rejected(level.ID), err
	}
	monitoring.ObserveRetention(string(outcome))

	res.Retention = outcome
	res.Stored = kept
	return res, nil
}

// retain runs the compare-and-swap under the pair's lock. A unique-index
// violation means another writer inserted first; the comparison is re-run
// once against that row.
func (s *ScenarioService) retain(ctx context.Context, candidate *model.ScenarioAttempt) (repository.RetentionOutcome, *model.ScenarioAttempt, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.scoringConfig().LockTTL())
	defer cancel()

	unlock, err := s.Locker.Lock(lockCtx, attemptLockKey(candidate.UserID, candidate.LevelID))
	if err != nil {
		return "", nil, fmt.Errorf("acquire attempt lock: %w", err)
	}
	defer unlock()

	outcome, kept, err := s.AttemptRepo.ReplaceIfBetter(ctx, candidate, scenario.IsBetter)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		logger.Log.Info("Concurrent attempt insert detected, retrying",
			zap.Uint("userId", candidate.UserID),
			zap.Uint("levelId", candidate.LevelID))
		outcome, kept, err = s.AttemptRepo.ReplaceIfBetter(ctx, candidate, scenario.IsBetter)
	}
	if err != nil {
		return "", nil, fmt.Errorf("replace attempt: %w", err)
	}
	return outcome, kept, nil
}

func attemptLockKey(userID, levelID uint) string {
	return fmt.Sprintf("attempt:%d:%d", userID, levelID)
}

func rejected(levelID uint) *EvaluationResult {
	return &EvaluationResult{
		Result:  scenario.Result{SelectedOptions: []model.SelectedOption{}},
		LevelID: levelID,
	}
}

// GetOptimalPath returns the greedy best-score walk of a level. Results are
// cached in Redis under the level's id and update time, so editing a level
// never serves a stale path.
func (s *ScenarioService) GetOptimalPath(ctx context.Context, trainingID, levelID uint) (*OptimalPathResult, error) {
	ctx, span := tracing.Start(ctx, "ScenarioService.GetOptimalPath",
		attribute.Int64("training.id", int64(trainingID)),
		attribute.Int64("level.id", int64(levelID)),
	)
	defer span.End()

	if trainingID == 0 || levelID == 0 {
		return nil, fmt.Errorf("%w: trainingId and levelId are required", util.ErrMissingIdentifier)
	}
	level, err := s.LevelRepo.FindInTraining(ctx, trainingID, levelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: level %d in training %d", util.ErrLevelNotFound, levelID, trainingID)
		}
		tracing.Fail(span, err)
		return nil, fmt.Errorf("load level: %w", err)
	}

	key := optimalPathKey(level)
	if cached, ok := s.cachedPath(ctx, key); ok {
		return cached, nil
	}

	path := scenario.OptimalPath(scenario.NewGraph(level.Scenes))
	switch path.StopReason {
	case scenario.StopCycle, scenario.StopDangling:
		fields := []zap.Field{
			zap.Uint("levelId", level.ID),
			zap.String("stopReason", string(path.StopReason)),
		}
		if path.NextSceneID != nil {
			fields = append(fields, zap.Int("nextSceneId", *path.NextSceneID))
		}
		logger.Log.Warn("Optimal path walk stopped early", fields...)
	}

	res := &OptimalPathResult{
		TrainingID: trainingID,
		LevelID:    level.ID,
		LevelTitle: level.Title,
		Path:       path,
	}
	s.cachePath(ctx, key, res)
	return res, nil
}

func optimalPathKey(level *model.Level) string {
	return fmt.Sprintf("optimal_path:%d:%d", level.ID, level.UpdatedAt.UnixNano())
}

func (s *ScenarioService) cachedPath(ctx context.Context, key string) (*OptimalPathResult, bool) {
	if s.Redis == nil {
		return nil, false
	}
	raw, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Optimal path cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var res OptimalPathResult
	if err := json.Unmarshal(raw, &res); err != nil {
		logger.Log.Warn("Optimal path cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &res, true
}

func (s *ScenarioService) cachePath(ctx context.Context, key string, res *OptimalPathResult) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, raw, s.scoringConfig().CacheTTL()).Err(); err != nil {
		logger.Log.Warn("Optimal path cache write failed", zap.String("key", key), zap.Error(err))
	}
}
