package service

import (
	"context"
	"errors"
	"fmt"

	"training_backend/internal/model"
	"training_backend/internal/repository"
	"training_backend/internal/scenario"
	"training_backend/internal/util"
	"training_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LevelService struct {
	LevelRepo    *repository.LevelRepository
	TrainingRepo *repository.TrainingRepository
}

func NewLevelService(levelRepo *repository.LevelRepository, trainingRepo *repository.TrainingRepository) *LevelService {
	return &LevelService{
		LevelRepo:    levelRepo,
		TrainingRepo: trainingRepo,
	}
}

type LevelRequest struct {
	LevelNumber      int           `json:"levelNumber" yaml:"levelNumber" binding:"required,min=1"`
	Title            string        `json:"title" yaml:"title" binding:"required"`
	Description      string        `json:"description" yaml:"description"`
	PassingThreshold *float64      `json:"passingThreshold,omitempty" yaml:"passingThreshold,omitempty"`
	Scenes           []model.Scene `json:"scenes" yaml:"scenes" binding:"required"`
}

// Validate 校验关卡定义：场景图合法、通过线在 [0,100]
func (r LevelRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("%w: title required", util.ErrInvalidScenario)
	}
	if r.LevelNumber <= 0 {
		return fmt.Errorf("%w: levelNumber must be positive", util.ErrInvalidScenario)
	}
	if t := r.PassingThreshold; t != nil && (*t < 0 || *t > 100) {
		return fmt.Errorf("%w: passingThreshold must be within [0, 100]", util.ErrInvalidScenario)
	}
	if err := scenario.Validate(r.Scenes); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidScenario, err)
	}
	return nil
}

func (r LevelRequest) apply(level *model.Level) {
	level.LevelNumber = r.LevelNumber
	level.Title = r.Title
	level.Description = r.Description
	level.PassingThreshold = r.PassingThreshold
	level.Scenes = r.Scenes
}

func (s *LevelService) CreateLevel(ctx context.Context, trainingID uint, req LevelRequest) (*model.Level, error) {
	if trainingID == 0 {
		return nil, fmt.Errorf("%w: trainingId is required", util.ErrMissingIdentifier)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureTraining(ctx, trainingID); err != nil {
		return nil, err
	}

	if err := s.ensureNumberFree(ctx, trainingID, 0, req.LevelNumber); err != nil {
		return nil, err
	}

	level := &model.Level{TrainingID: trainingID}
	req.apply(level)
	if err := s.LevelRepo.Create(ctx, level); err != nil {
		return nil, numberConflict(fmt.Errorf("create level: %w", err), trainingID, req.LevelNumber)
	}
	logger.Log.Info("Level created",
		zap.Uint("trainingId", trainingID),
		zap.Uint("levelId", level.ID),
		zap.Int("scenes", len(level.Scenes)))
	return level, nil
}

// UpdateLevel replaces a level's definition. Stored attempts are kept as they
// were graded; statistics re-derive scores against the new graph.
func (s *LevelService) UpdateLevel(ctx context.Context, trainingID, levelID uint, req LevelRequest) (*model.Level, error) {
	if trainingID == 0 || levelID == 0 {
		return nil, fmt.Errorf("%w: trainingId and levelId are required", util.ErrMissingIdentifier)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	level, err := s.GetLevel(ctx, trainingID, levelID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNumberFree(ctx, trainingID, level.ID, req.LevelNumber); err != nil {
		return nil, err
	}
	req.apply(level)
	if err := s.LevelRepo.Update(ctx, level); err != nil {
		return nil, numberConflict(fmt.Errorf("update level: %w", err), trainingID, req.LevelNumber)
	}
	return level, nil
}

func (s *LevelService) GetLevel(ctx context.Context, trainingID, levelID uint) (*model.Level, error) {
	if trainingID == 0 || levelID == 0 {
		return nil, fmt.Errorf("%w: trainingId and levelId are required", util.ErrMissingIdentifier)
	}
	level, err := s.LevelRepo.FindInTraining(ctx, trainingID, levelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: level %d in training %d", util.ErrLevelNotFound, levelID, trainingID)
		}
		return nil, err
	}
	return level, nil
}

func (s *LevelService) ListLevels(ctx context.Context, trainingID uint) ([]model.Level, error) {
	if err := s.ensureTraining(ctx, trainingID); err != nil {
		return nil, err
	}
	return s.LevelRepo.ListByTraining(ctx, trainingID)
}

// ensureNumberFree 关卡编号在培训内唯一，self 为正在更新的关卡
func (s *LevelService) ensureNumberFree(ctx context.Context, trainingID, self uint, number int) error {
	existing, err := s.LevelRepo.FindByNumber(ctx, trainingID, number)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("%w: level %d already has number %d", util.ErrLevelNumberTaken, existing.ID, number)
	}
	return nil
}

// numberConflict 并发写入时由唯一索引兜底
func numberConflict(err error, trainingID uint, number int) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: training %d number %d", util.ErrLevelNumberTaken, trainingID, number)
	}
	return err
}

func (s *LevelService) ensureTraining(ctx context.Context, trainingID uint) error {
	if _, err := s.TrainingRepo.FindByID(ctx, trainingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", util.ErrTrainingNotFound, trainingID)
		}
		return err
	}
	return nil
}
