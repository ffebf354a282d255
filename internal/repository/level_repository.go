package repository

import (
	"context"
	"errors"

	"training_backend/internal/model"

	"gorm.io/gorm"
)

type LevelRepository struct {
	DB *gorm.DB
}

func NewLevelRepository(db *gorm.DB) *LevelRepository {
	return &LevelRepository{DB: db}
}

func (r *LevelRepository) Create(ctx context.Context, level *model.Level) error {
	return r.DB.WithContext(ctx).Create(level).Error
}

func (r *LevelRepository) Update(ctx context.Context, level *model.Level) error {
	return r.DB.WithContext(ctx).Save(level).Error
}

func (r *LevelRepository) FindByID(ctx context.Context, id uint) (*model.Level, error) {
	var level model.Level
	if err := r.DB.WithContext(ctx).First(&level, id).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

// FindInTraining returns the level only when it belongs to trainingID.
func (r *LevelRepository) FindInTraining(ctx context.Context, trainingID, id uint) (*model.Level, error) {
	var level model.Level
	err := r.DB.WithContext(ctx).
		Where("id = ? AND training_id = ?", id, trainingID).
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *LevelRepository) FindByNumber(ctx context.Context, trainingID uint, number int) (*model.Level, error) {
	var level model.Level
	err := r.DB.WithContext(ctx).
		Where("training_id = ? AND level_number = ?", trainingID, number).
		Order("id asc").
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *LevelRepository) FindByTitle(ctx context.Context, trainingID uint, title string) (*model.Level, error) {
	var level model.Level
	err := r.DB.WithContext(ctx).
		Where("training_id = ? AND title = ?", trainingID, title).
		Order("level_number asc").
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// FindByRef resolves a level reference: by id, then by level number within
// the training, then by title. A strategy that finds nothing falls through to
// the next one. gorm.ErrRecordNotFound is returned when none match.
func (r *LevelRepository) FindByRef(ctx context.Context, trainingID uint, ref model.LevelRef) (*model.Level, error) {
	if ref.ID > 0 {
		level, err := r.FindInTraining(ctx, trainingID, ref.ID)
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return level, err
		}
	}
	if ref.LevelNumber > 0 {
		level, err := r.FindByNumber(ctx, trainingID, ref.LevelNumber)
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return level, err
		}
	}
	if ref.Title != "" {
		return r.FindByTitle(ctx, trainingID, ref.Title)
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *LevelRepository) ListByTraining(ctx context.Context, trainingID uint) ([]model.Level, error) {
	var levels []model.Level
	err := r.DB.WithContext(ctx).
		Where("training_id = ?", trainingID).
		Order("level_number asc, id asc").
		Find(&levels).Error
	return levels, err
}

type trainingCount struct {
	TrainingID uint
	Total      int64
}

// CountGroupedByTraining returns the number of levels per training. With no
// ids every training is included.
func (r *LevelRepository) CountGroupedByTraining(ctx context.Context, trainingIDs ...uint) (map[uint]int64, error) {
	var rows []trainingCount
	query := r.DB.WithContext(ctx).Model(&model.Level{}).
		Select("training_id, COUNT(*) AS total").
		Group("training_id")
	if len(trainingIDs) > 0 {
		query = query.Where("training_id IN ?", trainingIDs)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func toCountMap(rows []trainingCount) map[uint]int64 {
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.TrainingID] = row.Total
	}
	return out
}
