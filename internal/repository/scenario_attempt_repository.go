package repository

import (
	"context"

	"training_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RetentionOutcome string

const (
	RetentionInserted  RetentionOutcome = "inserted"
	RetentionReplaced  RetentionOutcome = "replaced"
	RetentionDiscarded RetentionOutcome = "discarded"
)

// BetterFunc decides whether candidate should replace stored.
type BetterFunc func(candidate, stored *model.ScenarioAttempt) bool

type ScenarioAttemptRepository struct {
	DB *gorm.DB
}

func NewScenarioAttemptRepository(db *gorm.DB) *ScenarioAttemptRepository {
	return &ScenarioAttemptRepository{DB: db}
}

func (r *ScenarioAttemptRepository) Create(ctx context.Context, attempt *model.ScenarioAttempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

func (r *ScenarioAttemptRepository) DeleteByUserAndLevel(ctx context.Context, userID, levelID uint) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND level_id = ?", userID, levelID).
		Delete(&model.ScenarioAttempt{}).Error
}

// FindByUserAndLevel returns the pair's stored attempts, best first.
func (r *ScenarioAttemptRepository) FindByUserAndLevel(ctx context.Context, userID, levelID uint) ([]model.ScenarioAttempt, error) {
	var attempts []model.ScenarioAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND level_id = ?", userID, levelID).
		Order("percentage desc, earned_points desc").
		Find(&attempts).Error
	return attempts, err
}

// FindLearnerAttempts returns the level's stored attempts of users enrolled
// in the training as learners.
func (r *ScenarioAttemptRepository) FindLearnerAttempts(ctx context.Context, trainingID, levelID uint) ([]model.ScenarioAttempt, error) {
	var attempts []model.ScenarioAttempt
	err := r.learnerAttempts(ctx).
		Select("a.*").
		Where("a.training_id = ? AND a.level_id = ?", trainingID, levelID).
		Find(&attempts).Error
	return attempts, err
}

// FindRecentLearnerAttempts is FindLearnerAttempts ordered newest first and
// capped at limit.
func (r *ScenarioAttemptRepository) FindRecentLearnerAttempts(ctx context.Context, trainingID, levelID uint, limit int) ([]model.ScenarioAttempt, error) {
	var attempts []model.ScenarioAttempt
	err := r.learnerAttempts(ctx).
		Select("a.*").
		Where("a.training_id = ? AND a.level_id = ?", trainingID, levelID).
		Order("a.completed_at desc, a.id desc").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *ScenarioAttemptRepository) FindByUserAndTraining(ctx context.Context, userID, trainingID uint) ([]model.ScenarioAttempt, error) {
	var attempts []model.ScenarioAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND training_id = ?", userID, trainingID).
		Order("percentage desc, earned_points desc").
		Find(&attempts).Error
	return attempts, err
}

// ReplaceIfBetter is the compare-and-swap behind the one-attempt-per-pair
// rule. Inside one transaction it reads the pair's rows FOR UPDATE, compares
// candidate against the best of them and either discards candidate or deletes
// every stored row and inserts candidate. It returns the attempt that is
// stored once the call returns.
//
// Two transactions that both find no row race on the unique index; the loser
// gets gorm.ErrDuplicatedKey (with TranslateError enabled) and should retry.
func (r *ScenarioAttemptRepository) ReplaceIfBetter(ctx context.Context, candidate *model.ScenarioAttempt, better BetterFunc) (RetentionOutcome, *model.ScenarioAttempt, error) {
	var outcome RetentionOutcome
	var kept *model.ScenarioAttempt

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.ScenarioAttempt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND level_id = ?", candidate.UserID, candidate.LevelID).
			Order("percentage desc, earned_points desc").
			Find(&existing).Error
		if err != nil {
			return err
		}

		var best *model.ScenarioAttempt
		for i := range existing {
			if best == nil || better(&existing[i], best) {
				best = &existing[i]
			}
		}
		if best != nil && !better(candidate, best) {
			outcome = RetentionDiscarded
			kept = best
			return nil
		}

		outcome = RetentionInserted
		if len(existing) > 0 {
			outcome = RetentionReplaced
			if err := tx.Where("user_id = ? AND level_id = ?", candidate.UserID, candidate.LevelID).
				Delete(&model.ScenarioAttempt{}).Error; err != nil {
				return err
			}
		}
		candidate.ID = 0
		if err := tx.Create(candidate).Error; err != nil {
			return err
		}
		kept = candidate
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return outcome, kept, nil
}

type learnerCount struct {
	UserID uint
	Total  int64
}

// ApprovedCountsByLearner groups approved attempts of enrolled learners in a
// training by learner.
func (r *ScenarioAttemptRepository) ApprovedCountsByLearner(ctx context.Context, trainingID uint) (map[uint]int64, error) {
	var rows []learnerCount
	err := r.approvedLearnerAttempts(ctx).
		Select("a.user_id AS user_id, COUNT(*) AS total").
		Where("a.training_id = ?", trainingID).
		Group("a.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.Total
	}
	return out, nil
}

// ApprovedCountsByTraining sums per-learner approved-level counts per
// training. With no ids every training is included.
func (r *ScenarioAttemptRepository) ApprovedCountsByTraining(ctx context.Context, trainingIDs ...uint) (map[uint]int64, error) {
	var rows []trainingCount
	query := r.approvedLearnerAttempts(ctx).
		Select("a.training_id AS training_id, COUNT(*) AS total").
		Group("a.training_id")
	if len(trainingIDs) > 0 {
		query = query.Where("a.training_id IN ?", trainingIDs)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

// learnerAttempts 只保留培训中以学员身份报名的用户的尝试
func (r *ScenarioAttemptRepository) learnerAttempts(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("scenario_attempts AS a").
		Joins("JOIN training_enrollments e ON e.training_id = a.training_id AND e.user_id = a.user_id AND e.deleted_at IS NULL").
		Where("e.role = ?", model.Learner)
}

func (r *ScenarioAttemptRepository) approvedLearnerAttempts(ctx context.Context) *gorm.DB {
	return r.learnerAttempts(ctx).
		Joins("JOIN levels l ON l.id = a.level_id AND l.deleted_at IS NULL").
		Where("a.approved = ?", true)
}
