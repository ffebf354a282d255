package repository

import (
	"context"

	"training_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrainingRepository struct {
	DB *gorm.DB
}

func NewTrainingRepository(db *gorm.DB) *TrainingRepository {
	return &TrainingRepository{DB: db}
}

func (r *TrainingRepository) Create(ctx context.Context, training *model.Training) error {
	return r.DB.WithContext(ctx).Create(training).Error
}

func (r *TrainingRepository) FindByID(ctx context.Context, id uint) (*model.Training, error) {
	var training model.Training
	if err := r.DB.WithContext(ctx).First(&training, id).Error; err != nil {
		return nil, err
	}
	return &training, nil
}

func (r *TrainingRepository) FindByTitle(ctx context.Context, title string) (*model.Training, error) {
	var training model.Training
	if err := r.DB.WithContext(ctx).Where("title = ?", title).First(&training).Error; err != nil {
		return nil, err
	}
	return &training, nil
}

func (r *TrainingRepository) List(ctx context.Context) ([]model.Training, error) {
	var trainings []model.Training
	err := r.DB.WithContext(ctx).Order("id asc").Find(&trainings).Error
	return trainings, err
}

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// Enroll assigns role to the user in the training, updating an existing
// enrollment in place. A soft-deleted enrollment is restored: the inserted
// row carries a NULL deleted_at, which the upsert copies over.
func (r *EnrollmentRepository) Enroll(ctx context.Context, trainingID, userID uint, role model.UserRole) error {
	e := &model.Enrollment{TrainingID: trainingID, UserID: userID, Role: role}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "training_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at", "deleted_at"}),
	}).Create(e).Error
}

func (r *EnrollmentRepository) CountByRole(ctx context.Context, trainingID uint, role model.UserRole) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("training_id = ? AND role = ?", trainingID, role).
		Count(&count).Error
	return count, err
}

// CountByRoleGrouped counts enrollments with role per training.
func (r *EnrollmentRepository) CountByRoleGrouped(ctx context.Context, role model.UserRole, trainingIDs ...uint) (map[uint]int64, error) {
	var rows []trainingCount
	query := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Select("training_id, COUNT(*) AS total").
		Where("role = ?", role).
		Group("training_id")
	if len(trainingIDs) > 0 {
		query = query.Where("training_id IN ?", trainingIDs)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r *EnrollmentRepository) FindRole(ctx context.Context, trainingID, userID uint) (model.UserRole, error) {
	var e model.Enrollment
	err := r.DB.WithContext(ctx).
		Where("training_id = ? AND user_id = ?", trainingID, userID).
		First(&e).Error
	if err != nil {
		return "", err
	}
	return e.Role, nil
}
