package model

// swagger:model Training
type Training struct {
	BaseModel

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
}

func (Training) TableName() string {
	return "trainings"
}

// Enrollment 用户与培训的关联，Role 为该用户在培训中的角色
type Enrollment struct {
	BaseModel

	TrainingID uint     `gorm:"uniqueIndex:idx_enrollment_training_user;not null" json:"trainingId"`
	UserID     uint     `gorm:"uniqueIndex:idx_enrollment_training_user;not null" json:"userId"`
	Role       UserRole `gorm:"size:20;index;default:'learner'" json:"role"`
}

func (Enrollment) TableName() string {
	return "training_enrollments"
}
