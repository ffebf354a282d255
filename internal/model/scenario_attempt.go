package model

import "time"

// SelectedOption 是存储用的简化轨迹条目
type SelectedOption struct {
	SceneID     int    `json:"sceneId"`
	OptionID    string `json:"optionId,omitempty"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points"`
}

// ScenarioAttempt is the stored best run of a learner through a level.
// (user_id, level_id) is unique.
//
// swagger:model ScenarioAttempt
type ScenarioAttempt struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID          uint             `gorm:"uniqueIndex:idx_attempt_user_level;not null" json:"userId"`
	TrainingID      uint             `gorm:"index;not null" json:"trainingId"`
	LevelID         uint             `gorm:"uniqueIndex:idx_attempt_user_level;index;not null" json:"levelId"`
	EarnedPoints    int              `json:"earnedPoints"`
	TotalPoints     int              `json:"totalPoints"`
	Percentage      float64          `json:"percentage"`
	Approved        bool             `gorm:"default:false" json:"approved"`
	SelectedOptions []SelectedOption `gorm:"serializer:json;type:text" json:"selectedOptions"`
	CompletedAt     time.Time        `gorm:"index" json:"completedAt"`
}

func (ScenarioAttempt) TableName() string {
	return "scenario_attempts"
}

// PointsSum 按存储的选项积分求和
func (a *ScenarioAttempt) PointsSum() int {
	sum := 0
	for _, o := range a.SelectedOptions {
		sum += o.Points
	}
	return sum
}
