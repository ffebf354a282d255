package model

// Option is an edge of the scenario graph. A nil Next ends the branch.
type Option struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Description string `json:"description" yaml:"description"`
	Points      int    `json:"points" yaml:"points"`
	Next        *int   `json:"next,omitempty" yaml:"next,omitempty"`
}

// Scene is a decision point. Terminal scenes end a branch and never score.
type Scene struct {
	ID          int      `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Options     []Option `json:"options" yaml:"options"`
	Bonus       int      `json:"bonus" yaml:"bonus"`
	Terminal    bool     `json:"terminal" yaml:"terminal"`
}

// swagger:model Level
type Level struct {
	BaseModel

	TrainingID  uint   `gorm:"uniqueIndex:idx_level_training_number;not null" json:"trainingId"`
	LevelNumber int    `gorm:"uniqueIndex:idx_level_training_number;not null" json:"levelNumber"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	// 关卡单独设置的通过线（百分比），为空时使用全局默认值
	PassingThreshold *float64 `json:"passingThreshold,omitempty"`
	Scenes           []Scene  `gorm:"serializer:json;type:text" json:"scenes"`
}

func (Level) TableName() string {
	return "levels"
}

// LevelRef identifies a level by id, by number within a training, or by title.
// Resolution precedence is in that order.
type LevelRef struct {
	ID          uint   `json:"levelId,omitempty"`
	LevelNumber int    `json:"levelNumber,omitempty"`
	Title       string `json:"levelTitle,omitempty"`
}

func (r LevelRef) IsEmpty() bool {
	return r.ID == 0 && r.LevelNumber == 0 && r.Title == ""
}
