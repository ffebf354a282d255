package model

import "time"

// OptionFrequency 某个选项被选择的次数及占比（占该关卡全部尝试的百分比）
type OptionFrequency struct {
	Key         string  `json:"key"`
	OptionID    string  `json:"optionId,omitempty"`
	Description string  `json:"description,omitempty"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// SceneFrequency 单个场景的选项分布，终止场景不参与统计
type SceneFrequency struct {
	SceneID     int               `json:"sceneId"`
	Description string            `json:"description"`
	Options     []OptionFrequency `json:"options"`
}

// ScoreSummary 已存储尝试的得分区间
type ScoreSummary struct {
	AverageScore      float64 `json:"averageScore"`
	MinScore          int     `json:"minScore"`
	MaxScore          int     `json:"maxScore"`
	AveragePercentage float64 `json:"averagePercentage"`
	MinPercentage     float64 `json:"minPercentage"`
	MaxPercentage     float64 `json:"maxPercentage"`
}

// RecentAttempt 最近提交记录
type RecentAttempt struct {
	UserID      uint      `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CompletedAt time.Time `json:"completedAt"`
	Score       int       `json:"score"`
	Percentage  float64   `json:"percentage"`
	Approved    bool      `json:"approved"`
}

// LevelStatistics 关卡维度统计
type LevelStatistics struct {
	TrainingID        uint             `json:"trainingId"`
	LevelID           uint             `json:"levelId"`
	LevelNumber       int              `json:"levelNumber"`
	LevelTitle        string           `json:"levelTitle"`
	EnrolledLearners  int64            `json:"enrolledLearners"`
	LearnersAttempted int              `json:"learnersAttempted"`
	LearnersApproved  int              `json:"learnersApproved"`
	CompletionRate    float64          `json:"completionRate"`
	ApprovalRate      float64          `json:"approvalRate"`
	Scores            ScoreSummary     `json:"scores"`
	LevelMaxScore     int              `json:"levelMaxScore"`
	OptionFrequency   []SceneFrequency `json:"optionFrequency"`
	RecentAttempts    []RecentAttempt  `json:"recentAttempts"`
}

// Decision 学员在某个场景的选择，以及该场景可获得的最高分
type Decision struct {
	SceneID          int    `json:"sceneId"`
	SceneDescription string `json:"sceneDescription"`
	OptionID         string `json:"optionId,omitempty"`
	Description      string `json:"description,omitempty"`
	Points           int    `json:"points"`
	Correct          bool   `json:"correct"`
	SceneMaxPoints   int    `json:"sceneMaxPoints"`
}

type UserLevelStatistics struct {
	LevelID      uint       `json:"levelId"`
	LevelNumber  int        `json:"levelNumber"`
	LevelTitle   string     `json:"levelTitle"`
	Attempted    bool       `json:"attempted"`
	Approved     bool       `json:"approved"`
	EarnedPoints int        `json:"earnedPoints"`
	TotalPoints  int        `json:"totalPoints"`
	Percentage   float64    `json:"percentage"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Decisions    []Decision `json:"decisions"`
}

type UserTrainingSummary struct {
	TotalLevels        int     `json:"totalLevels"`
	Attempted          int     `json:"attempted"`
	Approved           int     `json:"approved"`
	Pending            int     `json:"pending"`
	AverageScore       float64 `json:"averageScore"`
	TotalEarnedScore   int     `json:"totalEarnedScore"`
	TotalPossibleScore int     `json:"totalPossibleScore"`
	OverallPercentage  float64 `json:"overallPercentage"`
}

// UserTrainingStatistics 学员在某个培训中的逐关卡表现
type UserTrainingStatistics struct {
	UserID     uint                  `json:"userId"`
	TrainingID uint                  `json:"trainingId"`
	Levels     []UserLevelStatistics `json:"levels"`
	Summary    UserTrainingSummary   `json:"summary"`
}

// TrainingProgress 培训整体进度
type TrainingProgress struct {
	TrainingID        uint    `json:"trainingId"`
	Title             string  `json:"title"`
	TotalLevels       int64   `json:"totalLevels"`
	EnrolledLearners  int64   `json:"enrolledLearners"`
	ApprovedLevels    int64   `json:"approvedLevels"`
	AverageCompletion float64 `json:"averageCompletion"`
	// 仅单个培训查询时计算：通过全部关卡的学员数
	LearnersCompleted *int64 `json:"learnersCompleted,omitempty"`
}
