package service

import (
	"encoding/json"
	"testing"

	"training_backend/internal/config"
	"training_backend/internal/repository"
	"training_backend/internal/scenario"
	"training_backend/pkg/lock"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testScoring = config.ScoringConfig{
	DefaultThreshold: 80,
	RecentAttempts:   10,
	LockTTLSeconds:   5,
	CacheTTLMinutes:  1,
}

func scoringWithThreshold(v float64) config.ScoringConfig {
	cfg := testScoring
	cfg.DefaultThreshold = v
	return cfg
}

func newScenarioService(db *gorm.DB) *ScenarioService {
	return NewScenarioService(
		repository.NewLevelRepository(db),
		repository.NewScenarioAttemptRepository(db),
		lock.NewLocalLocker(),
		nil,
		testScoring,
	)
}

func newStatisticsService(db *gorm.DB) *StatisticsService {
	return NewStatisticsService(
		repository.NewTrainingRepository(db),
		repository.NewLevelRepository(db),
		repository.NewScenarioAttemptRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewUserRepository(db),
		testScoring.RecentAttempts,
	)
}

func trail(t *testing.T, raw string) []scenario.TrailEntry {
	t.Helper()
	var out []scenario.TrailEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}
