// Package testutil opens throwaway SQLite databases and seeds rows for
// repository, service and controller tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"training_backend/internal/model"
	"training_backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB returns a migrated in-memory database private to tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, name string, role model.UserRole) *model.User {
	tb.Helper()
	u := &model.User{
		Name:  name,
		Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:  role,
	}
	if err := db.WithContext(context.Background()).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedTraining(tb testing.TB, db *gorm.DB, title string) *model.Training {
	tb.Helper()
	tr := &model.Training{Title: title}
	if err := db.Create(tr).Error; err != nil {
		tb.Fatalf("seed training: %v", err)
	}
	return tr
}

func SeedLevel(tb testing.TB, db *gorm.DB, trainingID uint, number int, title string, scenes []model.Scene) *model.Level {
	tb.Helper()
	l := &model.Level{
		TrainingID:  trainingID,
		LevelNumber: number,
		Title:       title,
		Scenes:      scenes,
	}
	if err := db.Create(l).Error; err != nil {
		tb.Fatalf("seed level: %v", err)
	}
	return l
}

func Enroll(tb testing.TB, db *gorm.DB, trainingID, userID uint, role model.UserRole) {
	tb.Helper()
	e := &model.Enrollment{TrainingID: trainingID, UserID: userID, Role: role}
	if err := db.Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
}

// SeedAttempt stores an attempt directly, bypassing the retention policy.
func SeedAttempt(tb testing.TB, db *gorm.DB, a *model.ScenarioAttempt) *model.ScenarioAttempt {
	tb.Helper()
	if a.CompletedAt.IsZero() {
		a.CompletedAt = time.Now()
	}
	if a.SelectedOptions == nil {
		a.SelectedOptions = []model.SelectedOption{}
	}
	if err := db.Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}

func IntPtr(v int) *int { return &v }

// TenPointLevel is a single decision worth 10 (or 5) points followed by a
// terminal scene.
func TenPointLevel() []model.Scene {
	return []model.Scene{
		{
			ID:          1,
			Description: "opening",
			Options: []model.Option{
				{ID: "best", Description: "best answer", Points: 10, Next: IntPtr(2)},
				{ID: "half", Description: "half answer", Points: 5, Next: IntPtr(2)},
			},
		},
		{ID: 2, Description: "closing", Terminal: true},
	}
}
