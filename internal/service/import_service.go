package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"training_backend/internal/model"
	"training_backend/internal/repository"
	"training_backend/internal/util"
	"training_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// ImportDocument is the YAML layout accepted by `-import`.
type ImportDocument struct {
	Trainings []ImportTraining `yaml:"trainings"`
	Users     []ImportUser     `yaml:"users"`
}

type ImportTraining struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Levels      []LevelRequest `yaml:"levels"`
}

// ImportUser enrolls a user into trainings named by title.
type ImportUser struct {
	Name      string         `yaml:"name"`
	Email     string         `yaml:"email"`
	Role      model.UserRole `yaml:"role"`
	Trainings []string       `yaml:"trainings"`
}

type ImportSummary struct {
	Trainings     int `json:"trainings"`
	LevelsCreated int `json:"levelsCreated"`
	LevelsUpdated int `json:"levelsUpdated"`
	Users         int `json:"users"`
	Enrollments   int `json:"enrollments"`
}

type ImportService struct {
	DB *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{DB: db}
}

func (s *ImportService) ImportFile(ctx context.Context, path string) (*ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.Import(ctx, f)
}

// Import upserts trainings by title, levels by number within their training,
// and users by email, all in one transaction. Every level graph is validated
// before anything is written.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	var doc ImportDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode import file: %v", util.ErrInvalidScenario, err)
	}

	for _, t := range doc.Trainings {
		if t.Title == "" {
			return nil, fmt.Errorf("%w: training without title", util.ErrInvalidScenario)
		}
		for _, l := range t.Levels {
			if err := l.Validate(); err != nil {
				return nil, fmt.Errorf("import %q level %d: %w", t.Title, l.LevelNumber, err)
			}
		}
	}

	sum := &ImportSummary{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trainings := repository.NewTrainingRepository(tx)
		levels := repository.NewLevelRepository(tx)
		users := repository.NewUserRepository(tx)
		enrollments := repository.NewEnrollmentRepository(tx)

		byTitle := make(map[string]uint, len(doc.Trainings))
		for _, t := range doc.Trainings {
			training, err := trainings.FindByTitle(ctx, t.Title)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				training = &model.Training{Title: t.Title, Description: t.Description}
				if err := trainings.Create(ctx, training); err != nil {
					return err
				}
			case err != nil:
				return err
			}
			byTitle[t.Title] = training.ID
			sum.Trainings++

			for _, req := range t.Levels {
				level, err := levels.FindByNumber(ctx, training.ID, req.LevelNumber)
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					level = &model.Level{TrainingID: training.ID}
					req.apply(level)
					if err := levels.Create(ctx, level); err != nil {
						return err
					}
					sum.LevelsCreated++
				case err != nil:
					return err
				default:
					req.apply(level)
					if err := levels.Update(ctx, level); err != nil {
						return err
					}
					sum.LevelsUpdated++
				}
			}
		}

		for _, u := range doc.Users {
			user, err := users.FindByEmail(ctx, u.Email)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				role := u.Role
				if role == "" {
					role = model.Learner
				}
				user = &model.User{Name: u.Name, Email: u.Email, Role: role}
				if err := users.Create(ctx, user); err != nil {
					return err
				}
			case err != nil:
				return err
			}
			sum.Users++

			for _, title := range u.Trainings {
				trainingID, ok := byTitle[title]
				if !ok {
					t, err := trainings.FindByTitle(ctx, title)
					if err != nil {
						return fmt.Errorf("user %s: training %q: %w", u.Email, title, err)
					}
					trainingID = t.ID
				}
				role := model.Learner
				if user.Role == model.Instructor || user.Role == model.Admin {
					role = model.Instructor
				}
				if err := enrollments.Enroll(ctx, trainingID, user.ID, role); err != nil {
					return err
				}
				sum.Enrollments++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	logger.Log.Info("Import completed",
		zap.Int("trainings", sum.Trainings),
		zap.Int("levelsCreated", sum.LevelsCreated),
		zap.Int("levelsUpdated", sum.LevelsUpdated),
		zap.Int("users", sum.Users),
		zap.Int("enrollments", sum.Enrollments))
	return sum, nil
}
