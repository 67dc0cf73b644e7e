package main

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"

	"minitasks/internal/auth"
	"minitasks/internal/config"
	"minitasks/internal/db"
	apperrors "minitasks/internal/errors"
	"minitasks/internal/logger"
	"minitasks/internal/model"
	"minitasks/internal/repository"
	"minitasks/internal/service"
)

type seedTask struct {
	input     service.CreateTaskInput
	completed bool
}

func strPtr(s string) *string { return &s }

var demoTasks = []seedTask{
	{
		input: service.CreateTaskInput{
			Title:       "Example Task",
			Description: strPtr("Buy fruit and vegetables"),
			Priority:    model.PriorityMedium,
		},
	},
	{
		input: service.CreateTaskInput{
			Title:       "Example Task completed",
			Description: strPtr("Review hooks and components"),
			Priority:    model.PriorityHigh,
		},
		completed: true,
	},
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	email := getEnv("SEED_EMAIL", "demo@minitasks.local")
	password := getEnv("SEED_PASSWORD", "demo1234")

	gormDB, err := db.New(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	jwtService := auth.NewJWTService(cfg.Token())
	authService := service.NewAuthService(repository.NewUserRepository(gormDB), jwtService, auth.NewBcryptHasher(auth.DefaultBcryptCost), log)
	taskService := service.NewTaskService(repository.NewTaskRepository(gormDB))

	ctx := context.Background()
	session, err := authService.Register(ctx, email, password)
	if errors.Is(err, apperrors.ErrUserAlreadyExists) {
		session, err = authService.Login(ctx, email, password)
		if err != nil {
			logger.Fatal("demo user exists but login failed", "email", email, "error", err)
		}
		log.Info("demo user already seeded, skipping tasks", "email", email, "token", session.Token)
		return
	}
	if err != nil {
		logger.Fatal("failed to register demo user", "email", email, "error", err)
	}

	created, err := seedTasks(ctx, taskService, session.User.ID, demoTasks)
	if err != nil {
		logger.Fatal("failed to seed tasks", "error", err)
	}

	log.Info("seed completed",
		"email", email,
		"user_id", session.User.ID,
		"tasks_created", created,
		"token", session.Token,
	)
}

// seedTasks creates tasks for owner, marking the completed ones afterwards.
func seedTasks(ctx context.Context, tasks service.TaskService, ownerID uuid.UUID, items []seedTask) (int, error) {
	created := 0
	for _, item := range items {
		task, err := tasks.Create(ctx, ownerID, item.input)
		if err != nil {
			return created, err
		}
		created++
		if item.completed {
			if _, err := tasks.SetCompleted(ctx, ownerID, task.ID, true); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
