// Command seed fills an empty store with sample todos for development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/birlikkoshan/todo-api/internal/app"
	"github.com/birlikkoshan/todo-api/internal/config"
	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/logging"
	"github.com/birlikkoshan/todo-api/internal/query"
	"github.com/birlikkoshan/todo-api/internal/repo"
	"github.com/birlikkoshan/todo-api/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	reset := flag.Bool("reset", false, "delete every todo before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := app.NewStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	n, err := seed(ctx, store, logger, *reset, time.Now())
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	if n == 0 {
		logger.Info("store already has todos, skipping seed")
		return
	}

	st, err := service.NewTodoService(store, logger).Stats(ctx, nil, nil)
	if err != nil {
		logger.Fatal("stats", zap.Error(err))
	}
	logger.Info("sample todos created",
		zap.Int("created", n),
		zap.Int(string(dom.StatusPending), st.Pending),
		zap.Int(string(dom.StatusInProgress), st.InProgress),
		zap.Int(string(dom.StatusCompleted), st.Completed),
	)
}

// seed inserts the sample set into an empty store and returns how many todos it created.
// A non-empty store is left alone unless reset is set.
func seed(ctx context.Context, store repo.TodoRepo, logger *zap.Logger, reset bool, now time.Time) (int, error) {
	existing, err := store.Scan(ctx, query.All, query.Window{})
	if err != nil {
		return 0, err
	}
	if existing.Total > 0 {
		if !reset {
			return 0, nil
		}
		for _, t := range existing.Items {
			if err := store.Delete(ctx, t.ID); err != nil {
				return 0, fmt.Errorf("reset %s: %w", t.ID, err)
			}
		}
		logger.Info("store reset", zap.Int("deleted", existing.Total))
	}

	svc := service.NewTodoService(store, logger)
	created, err := svc.BulkCreate(ctx, samples(now))
	if err != nil {
		return 0, err
	}
	return len(created), nil
}

func samples(now time.Time) []dom.TodoInput {
	in := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	desc := func(s string) *string { return &s }
	day := 24 * time.Hour

	return []dom.TodoInput{
		{
			Title:       "Finish the monthly report",
			Description: desc("Write up this month's work summary and send it to the manager"),
			Status:      dom.StatusInProgress,
			Priority:    dom.PriorityHigh,
			DueDate:     in(2 * day),
			Tags:        []string{"work", "report", "important"},
		},
		{
			Title:       "Weekend shopping",
			Description: desc("Buy groceries and household supplies for the new week"),
			Status:      dom.StatusPending,
			Priority:    dom.PriorityMedium,
			DueDate:     in(3 * day),
			Tags:        []string{"personal", "shopping", "family"},
		},
		{
			Title:       "Learn Go web services",
			Description: desc("Finish the online course on building HTTP APIs"),
			Status:      dom.StatusInProgress,
			Priority:    dom.PriorityMedium,
			DueDate:     in(7 * day),
			Tags:        []string{"learning", "programming", "go"},
		},
		{
			Title:       "Book a dentist appointment",
			Description: desc("Call to schedule the regular checkup"),
			Status:      dom.StatusPending,
			Priority:    dom.PriorityLow,
			DueDate:     in(5 * day),
			Tags:        []string{"health", "personal", "appointment"},
		},
		{
			Title:       "Back up laptop data",
			Description: desc("Copy all important files to cloud storage"),
			Status:      dom.StatusPending,
			Priority:    dom.PriorityHigh,
			DueDate:     in(day),
			Tags:        []string{"tech", "backup", "important"},
		},
		{
			Title:       "Read a book on AI",
			Description: desc("Finish 'Artificial Intelligence: A Modern Approach'"),
			Status:      dom.StatusInProgress,
			Priority:    dom.PriorityMedium,
			DueDate:     in(14 * day),
			Tags:        []string{"reading", "ai", "learning"},
		},
		{
			Title:       "Work out",
			Description: desc("Go to the gym three times this week"),
			Status:      dom.StatusCompleted,
			Priority:    dom.PriorityMedium,
			DueDate:     in(-day),
			Tags:        []string{"health", "fitness", "personal"},
		},
		{
			Title:       "Prepare the presentation",
			Description: desc("Make slides for the new project presentation"),
			Status:      dom.StatusPending,
			Priority:    dom.PriorityHigh,
			DueDate:     in(12 * time.Hour),
			Tags:        []string{"work", "presentation", "urgent"},
		},
		{
			Title:       "English lesson",
			Description: desc("Complete unit 10 of the English textbook"),
			Status:      dom.StatusPending,
			Priority:    dom.PriorityLow,
			DueDate:     in(10 * day),
			Tags:        []string{"learning", "english", "language"},
		},
		{
			Title:       "Motorbike service",
			Description: desc("Take the motorbike in for scheduled maintenance"),
			Status:      dom.StatusCompleted,
			Priority:    dom.PriorityMedium,
			DueDate:     in(-3 * day),
			Tags:        []string{"vehicle", "maintenance", "personal"},
		},
	}
}
