// Command analyze runs registered trip analyses against a database in the
// foreground and prints each task's result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/jengzang/trip-hazards/internal/analysis"
	"github.com/jengzang/trip-hazards/internal/config"
	"github.com/jengzang/trip-hazards/internal/database"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/repository"

	// Import analyzer packages to register them
	_ "github.com/jengzang/trip-hazards/internal/analysis/trips"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	skill := flag.String("skill", "", "skill to run; empty runs every registered skill")
	full := flag.Bool("full", false, "recompute every trip instead of only pending ones")
	flag.Parse()

	db, err := database.Open(database.Config{Path: *dbPath})
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	skills := analysis.SkillNames()
	if *skill != "" {
		if !analysis.IsRegistered(*skill) {
			log.Fatalf("Unknown skill %q (registered: %v)", *skill, skills)
		}
		skills = []string{*skill}
	}

	taskType := models.TaskTypeIncremental
	if *full {
		taskType = models.TaskTypeFullRecompute
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	deps := analysis.Deps{
		DB:        db,
		Hazards:   cfg.HazardOptions(),
		Cost:      cfg.CostParams(),
		Validator: cfg.Validator(),
	}
	tasks := repository.NewAnalysisTaskRepository(db)

	for _, name := range skills {
		task := &models.AnalysisTask{
			SkillName: name,
			TaskType:  taskType,
			Status:    models.TaskStatusPending,
			CreatedBy: "cli",
		}
		if err := tasks.Create(task); err != nil {
			log.Fatal("Failed to create task:", err)
		}

		log.Printf("Running %s analyzer (task %d)", name, task.ID)
		if err := analysis.GetAnalyzer(name, deps).Analyze(ctx, task.ID, analysis.ModeForTaskType(taskType)); err != nil {
			log.Printf("%s analysis failed: %v", name, err)
			if markErr := tasks.MarkAsFailed(task.ID, err.Error()); markErr != nil {
				log.Printf("Failed to mark task %d as failed: %v", task.ID, markErr)
			}
			continue
		}

		done, err := tasks.GetByID(task.ID)
		if err != nil {
			log.Fatal("Failed to read task:", err)
		}
		fmt.Printf("%s: %s %s\n", name, done.Status, done.ResultSummary)
	}
}
