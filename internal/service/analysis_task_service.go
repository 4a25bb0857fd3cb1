package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jengzang/trip-hazards/internal/analysis"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/repository"
)

// AnalysisTaskService creates analysis tasks and runs them in the background
type AnalysisTaskService struct {
	repo *repository.AnalysisTaskRepository
	deps analysis.Deps

	mu      sync.Mutex
	running map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

// NewAnalysisTaskService creates a new analysis task service
func NewAnalysisTaskService(repo *repository.AnalysisTaskRepository, deps analysis.Deps) *AnalysisTaskService {
	return &AnalysisTaskService{
		repo:    repo,
		deps:    deps,
		running: make(map[int64]context.CancelFunc),
	}
}

// CreateTask creates a new analysis task and starts it
func (s *AnalysisTaskService) CreateTask(skillName string, taskType string, params map[string]interface{}, createdBy string) (*models.AnalysisTask, error) {
	if !analysis.IsRegistered(skillName) {
		return nil, fmt.Errorf("%w: unknown skill %q", ErrInvalidArgument, skillName)
	}
	if taskType != models.TaskTypeIncremental && taskType != models.TaskTypeFullRecompute {
		return nil, fmt.Errorf("%w: unknown task type %q", ErrInvalidArgument, taskType)
	}

	var paramsJSON string
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize params: %w", err)
		}
		paramsJSON = string(data)
	}

	task := &models.AnalysisTask{
		SkillName:  skillName,
		TaskType:   taskType,
		Status:     models.TaskStatusPending,
		ParamsJSON: paramsJSON,
		CreatedBy:  createdBy,
	}
	if err := s.repo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[task.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, task.ID, skillName, taskType)

	return task, nil
}

// TriggerAnalysisChain creates one task per registered skill
func (s *AnalysisTaskService) TriggerAnalysisChain(taskType string, createdBy string) ([]int64, error) {
	var ids []int64
	for _, skill := range analysis.SkillNames() {
		task, err := s.CreateTask(skill, taskType, nil, createdBy)
		if err != nil {
			return ids, fmt.Errorf("failed to create task for %s: %w", skill, err)
		}
		ids = append(ids, task.ID)
	}
	return ids, nil
}

func (s *AnalysisTaskService) run(ctx context.Context, taskID int64, skillName, taskType string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if cancel, ok := s.running[taskID]; ok {
			cancel()
			delete(s.running, taskID)
		}
		s.mu.Unlock()
	}()

	log.Printf("Executing analysis for task %d (skill: %s, type: %s)", taskID, skillName, taskType)

	analyzer := analysis.GetAnalyzer(skillName, s.deps)
	if analyzer == nil {
		s.fail(taskID, skillName, fmt.Errorf("unknown skill: %s", skillName))
		return
	}

	err := analyzer.Analyze(ctx, taskID, analysis.ModeForTaskType(taskType))
	switch {
	case errors.Is(err, context.Canceled):
		log.Printf("Analysis cancelled for task %d", taskID)
		s.deps.Metrics.TaskFinished(skillName, models.TaskStatusCancelled)
	case err != nil:
		s.fail(taskID, skillName, err)
	default:
		log.Printf("Analysis completed for task %d", taskID)
		s.deps.Metrics.TaskFinished(skillName, models.TaskStatusCompleted)
	}
}

func (s *AnalysisTaskService) fail(taskID int64, skillName string, err error) {
	log.Printf("Analysis failed for task %d: %v", taskID, err)
	if markErr := s.repo.MarkAsFailed(taskID, fmt.Sprintf("Analysis failed: %v", err)); markErr != nil {
		log.Printf("Failed to mark task %d as failed: %v", taskID, markErr)
	}
	s.deps.Metrics.TaskFinished(skillName, models.TaskStatusFailed)
}

// Wait blocks until every started task has returned
func (s *AnalysisTaskService) Wait() {
	s.wg.Wait()
}

// Shutdown cancels every running task and waits for the workers to return
func (s *AnalysisTaskService) Shutdown() {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.running))
	for id := range s.running {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.CancelTask(id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Printf("Failed to cancel task %d: %v", id, err)
		}
	}
	s.Wait()
}

// GetTask retrieves a task by ID
func (s *AnalysisTaskService) GetTask(id int64) (*models.AnalysisTask, error) {
	return s.repo.GetByID(id)
}

// ListTasks retrieves tasks with optional filters
func (s *AnalysisTaskService) ListTasks(skillName string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(skillName, status, limit, offset)
}

// CancelTask marks a pending or running task as cancelled and stops its
// worker. Finished tasks report repository.ErrNotFound.
func (s *AnalysisTaskService) CancelTask(id int64) error {
	if err := s.repo.MarkAsCancelled(id); err != nil {
		return err
	}

	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}
