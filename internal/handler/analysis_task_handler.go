package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trip-hazards/internal/service"
	"github.com/jengzang/trip-hazards/pkg/response"
)

// AnalysisTaskHandler handles HTTP requests for analysis tasks
type AnalysisTaskHandler struct {
	service *service.AnalysisTaskService
}

// NewAnalysisTaskHandler creates a new analysis task handler
func NewAnalysisTaskHandler(service *service.AnalysisTaskService) *AnalysisTaskHandler {
	return &AnalysisTaskHandler{service: service}
}

// CreateTaskRequest represents the request body for creating an analysis task
type CreateTaskRequest struct {
	SkillName string                 `json:"skill_name" binding:"required"`
	TaskType  string                 `json:"task_type" binding:"required"` // INCREMENTAL or FULL_RECOMPUTE
	Params    map[string]interface{} `json:"params"`
}

// CreateTask creates a new analysis task
// POST /api/admin/analysis/tasks
func (h *AnalysisTaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.service.CreateTask(req.SkillName, req.TaskType, req.Params, currentUser(c, "admin"))
	if err != nil {
		respondError(c, err, "Failed to create task")
		return
	}

	response.Created(c, task)
}

// GetTask retrieves a task by ID
// GET /api/admin/analysis/tasks/:id
func (h *AnalysisTaskHandler) GetTask(c *gin.Context) {
	id, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	task, err := h.service.GetTask(id)
	if err != nil {
		respondError(c, err, "Failed to get task")
		return
	}

	response.Success(c, task)
}

// ListTasks retrieves all tasks
// GET /api/admin/analysis/tasks
func (h *AnalysisTaskHandler) ListTasks(c *gin.Context) {
	skillName := c.Query("skill_name")
	status := c.Query("status")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}

	tasks, err := h.service.ListTasks(skillName, status, limit, offset)
	if err != nil {
		respondError(c, err, "Failed to list tasks")
		return
	}

	response.Success(c, gin.H{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}

// CancelTask cancels a pending or running task
// DELETE /api/admin/analysis/tasks/:id
func (h *AnalysisTaskHandler) CancelTask(c *gin.Context) {
	id, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	if err := h.service.CancelTask(id); err != nil {
		respondError(c, err, "Failed to cancel task")
		return
	}

	response.Success(c, gin.H{"message": "Task cancelled successfully"})
}

// TriggerAnalysisChainRequest represents the request body for triggering an analysis chain
type TriggerAnalysisChainRequest struct {
	TaskType string `json:"task_type" binding:"required"` // INCREMENTAL or FULL_RECOMPUTE
}

// TriggerAnalysisChain starts one task per registered skill
// POST /api/admin/analysis/trigger-chain
func (h *AnalysisTaskHandler) TriggerAnalysisChain(c *gin.Context) {
	var req TriggerAnalysisChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	taskIDs, err := h.service.TriggerAnalysisChain(req.TaskType, currentUser(c, "admin"))
	if err != nil {
		respondError(c, err, "Failed to trigger analysis chain")
		return
	}

	response.Created(c, gin.H{
		"message":  "Analysis chain triggered successfully",
		"task_ids": taskIDs,
	})
}
