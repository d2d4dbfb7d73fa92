package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/logger"
	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
	"github.com/noted-app/noted-api/internal/validation"
)

// TaskHandler serves the merged task view: standalone and note-embedded
// tasks behind one set of routes.
type TaskHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(e *engine.Engine, log *zap.Logger) *TaskHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskHandler{engine: e, logger: log}
}

// RegisterRoutes registers the task routes on the given subrouter.
func (h *TaskHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.ListTasks).Methods("GET")
	router.HandleFunc("", h.CreateTask).Methods("POST")
	router.HandleFunc("/{id}", h.GetTask).Methods("GET")
	router.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	router.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	router.HandleFunc("/{id}/toggle", h.ToggleTask).Methods("POST")
	router.HandleFunc("/{id}/steps", h.AddStep).Methods("POST")
	router.HandleFunc("/{id}/steps/{stepId}/toggle", h.ToggleStep).Methods("POST")
	router.HandleFunc("/{id}/steps/{stepId}", h.DeleteStep).Methods("DELETE")
}

// taskView decorates a combined task with its derived due-date label.
type taskView struct {
	models.CombinedTask
	DueLabel string `json:"due_label,omitempty"`
}

func (h *TaskHandler) view(task models.CombinedTask) taskView {
	return taskView{
		CombinedTask: task,
		DueLabel:     engine.DueDateLabel(task.DueDate, time.Now()),
	}
}

// ListTasks returns the priority-sorted merged task list. The completed
// query parameter partitions by completion state.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.engine.CombinedTasks()
	if completed := r.URL.Query().Get("completed"); completed != "" {
		switch completed {
		case "true":
			tasks = engine.FilterByCompletion(tasks, true)
		case "false":
			tasks = engine.FilterByCompletion(tasks, false)
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "completed must be true or false")
			return
		}
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, h.view(t))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetTask returns one task from the merged view.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	task, ok := h.engine.CombinedTaskByID(id)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, h.view(task))
}

// CreateStandaloneTaskRequest is the payload for creating a top-level task.
type CreateStandaloneTaskRequest struct {
	Description string `json:"description" validate:"required,min=1,max=10000"`
}

// CreateTask creates a standalone task. Tasks inside notes are created
// through the note routes instead.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateStandaloneTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	req.Description = validation.SanitizeText(req.Description)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Description is required")
		return
	}

	id, err := h.engine.CreateStandaloneTask(r.Context(), req.Description)
	if err != nil {
		h.logger.Error("task_create_failed", zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	task, _ := h.engine.CombinedTaskByID(id)
	respondJSON(w, http.StatusCreated, h.view(task))
}

// UpdateTaskRequest is a partial standalone-task update. DueDate and
// ReminderTime distinguish absent (unchanged) from null (cleared), so they
// decode through optionalTime.
type UpdateTaskRequest struct {
	Description  *string       `json:"description,omitempty" validate:"omitempty,min=1,max=10000"`
	Urgency      *string       `json:"urgency,omitempty" validate:"omitempty,urgency_level"`
	Importance   *int          `json:"importance,omitempty" validate:"omitempty,min=0,max=10"`
	DueDate      *optionalTime `json:"due_date,omitempty"`
	ReminderTime *optionalTime `json:"reminder_time,omitempty"`
}

// optionalTime is a nullable RFC 3339 timestamp. Present-but-null clears the
// field; a present value sets it.
type optionalTime struct {
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// UpdateTask applies a partial update to a standalone task. Embedded tasks
// carry their note's priority and are edited through the note.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	task, ok := h.engine.CombinedTaskByID(id)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if task.Origin == models.OriginEmbedded {
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity",
			"Embedded tasks inherit priority from their note; edit the note instead")
		return
	}

	var req UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	if req.Description != nil {
		desc := validation.SanitizeText(*req.Description)
		req.Description = &desc
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task fields")
		return
	}

	patch := storage.StandaloneTaskPatch{
		Description: req.Description,
		Importance:  req.Importance,
	}
	if req.Urgency != nil {
		urgency := models.UrgencyLevel(*req.Urgency)
		patch.Urgency = &urgency
	}
	if req.DueDate != nil {
		patch.SetDueDate = true
		patch.DueDate = req.DueDate.Value
	}
	if req.ReminderTime != nil {
		patch.SetReminderTime = true
		patch.ReminderTime = req.ReminderTime.Value
	}
	if err := h.engine.UpdateStandaloneTask(r.Context(), id, patch); err != nil {
		h.logger.Error("task_update_failed", zap.String("task_id", id), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	updated, _ := h.engine.CombinedTaskByID(id)
	respondJSON(w, http.StatusOK, h.view(updated))
}

// ToggleTask flips a task's completion state.
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	task, ok := h.engine.CombinedTaskByID(id)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if len(task.Steps) > 0 {
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity",
			"Tasks with steps derive completion from the steps")
		return
	}

	if err := h.engine.ToggleTask(r.Context(), task); err != nil {
		h.logger.Error("task_toggle_failed", zap.String("task_id", id), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	updated, _ := h.engine.CombinedTaskByID(id)
	respondJSON(w, http.StatusOK, h.view(updated))
}

// DeleteTask removes a task, routing by origin to the owning representation.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	task, ok := h.engine.CombinedTaskByID(id)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err := h.engine.DeleteTask(r.Context(), task); err != nil {
		h.logger.Error("task_delete_failed", zap.String("task_id", id), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// AddStepRequest is the payload for adding a checklist step.
type AddStepRequest struct {
	Description string `json:"description" validate:"required,min=1,max=1000"`
}

// AddStep appends a checklist step to a task.
func (h *TaskHandler) AddStep(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req AddStepRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	req.Description = validation.SanitizeText(req.Description)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Description is required")
		return
	}

	ed, err := h.engine.EditTask(id)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	ed.SetInput(req.Description)
	stepID, err := ed.AddStep(r.Context())
	if err != nil {
		h.logger.Error("step_add_failed", zap.String("task_id", id), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	task, _ := h.engine.CombinedTaskByID(id)
	respondJSON(w, http.StatusCreated, map[string]any{"step_id": stepID, "task": h.view(task)})
}

// ToggleStep flips one step and rederives the task's completion state.
func (h *TaskHandler) ToggleStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID, stepID := vars["id"], vars["stepId"]

	ed, err := h.engine.EditTask(taskID)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	if err := ed.ToggleStep(r.Context(), stepID); err != nil {
		h.logger.Error("step_toggle_failed",
			zap.String("task_id", taskID),
			zap.String("step_id", stepID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondStorageError(w, err)
		return
	}
	task, _ := h.engine.CombinedTaskByID(taskID)
	respondJSON(w, http.StatusOK, h.view(task))
}

// DeleteStep removes one step and rederives the task's completion state.
func (h *TaskHandler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID, stepID := vars["id"], vars["stepId"]

	ed, err := h.engine.EditTask(taskID)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	if err := ed.DeleteStep(r.Context(), stepID); err != nil {
		h.logger.Error("step_delete_failed",
			zap.String("task_id", taskID),
			zap.String("step_id", stepID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondStorageError(w, err)
		return
	}
	task, _ := h.engine.CombinedTaskByID(taskID)
	respondJSON(w, http.StatusOK, h.view(task))
}
