package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/logger"
	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
	"github.com/noted-app/noted-api/internal/validation"
)

// NoteHandler serves the note, entry, and folder-scoped routes.
type NoteHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewNoteHandler creates a note handler.
func NewNoteHandler(e *engine.Engine, log *zap.Logger) *NoteHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoteHandler{engine: e, logger: log}
}

// RegisterRoutes registers the note routes on the given subrouter.
func (h *NoteHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.ListNotes).Methods("GET")
	router.HandleFunc("", h.CreateNote).Methods("POST")
	router.HandleFunc("/{id}", h.GetNote).Methods("GET")
	router.HandleFunc("/{id}", h.UpdateNote).Methods("PATCH")
	router.HandleFunc("/{id}", h.DeleteNote).Methods("DELETE")
	router.HandleFunc("/{id}/entries", h.AddEntry).Methods("POST")
	router.HandleFunc("/{id}/entries/{entryId}", h.UpdateEntry).Methods("PATCH")
	router.HandleFunc("/{id}/entries/{entryId}", h.DeleteEntry).Methods("DELETE")
	router.HandleFunc("/{id}/tasks", h.CreateTask).Methods("POST")
}

// ListNotes returns all notes sorted by priority, optionally filtered by the
// q, folder, and format query parameters.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	filter := engine.NoteFilter{
		Query:  validation.SanitizeText(r.URL.Query().Get("q")),
		Folder: validation.SanitizeText(r.URL.Query().Get("folder")),
	}
	if format := r.URL.Query().Get("format"); format != "" {
		if err := validation.ValidateEntryFormat(format); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		filter.Format = models.EntryFormat(format)
	}
	respondJSON(w, http.StatusOK, h.engine.SearchNotes(filter))
}

// CreateNoteRequest is the payload for creating a note.
type CreateNoteRequest struct {
	Title string `json:"title" validate:"required,min=1,max=500"`
}

// CreateNote creates a note with an empty timeline.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	req.Title = validation.SanitizeText(req.Title)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and must be at most 500 characters")
		return
	}

	id, err := h.engine.CreateNote(r.Context(), req.Title)
	if err != nil {
		h.logger.Error("note_create_failed", zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	note, _ := h.engine.NoteByID(id)
	respondJSON(w, http.StatusCreated, note)
}

// GetNote returns one note with its entries and tasks.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	note, ok := h.engine.NoteByID(id)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Note not found")
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// UpdateNoteRequest is a partial note update. Absent fields are unchanged.
type UpdateNoteRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Urgency    *string `json:"urgency,omitempty" validate:"omitempty,urgency_level"`
	Importance *int    `json:"importance,omitempty" validate:"omitempty,min=0,max=10"`
}

// UpdateNote applies a partial update to a note's title or priority.
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		req.Title = &title
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid note fields")
		return
	}

	patch := storage.NotePatch{
		Title:      req.Title,
		Importance: req.Importance,
	}
	if req.Urgency != nil {
		urgency := models.UrgencyLevel(*req.Urgency)
		patch.Urgency = &urgency
	}
	if err := h.engine.UpdateNote(r.Context(), id, patch); err != nil {
		h.logger.Error("note_update_failed", zap.String("note_id", id), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	note, _ := h.engine.NoteByID(id)
	respondJSON(w, http.StatusOK, note)
}

// DeleteNote removes a note, its entries and tasks, and any auto-created
// folders left without notes.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.engine.DeleteNote(r.Context(), id); err != nil {
		h.logger.Error("note_delete_failed", zap.String("note_id", id), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

// AddEntryRequest is the payload for appending an entry to a note's timeline.
type AddEntryRequest struct {
	Content string             `json:"content" validate:"required,min=1,max=10000"`
	Formats []string           `json:"formats,omitempty" validate:"omitempty,dive,entry_format"`
	Data    *models.FormatData `json:"data,omitempty"`
}

// AddEntry appends an entry; hashtags and folders resync afterwards.
func (h *NoteHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	var req AddEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	req.Content = validation.SanitizeText(req.Content)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Content is required and formats must be valid")
		return
	}

	formats := make([]models.EntryFormat, 0, len(req.Formats))
	for _, f := range req.Formats {
		formats = append(formats, models.EntryFormat(f))
	}
	entryID, err := h.engine.AddEntry(r.Context(), noteID, req.Content, formats, req.Data)
	if err != nil {
		h.logger.Error("entry_add_failed", zap.String("note_id", noteID), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	note, _ := h.engine.NoteByID(noteID)
	respondJSON(w, http.StatusCreated, map[string]any{"entry_id": entryID, "note": note})
}

// UpdateEntryRequest is a partial entry update.
type UpdateEntryRequest struct {
	Content *string            `json:"content,omitempty" validate:"omitempty,min=1,max=10000"`
	Formats *[]string          `json:"formats,omitempty" validate:"omitempty,dive,entry_format"`
	Data    *models.FormatData `json:"data,omitempty"`
}

// UpdateEntry edits an entry in place, marking it edited.
func (h *NoteHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	noteID, entryID := vars["id"], vars["entryId"]

	var req UpdateEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	if req.Content != nil {
		content := validation.SanitizeText(*req.Content)
		req.Content = &content
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid entry fields")
		return
	}

	patch := storage.EntryPatch{
		Content: req.Content,
		Data:    req.Data,
	}
	if req.Formats != nil {
		formats := make([]models.EntryFormat, 0, len(*req.Formats))
		for _, f := range *req.Formats {
			formats = append(formats, models.EntryFormat(f))
		}
		patch.Formats = &formats
	}
	if err := h.engine.UpdateEntry(r.Context(), noteID, entryID, patch); err != nil {
		h.logger.Error("entry_update_failed",
			zap.String("note_id", noteID),
			zap.String("entry_id", entryID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondStorageError(w, err)
		return
	}
	note, _ := h.engine.NoteByID(noteID)
	respondJSON(w, http.StatusOK, note)
}

// DeleteEntry removes an entry; hashtags and folders resync afterwards.
func (h *NoteHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	noteID, entryID := vars["id"], vars["entryId"]

	if err := h.engine.DeleteEntry(r.Context(), noteID, entryID); err != nil {
		h.logger.Error("entry_delete_failed",
			zap.String("note_id", noteID),
			zap.String("entry_id", entryID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondStorageError(w, err)
		return
	}
	note, _ := h.engine.NoteByID(noteID)
	respondJSON(w, http.StatusOK, note)
}

// CreateTaskRequest is the payload for creating a note-embedded task.
type CreateTaskRequest struct {
	Description string `json:"description" validate:"required,min=1,max=10000"`
}

// CreateTask creates a task embedded in the note. The task inherits the
// note's priority in the merged task view.
func (h *NoteHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	var req CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	req.Description = validation.SanitizeText(req.Description)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Description is required")
		return
	}

	taskID, err := h.engine.CreateTask(r.Context(), noteID, req.Description)
	if err != nil {
		h.logger.Error("task_create_failed", zap.String("note_id", noteID), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	task, _ := h.engine.CombinedTaskByID(taskID)
	respondJSON(w, http.StatusCreated, task)
}
