package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/logger"
	"github.com/noted-app/noted-api/internal/validation"
)

// FolderHandler serves the folder routes. Folders are mostly derived from
// hashtags; the routes cover listing plus the manual create and delete.
type FolderHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewFolderHandler creates a folder handler.
func NewFolderHandler(e *engine.Engine, log *zap.Logger) *FolderHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FolderHandler{engine: e, logger: log}
}

// RegisterRoutes registers the folder routes on the given subrouter.
func (h *FolderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.ListFolders).Methods("GET")
	router.HandleFunc("", h.CreateFolder).Methods("POST")
	router.HandleFunc("/{id}", h.DeleteFolder).Methods("DELETE")
}

// ListFolders returns all folders, auto-generated and manual.
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Folders())
}

// CreateFolderRequest is the payload for creating a manual folder.
type CreateFolderRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateFolder creates a manual folder. Folder names are unique ignoring
// case; a clash answers 409.
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON payload")
		return
	}
	req.Name = validation.SanitizeText(req.Name)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and must be at most 100 characters")
		return
	}

	id, err := h.engine.CreateFolder(r.Context(), req.Name)
	if err != nil {
		h.logger.Warn("folder_create_failed", zap.String("name", req.Name), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id, "name": req.Name})
}

// DeleteFolder removes a folder. Notes keep their hashtags; an auto folder
// whose tag is still in use reappears on the next sync.
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.engine.DeleteFolder(r.Context(), id); err != nil {
		h.logger.Error("folder_delete_failed", zap.String("folder_id", id), zap.String("error", logger.SanitizeError(err)))
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Folder deleted successfully"})
}
