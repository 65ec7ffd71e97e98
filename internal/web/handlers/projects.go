package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/projectdb/internal/database"
)

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	URL         string `json:"url" validate:"omitempty,url"`
	StatusID    int64  `json:"status_id" validate:"required,gt=0"`
}

type updateProjectRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// ListProjects returns the project summaries of a user
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "userID")
	if !ok {
		return
	}

	projects, err := h.db.GetProjectsForUser(userID)
	if err != nil {
		h.storeError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{"projects": projects})
}

// CreateProject creates a project owned by the user in the URL
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "userID")
	if !ok {
		return
	}

	var req createProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.db.CreateProject(userID, req.Name, req.Description, req.URL, req.StatusID); err != nil {
		h.storeError(w, err)
		return
	}

	log.Info().Int64("user_id", userID).Str("project", req.Name).Msg("Project created")
	h.jsonSuccess(w, http.StatusCreated, "Project created")
}

// GetProject returns every project of the user with the given name
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "userID")
	if !ok {
		return
	}

	name, ok := h.nameParam(w, r)
	if !ok {
		return
	}

	projects, err := h.db.GetProjectInfo(userID, name)
	if err != nil {
		h.storeError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{"projects": projects})
}

// UpdateProject sets one field on the user's project(s) with the given name
func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "userID")
	if !ok {
		return
	}

	var req updateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	field, err := database.ParseProjectField(req.Field)
	if err != nil {
		h.jsonError(w, "Unknown project field", http.StatusBadRequest)
		return
	}
	if field == database.ProjectFieldPhoto {
		if err := ValidatePhotoPath(req.Value); err != nil {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	name, ok := h.nameParam(w, r)
	if !ok {
		return
	}
	updated, err := h.db.UpdateProjectField(field, req.Value, name, userID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if updated == 0 {
		h.jsonError(w, "Project not found", http.StatusNotFound)
		return
	}

	log.Info().Int64("user_id", userID).Str("project", name).Str("field", string(field)).Msg("Project updated")
	h.jsonResponse(w, http.StatusOK, map[string]int64{"updated": updated})
}

// DeleteProject removes a project of the user
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "userID")
	if !ok {
		return
	}
	projectID, ok := h.idParam(w, r, "projectID")
	if !ok {
		return
	}

	deleted, err := h.db.DeleteProject(userID, projectID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if deleted == 0 {
		h.jsonError(w, "Project not found", http.StatusNotFound)
		return
	}

	log.Info().Int64("user_id", userID).Int64("project_id", projectID).Msg("Project deleted")
	h.jsonSuccess(w, http.StatusOK, "Project deleted")
}

// nameParam returns the decoded project name from the URL. chi matches on the
// raw path when the request carries escaped separators, leaving the segment
// encoded.
func (h *Handlers) nameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, true
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		h.jsonError(w, "Invalid project name", http.StatusBadRequest)
		return "", false
	}
	return decoded, true
}
