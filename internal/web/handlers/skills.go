package handlers

import (
	"net/http"
)

type createSkillRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ListSkills returns the global skill catalog
func (h *Handlers) ListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.db.ListSkills()
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]any{"skills": skills})
}

// CreateSkill adds a skill to the catalog
func (h *Handlers) CreateSkill(w http.ResponseWriter, r *http.Request) {
	var req createSkillRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.db.CreateSkill(req.Name); err != nil {
		h.storeError(w, err)
		return
	}
	h.jsonSuccess(w, http.StatusCreated, "Skill created")
}

// ListProjectSkills returns the skill names linked to a project
func (h *Handlers) ListProjectSkills(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.idParam(w, r, "projectID")
	if !ok {
		return
	}

	names, err := h.db.GetSkillsForProject(projectID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]any{"skills": names})
}

// AddProjectSkill links a skill to a project
func (h *Handlers) AddProjectSkill(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.idParam(w, r, "projectID")
	if !ok {
		return
	}
	skillID, ok := h.idParam(w, r, "skillID")
	if !ok {
		return
	}

	if err := h.db.AddSkillToProject(projectID, skillID); err != nil {
		h.storeError(w, err)
		return
	}
	h.jsonSuccess(w, http.StatusCreated, "Skill added")
}

// RemoveProjectSkill unlinks a skill from a project
func (h *Handlers) RemoveProjectSkill(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.idParam(w, r, "projectID")
	if !ok {
		return
	}
	skillID, ok := h.idParam(w, r, "skillID")
	if !ok {
		return
	}

	removed, err := h.db.DeleteSkill(projectID, skillID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if removed == 0 {
		h.jsonError(w, "Skill not linked to project", http.StatusNotFound)
		return
	}
	h.jsonSuccess(w, http.StatusOK, "Skill removed")
}

// ListStatuses returns the project status catalog
func (h *Handlers) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.db.ListStatuses()
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]any{"statuses": statuses})
}
