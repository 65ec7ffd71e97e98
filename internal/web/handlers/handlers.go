package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/projectdb/internal/database"
)

// Store is the set of database operations the HTTP layer forwards to.
type Store interface {
	CreateUser(name, password string) error
	AuthenticateUser(name, password string) (int64, error)
	CreateProject(userID int64, name, description, url string, statusID int64) error
	GetProjectsForUser(userID int64) ([]string, error)
	GetProjectInfo(userID int64, name string) ([]database.ProjectInfo, error)
	UpdateProjectField(field database.ProjectField, value, projectName string, userID int64) (int64, error)
	DeleteProject(userID, projectID int64) (int64, error)
	CreateSkill(name string) error
	ListSkills() ([]database.Skill, error)
	AddSkillToProject(projectID, skillID int64) error
	GetSkillsForProject(projectID int64) ([]string, error)
	DeleteSkill(projectID, skillID int64) (int64, error)
	ListStatuses() ([]database.Status, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	db       Store
	validate *validator.Validate
}

// New creates a new Handlers instance
func New(db Store) *Handlers {
	return &Handlers{
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// decode reads a JSON body into v and validates its struct tags.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.jsonError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			h.jsonError(w, "Invalid field: "+verrs[0].Field(), http.StatusBadRequest)
			return false
		}
		h.jsonError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses a positive integer URL parameter.
func (h *Handlers) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.jsonError(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// storeError maps a database error to an HTTP response.
func (h *Handlers) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrConnection):
		h.jsonError(w, "Database unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, database.ErrUnknownField):
		h.jsonError(w, "Unknown project field", http.StatusBadRequest)
	case errors.Is(err, database.ErrStatement):
		h.jsonError(w, "Request rejected by the database", http.StatusBadRequest)
	default:
		h.jsonError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handlers) jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

func (h *Handlers) jsonSuccess(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]any{"success": true, "message": message})
}
