package local

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"secondbrain-backend/application/repository"
	"secondbrain-backend/pkg/common"
	"secondbrain-backend/pkg/utils"
)

// CourseHandler handles the course list
type CourseHandler struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(repo *repository.Repository, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{repo: repo, logger: logger}
}

// ListCourses handles GET /v1/courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.repo.Courses())
}

// AddCourseRequest represents the request body for adding a course
type AddCourseRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// AddCourse handles POST /v1/courses. Adding an existing course is not an
// error; the set just does not change.
func (h *CourseHandler) AddCourse(w http.ResponseWriter, r *http.Request) {
	var req AddCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	added := h.repo.AddCourse(req.Name)
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"added":   added,
		"courses": h.repo.Courses(),
	})
}
