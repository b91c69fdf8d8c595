package handlers

import (
	"net/http"
	"strconv"

	"service-schedule/internal/logger"
	"service-schedule/internal/service"
)

// Shown to the student when the enrollment went through but the calendar
// could not be updated.
const scheduleWarning = "enrolled, but schedule not fully updated"

type EnrollmentHandler struct {
	service *service.EnrollmentService
	log     *logger.Logger
}

func NewEnrollmentHandler(svc *service.EnrollmentService, log *logger.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, log: log}
}

func (h *EnrollmentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /enrollments", h.handleEnroll)
	mux.HandleFunc("DELETE /enrollments/{courseID}", h.handleUnenroll)
}

type enrollRequest struct {
	CourseID int64 `json:"course_id"`
}

type enrollResponse struct {
	CourseID     int64  `json:"course_id"`
	Scheduled    bool   `json:"scheduled"`
	Materialized int64  `json:"materialized"`
	Warning      string `json:"warning,omitempty"`
}

type unenrollResponse struct {
	CourseID int64  `json:"course_id"`
	Removed  int64  `json:"removed"`
	Warning  string `json:"warning,omitempty"`
}

func (h *EnrollmentHandler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	result, err := h.service.Enroll(r.Context(), userID, req.CourseID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	resp := enrollResponse{
		CourseID:     result.CourseID,
		Scheduled:    result.Scheduled,
		Materialized: result.Materialized,
	}
	if result.Warning != nil {
		resp.Warning = scheduleWarning
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *EnrollmentHandler) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	courseID, err := strconv.ParseInt(r.PathValue("courseID"), 10, 64)
	if err != nil {
		writeError(w, h.log, r, service.NewValidationError("invalid course",
			service.FieldError{Field: "course_id", Error: "course_id must be a positive integer"}))
		return
	}

	result, err := h.service.Unenroll(r.Context(), userID, courseID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	resp := unenrollResponse{CourseID: result.CourseID, Removed: result.Removed}
	if result.Warning != nil {
		resp.Warning = scheduleWarning
	}
	writeJSON(w, http.StatusOK, resp)
}
