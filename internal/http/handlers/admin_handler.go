package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"service-schedule/internal/logger"
	"service-schedule/internal/service"
)

type AdminHandler struct {
	service *service.EnrollmentService
	log     *logger.Logger
}

func NewAdminHandler(svc *service.EnrollmentService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{service: svc, log: log}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/schedule/materialize", h.handleMaterialize)
}

type materializeRequest struct {
	UserID string `json:"user_id"`
}

type materializeResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	Courses      int       `json:"courses"`
	Materialized int64     `json:"materialized"`
	Incomplete   int       `json:"incomplete"`
}

func (h *AdminHandler) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterID(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	var req materializeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, h.log, r, service.NewValidationError("invalid user",
			service.FieldError{Field: "user_id", Error: "user_id must be a UUID"}))
		return
	}

	summary, err := h.service.RematerializeUser(r.Context(), requester, userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, materializeResponse{
		UserID:       userID,
		Courses:      summary.Courses,
		Materialized: summary.Materialized,
		Incomplete:   len(summary.Warnings),
	})
}
