package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"service-schedule/internal/domain"
	"service-schedule/internal/logger"
	"service-schedule/internal/service"
)

type EventHandler struct {
	service *service.EventService
	log     *logger.Logger
}

func NewEventHandler(svc *service.EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{service: svc, log: log}
}

func (h *EventHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /events", h.handleCreate)
	mux.HandleFunc("PUT /events/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /events/{id}", h.handleDelete)
}

type eventRequest struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type eventResponse struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func newEventResponse(event domain.PersistedEvent) eventResponse {
	return eventResponse{ID: event.ID, Title: event.Title, Start: event.Start, End: event.End}
}

func (h *EventHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	event, err := h.service.Create(r.Context(), userID, service.NewEvent{Title: req.Title, Start: req.Start, End: req.End})
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newEventResponse(event))
}

func (h *EventHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, r, service.ErrNotFound)
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	event, err := h.service.Update(r.Context(), userID, eventID, service.UpdateEvent{Title: req.Title, Start: req.Start, End: req.End})
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

func (h *EventHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, r, service.ErrNotFound)
		return
	}

	if err := h.service.Delete(r.Context(), userID, eventID); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
