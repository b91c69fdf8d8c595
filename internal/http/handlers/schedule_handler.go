package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-schedule/internal/calendar"
	"service-schedule/internal/domain"
	"service-schedule/internal/logger"
	"service-schedule/internal/service"
)

type ScheduleHandler struct {
	service *service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(svc *service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: svc, log: log}
}

func (h *ScheduleHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /courses", h.handleCatalog)
	mux.HandleFunc("GET /schedule/events", h.handleEvents)
	mux.HandleFunc("GET /schedule/day", h.handleDay)
	mux.HandleFunc("GET /schedule/calendar.ics", h.handleCalendar)
}

type courseResponse struct {
	ID         int64    `json:"id"`
	Code       string   `json:"course_code"`
	Title      string   `json:"course_name"`
	Instructor string   `json:"instructor,omitempty"`
	ClassStart *string  `json:"class_start_time"`
	ClassEnd   *string  `json:"class_end_time"`
	Days       []string `json:"days"`
	Enrolled   bool     `json:"enrolled"`
}

type eventsResponse struct {
	From   time.Time            `json:"from"`
	To     time.Time            `json:"to"`
	Events []domain.MergedEvent `json:"events"`
}

type dayResponse struct {
	Date   string               `json:"date"`
	Events []domain.MergedEvent `json:"events"`
}

func (h *ScheduleHandler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	entries, err := h.service.Catalog(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	courses := make([]courseResponse, 0, len(entries))
	for _, entry := range entries {
		days := make([]string, 0, 7)
		for _, weekday := range entry.Course.WeekMask.Weekdays() {
			days = append(days, weekday.String())
		}
		courses = append(courses, courseResponse{
			ID:         entry.Course.ID,
			Code:       entry.Course.Code,
			Title:      entry.Course.Title,
			Instructor: entry.Course.Instructor,
			ClassStart: entry.Course.ClassStart,
			ClassEnd:   entry.Course.ClassEnd,
			Days:       days,
			Enrolled:   entry.Enrolled,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

func (h *ScheduleHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID, from, to, err := h.rangeRequest(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	events, err := h.service.Events(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{From: from, To: to, Events: events})
}

func (h *ScheduleHandler) handleDay(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	date := h.service.Today()
	if value := strings.TrimSpace(r.URL.Query().Get("date")); value != "" {
		date, err = time.ParseInLocation(isoDate, value, h.service.Location())
		if err != nil {
			writeError(w, h.log, r, service.NewValidationError("invalid date",
				service.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"}))
			return
		}
	}

	events, err := h.service.EventsForDay(r.Context(), userID, date)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dayResponse{Date: date.Format(isoDate), Events: events})
}

func (h *ScheduleHandler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, from, to, err := h.rangeRequest(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	events, err := h.service.Events(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(calendar.Export("Class schedule", events, time.Now())))
}

// rangeRequest resolves the requester and the from/to query bounds, falling
// back to the default range for whichever bound is absent.
func (h *ScheduleHandler) rangeRequest(r *http.Request) (uuid.UUID, time.Time, time.Time, error) {
	userID, err := requesterID(r)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}

	from, to := h.service.DefaultRange()
	query := r.URL.Query()
	var fields []service.FieldError

	if value := strings.TrimSpace(query.Get("from")); value != "" {
		if from, err = parseInstant(value, h.service.Location(), false); err != nil {
			fields = append(fields, service.FieldError{Field: "from", Error: "from must be RFC 3339 or YYYY-MM-DD"})
		}
	}
	if value := strings.TrimSpace(query.Get("to")); value != "" {
		if to, err = parseInstant(value, h.service.Location(), true); err != nil {
			fields = append(fields, service.FieldError{Field: "to", Error: "to must be RFC 3339 or YYYY-MM-DD"})
		}
	}
	if len(fields) > 0 {
		return uuid.Nil, time.Time{}, time.Time{}, service.NewValidationError("invalid range", fields...)
	}

	return userID, from, to, nil
}
