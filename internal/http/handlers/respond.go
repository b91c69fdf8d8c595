package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-schedule/internal/logger"
	"service-schedule/internal/schedule"
	"service-schedule/internal/service"
)

const userIDHeader = "X-User-ID"

const isoDate = "2006-01-02"

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// requesterID reads the caller identity set by the gateway.
func requesterID(r *http.Request) (uuid.UUID, error) {
	value := strings.TrimSpace(r.Header.Get(userIDHeader))
	if value == "" {
		return uuid.Nil, service.ErrUnauthorized
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, service.NewValidationError("invalid "+userIDHeader+" header")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return service.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, log *logger.Logger, r *http.Request, err error) {
	var status int
	body := errorResponse{}

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body.Message = verr.Error()
		if len(verr.Fields) > 0 {
			body.Errors = make(map[string]string, len(verr.Fields))
			for _, field := range verr.Fields {
				body.Errors[field.Field] = field.Error
			}
		}
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		log.Error("request failed", err, "method", r.Method, "path", r.URL.Path)
	}

	if body.Message == "" {
		body.Message = strings.ToLower(http.StatusText(status))
	}
	writeJSON(w, status, body)
}

// parseInstant accepts RFC 3339 or a bare date. A bare date means the start
// of that day in loc, or its last instant when endOfDay is set.
func parseInstant(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	day, err := time.ParseInLocation(isoDate, value, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return schedule.DayWindow(day).End, nil
	}
	return day, nil
}
