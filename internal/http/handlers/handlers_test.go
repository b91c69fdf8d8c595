package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-schedule/internal/domain"
	"service-schedule/internal/logger"
	"service-schedule/internal/repository/memory"
	"service-schedule/internal/schedule"
	"service-schedule/internal/service"
)

var testLoc = time.FixedZone("PHT", 8*60*60)

var adminID = uuid.MustParse("0f6f3c52-9a1e-4b1d-8c2e-5d7a9b3c1e20")

type stubIdentity struct{}

func (stubIdentity) GetMe(_ context.Context, userID uuid.UUID) (service.IdentityUser, error) {
	if userID == adminID {
		return service.IdentityUser{ID: userID, Roles: []string{service.RoleAdmin}}, nil
	}
	return service.IdentityUser{ID: userID, Roles: []string{"student"}}, nil
}

func strPtr(s string) *string { return &s }

func newTestMux(t *testing.T) (*http.ServeMux, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.AddCourse(domain.Course{
		ID:         42,
		Code:       "CS201",
		Title:      "Data Structures",
		Instructor: "R. Santos",
		ClassStart: strPtr("09:00:00"),
		ClassEnd:   strPtr("10:30:00"),
		WeekMask:   domain.WeekMask{time.Monday: true, time.Wednesday: true, time.Friday: true},
	})
	store.AddCourse(domain.Course{ID: 7, Code: "PE101", Title: "Physical Education"})

	log := logger.Discard()
	projector := schedule.NewProjector(log)

	mux := http.NewServeMux()
	enrollments := service.NewEnrollmentService(store, stubIdentity{}, projector, testLoc, log)
	NewScheduleHandler(service.NewScheduleService(store, projector, testLoc, log), log).Register(mux)
	NewEnrollmentHandler(enrollments, log).Register(mux)
	NewEventHandler(service.NewEventService(store, log), log).Register(mux)
	NewAdminHandler(enrollments, log).Register(mux)
	return mux, store
}

func do(t *testing.T, mux http.Handler, method, target string, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		req.Header.Set(userIDHeader, userID.String())
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestEnrollmentEndpoints(t *testing.T) {
	mux, store := newTestMux(t)
	userID := uuid.New()

	rec := do(t, mux, http.MethodPost, "/enrollments", userID, `{"course_id":42}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[enrollResponse](t, rec)
	assert.True(t, created.Scheduled)
	assert.Empty(t, created.Warning)
	assert.Len(t, store.Events(), int(created.Materialized))

	rec = do(t, mux, http.MethodPost, "/enrollments", userID, `{"course_id":42}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[errorResponse](t, rec).Message)

	rec = do(t, mux, http.MethodDelete, "/enrollments/42", userID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, store.Enrollments())

	rec = do(t, mux, http.MethodDelete, "/enrollments/42", userID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollWithoutScheduleWarns(t *testing.T) {
	mux, store := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/enrollments", uuid.New(), `{"course_id":7}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[enrollResponse](t, rec)
	assert.False(t, resp.Scheduled)
	assert.Equal(t, scheduleWarning, resp.Warning)
	assert.Len(t, store.Enrollments(), 1)
}

func TestEnrollmentRequestErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	tests := []struct {
		name   string
		method string
		target string
		userID uuid.UUID
		header string
		body   string
		want   int
	}{
		{name: "missing identity", method: http.MethodPost, target: "/enrollments", body: `{"course_id":42}`, want: http.StatusUnauthorized},
		{name: "malformed identity", method: http.MethodPost, target: "/enrollments", header: "not-a-uuid", body: `{"course_id":42}`, want: http.StatusBadRequest},
		{name: "zero course", method: http.MethodPost, target: "/enrollments", userID: uuid.New(), body: `{"course_id":0}`, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, target: "/enrollments", userID: uuid.New(), body: `{"course":42}`, want: http.StatusBadRequest},
		{name: "unknown course", method: http.MethodPost, target: "/enrollments", userID: uuid.New(), body: `{"course_id":99}`, want: http.StatusNotFound},
		{name: "non numeric course", method: http.MethodDelete, target: "/enrollments/abc", userID: uuid.New(), want: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			if tc.userID != uuid.Nil {
				req.Header.Set(userIDHeader, tc.userID.String())
			}
			if tc.header != "" {
				req.Header.Set(userIDHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestScheduleEndpoints(t *testing.T) {
	mux, _ := newTestMux(t)
	userID := uuid.New()
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/enrollments", userID, `{"course_id":42}`).Code)

	rec := do(t, mux, http.MethodPost, "/events", userID,
		`{"title":"Review session","start":"2026-12-02T13:00:00+08:00","end":"2026-12-02T14:00:00+08:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("range", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/schedule/events?from=2026-11-30&to=2026-12-06", userID, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[eventsResponse](t, rec)
		require.Len(t, resp.Events, 4)
		assert.Equal(t, "course-42-2026-11-30", resp.Events[0].ID)
		assert.Equal(t, "course-42-2026-12-02", resp.Events[1].ID)
		assert.Equal(t, "Review session", resp.Events[2].Title)
		assert.False(t, resp.Events[2].IsCourseEvent)
		assert.Equal(t, "course-42-2026-12-04", resp.Events[3].ID)
	})

	t.Run("day", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/schedule/day?date=2026-12-02", userID, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[dayResponse](t, rec)
		assert.Equal(t, "2026-12-02", resp.Date)
		require.Len(t, resp.Events, 2)
		assert.True(t, resp.Events[0].IsCourseEvent)
	})

	t.Run("calendar", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/schedule/calendar.ics?from=2026-11-30&to=2026-12-06", userID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "UID:course-42-2026-11-30@service-schedule")
		assert.Contains(t, rec.Body.String(), "SUMMARY:Review session")
	})

	t.Run("catalog", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/courses", userID, "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[struct {
			Courses []courseResponse `json:"courses"`
		}](t, rec)
		require.Len(t, resp.Courses, 2)
		assert.Equal(t, "CS201", resp.Courses[0].Code)
		assert.True(t, resp.Courses[0].Enrolled)
		assert.Equal(t, []string{"Monday", "Wednesday", "Friday"}, resp.Courses[0].Days)
		assert.False(t, resp.Courses[1].Enrolled)
	})

	t.Run("bad input", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/schedule/events?from=yesterday", userID, "").Code)
		assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/schedule/events?from=2026-12-06&to=2026-11-30", userID, "").Code)

		rec := do(t, mux, http.MethodGet, "/schedule/events?from=0001-01-01&to=9999-12-31", userID, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "range must not exceed 361 days")
		assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/schedule/calendar.ics?from=2020-01-01&to=2026-12-31", userID, "").Code)
		assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/schedule/day?date=02/12/2026", userID, "").Code)
		assert.Equal(t, http.StatusUnauthorized, do(t, mux, http.MethodGet, "/schedule/day", uuid.Nil, "").Code)
	})
}

func TestEventEndpoints(t *testing.T) {
	mux, store := newTestMux(t)
	owner, intruder := uuid.New(), uuid.New()

	rec := do(t, mux, http.MethodPost, "/events", owner,
		`{"title":"Org meeting","start":"2026-10-20T16:00:00+08:00","end":"2026-10-20T17:00:00+08:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[eventResponse](t, rec)
	target := "/events/" + created.ID.String()

	rec = do(t, mux, http.MethodPut, target, intruder,
		`{"title":"Hijacked","start":"2026-10-20T16:00:00+08:00","end":"2026-10-20T17:00:00+08:00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodDelete, target, intruder, "").Code)
	assert.Equal(t, "Org meeting", store.Events()[0].Title)

	rec = do(t, mux, http.MethodPut, target, owner,
		`{"title":"Org meeting (moved)","start":"2026-10-20T17:00:00+08:00","end":"2026-10-20T18:00:00+08:00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Org meeting (moved)", decode[eventResponse](t, rec).Title)

	assert.Equal(t, http.StatusNoContent, do(t, mux, http.MethodDelete, target, owner, "").Code)
	assert.Empty(t, store.Events())
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodDelete, "/events/not-a-uuid", owner, "").Code)
}

func TestCreateEventValidationBody(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/events", uuid.New(),
		`{"title":"","start":"2026-10-20T17:00:00+08:00","end":"2026-10-20T16:00:00+08:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "invalid event", resp.Message)
	assert.Equal(t, "this field is required", resp.Errors["title"])
	assert.Equal(t, "end must not be before start", resp.Errors["end"])
}

func TestAdminMaterialize(t *testing.T) {
	mux, _ := newTestMux(t)
	studentID := uuid.New()
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/enrollments", studentID, `{"course_id":42}`).Code)

	body := `{"user_id":"` + studentID.String() + `"}`

	rec := do(t, mux, http.MethodPost, "/admin/schedule/materialize", studentID, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, mux, http.MethodPost, "/admin/schedule/materialize", adminID, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[materializeResponse](t, rec)
	assert.Equal(t, studentID, resp.UserID)
	assert.Equal(t, 1, resp.Courses)
	assert.Zero(t, resp.Materialized)

	rec = do(t, mux, http.MethodPost, "/admin/schedule/materialize", adminID, `{"user_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
