package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-schedule/internal/domain"
	"service-schedule/internal/schedule"
)

func TestEnrollMaterializesCurrentWindow(t *testing.T) {
	store := seededStore(mwfCourse())
	svc := newEnrollmentService(store, fakeIdentity{})
	userID := uuid.New()

	result, err := svc.Enroll(context.Background(), userID, 42)
	require.NoError(t, err)
	assert.True(t, result.Scheduled)
	assert.NoError(t, result.Warning)
	assert.EqualValues(t, 6, result.Materialized)

	window := schedule.MaterializationWindow(testNow)
	events := store.Events()
	require.Len(t, events, 6)

	wantKeys := []string{
		"course-42-2026-10-12", "course-42-2026-10-14", "course-42-2026-10-16",
		"course-42-2026-10-19", "course-42-2026-10-21", "course-42-2026-10-23",
	}
	for i, event := range events {
		assert.True(t, window.Contains(event.Start), "start %s outside window", event.Start)
		assert.Equal(t, userID, event.UserID)
		require.NotNil(t, event.CourseID)
		assert.EqualValues(t, 42, *event.CourseID)
		assert.Equal(t, wantKeys[i], event.InstanceKey)
		assert.Equal(t, 90*time.Minute, event.End.Sub(event.Start))
		assert.Equal(t, schedule.MaterializedID(userID, event.InstanceKey), event.ID)
	}

	require.Len(t, store.Enrollments(), 1)
}

func TestEnrollTwiceIsConflict(t *testing.T) {
	store := seededStore(mwfCourse())
	svc := newEnrollmentService(store, fakeIdentity{})
	userID := uuid.New()

	_, err := svc.Enroll(context.Background(), userID, 42)
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), userID, 42)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, store.Events(), 6)
	assert.Len(t, store.Enrollments(), 1)
}

func TestEnrollWithoutScheduleDataStillEnrolls(t *testing.T) {
	store := seededStore(unscheduledCourse())
	svc := newEnrollmentService(store, fakeIdentity{})

	result, err := svc.Enroll(context.Background(), uuid.New(), 7)
	require.NoError(t, err)
	assert.False(t, result.Scheduled)
	assert.Zero(t, result.Materialized)
	assert.ErrorIs(t, result.Warning, ErrScheduleIncomplete)

	var incomplete *ScheduleIncompleteError
	require.ErrorAs(t, result.Warning, &incomplete)
	assert.EqualValues(t, 7, incomplete.CourseID)

	assert.Len(t, store.Enrollments(), 1)
	assert.Empty(t, store.Events())
}

func TestEnrollRejectsBadInput(t *testing.T) {
	store := seededStore(mwfCourse())
	svc := newEnrollmentService(store, fakeIdentity{})

	tests := []struct {
		name     string
		userID   uuid.UUID
		courseID int64
		wantErr  error
	}{
		{name: "zero course id", userID: uuid.New(), courseID: 0, wantErr: ErrInvalidInput},
		{name: "negative course id", userID: uuid.New(), courseID: -3, wantErr: ErrInvalidInput},
		{name: "unknown course", userID: uuid.New(), courseID: 999, wantErr: ErrNotFound},
		{name: "anonymous", userID: uuid.Nil, courseID: 42, wantErr: ErrUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Enroll(context.Background(), tc.userID, tc.courseID)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.Empty(t, store.Enrollments())
}

func TestEnrollKeepsEnrollmentWhenMaterializationFails(t *testing.T) {
	store := seededStore(mwfCourse())
	boom := errors.New("connection reset")
	tx := &faultyTx{inner: store, events: &failingEvents{insertErr: boom}}
	svc := newEnrollmentService(tx, fakeIdentity{})

	result, err := svc.Enroll(context.Background(), uuid.New(), 42)
	require.NoError(t, err)
	assert.False(t, result.Scheduled)
	assert.ErrorIs(t, result.Warning, ErrScheduleIncomplete)
	assert.ErrorIs(t, result.Warning, boom)
	assert.Len(t, store.Enrollments(), 1)
	assert.Empty(t, store.Events())
}

func TestUnenrollOnlyTouchesWindow(t *testing.T) {
	store := seededStore(mwfCourse())
	svc := newEnrollmentService(store, fakeIdentity{})
	userID := uuid.New()

	courseID := int64(42)
	old := schedule.Materialize(userID, domain.ProjectedOccurrence{
		SyntheticID: "course-42-2026-09-21",
		Title:       "Data Structures",
		Start:       time.Date(2026, 9, 21, 9, 0, 0, 0, testLoc),
		End:         time.Date(2026, 9, 21, 10, 30, 0, 0, testLoc),
		CourseID:    courseID,
	})
	seedEvents(store, old)

	_, err := svc.Enroll(context.Background(), userID, courseID)
	require.NoError(t, err)
	require.Len(t, store.Events(), 7)

	result, err := svc.Unenroll(context.Background(), userID, courseID)
	require.NoError(t, err)
	assert.NoError(t, result.Warning)
	assert.EqualValues(t, 6, result.Removed)

	remaining := store.Events()
	require.Len(t, remaining, 1)
	assert.Equal(t, old.ID, remaining[0].ID)
	assert.Empty(t, store.Enrollments())
}

func TestUnenrollLeavesOtherUsersRows(t *testing.T) {
	store := seededStore(mwfCourse())
	svc := newEnrollmentService(store, fakeIdentity{})
	alice, bob := uuid.New(), uuid.New()

	_, err := svc.Enroll(context.Background(), alice, 42)
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), bob, 42)
	require.NoError(t, err)

	_, err = svc.Unenroll(context.Background(), alice, 42)
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 6)
	for _, event := range events {
		assert.Equal(t, bob, event.UserID)
	}
}

func TestUnenrollDeleteFailureIsWarning(t *testing.T) {
	store := seededStore(mwfCourse())
	userID := uuid.New()
	_, err := newEnrollmentService(store, fakeIdentity{}).Enroll(context.Background(), userID, 42)
	require.NoError(t, err)

	boom := errors.New("statement timeout")
	tx := &faultyTx{inner: store, events: &failingEvents{deleteErr: boom}}
	result, err := newEnrollmentService(tx, fakeIdentity{}).Unenroll(context.Background(), userID, 42)

	require.NoError(t, err)
	assert.ErrorIs(t, result.Warning, ErrScheduleIncomplete)
	assert.Empty(t, store.Enrollments())
	assert.Len(t, store.Events(), 6)
}

func TestUnenrollWithoutEnrollment(t *testing.T) {
	svc := newEnrollmentService(seededStore(mwfCourse()), fakeIdentity{})

	_, err := svc.Unenroll(context.Background(), uuid.New(), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Unenroll(context.Background(), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRematerializeUser(t *testing.T) {
	adminID, studentID, studentCaller := uuid.New(), uuid.New(), uuid.New()
	identity := fakeIdentity{users: map[uuid.UUID]IdentityUser{
		adminID:       {ID: adminID, Roles: []string{"faculty", RoleAdmin}},
		studentCaller: {ID: studentCaller, Roles: []string{"student"}},
	}}

	store := seededStore(mwfCourse(), unscheduledCourse())
	svc := newEnrollmentService(store, identity)
	_, err := svc.Enroll(context.Background(), studentID, 42)
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), studentID, 7)
	require.NoError(t, err)

	t.Run("admin rerun is idempotent", func(t *testing.T) {
		summary, err := svc.RematerializeUser(context.Background(), adminID, studentID)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Users)
		assert.Equal(t, 2, summary.Courses)
		assert.Zero(t, summary.Materialized)
		require.Len(t, summary.Warnings, 1)
		assert.ErrorIs(t, summary.Warnings[0], ErrScheduleIncomplete)
		assert.Len(t, store.Events(), 6)
	})

	t.Run("non admin", func(t *testing.T) {
		_, err := svc.RematerializeUser(context.Background(), studentCaller, studentID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown requester", func(t *testing.T) {
		_, err := svc.RematerializeUser(context.Background(), uuid.New(), studentID)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.RematerializeUser(context.Background(), adminID, uuid.Nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestRematerializeAllRollsWindowForward(t *testing.T) {
	store := seededStore(mwfCourse())
	svc := newEnrollmentService(store, fakeIdentity{})
	alice, bob := uuid.New(), uuid.New()

	for _, userID := range []uuid.UUID{alice, bob} {
		_, err := svc.Enroll(context.Background(), userID, 42)
		require.NoError(t, err)
	}
	require.Len(t, store.Events(), 12)

	// The following Sunday the window covers Oct 18 to Oct 31.
	svc.clock = func() time.Time { return time.Date(2026, 10, 18, 0, 5, 0, 0, testLoc) }

	summary, err := svc.RematerializeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Users)
	assert.Equal(t, 2, summary.Courses)
	assert.EqualValues(t, 6, summary.Materialized)
	assert.Empty(t, summary.Warnings)
	assert.Len(t, store.Events(), 18)

	again, err := svc.RematerializeAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Materialized)
}
