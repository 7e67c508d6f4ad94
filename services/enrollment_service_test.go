package services

import (
	"context"
	"testing"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonProgressIssuesCertificate(t *testing.T) {
	t.Setenv("CLOUDINARY_URL", "")
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "learner@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "0", 3)
	lessons := course.Modules[0].Lessons

	_, err := SelectLesson(ctx, user.ID, &forms.SelectLesson{CourseID: course.ID.String(), LessonID: lessons[0].ID.String()})
	requireStatus(t, err, fiber.StatusNotFound)

	_, err = EnrollFree(ctx, user.ID, &forms.CourseRef{CourseID: course.ID.String()})
	require.NoError(t, err)

	_, err = SelectLesson(ctx, user.ID, &forms.SelectLesson{CourseID: course.ID.String(), LessonID: lessons[0].ID.String()})
	require.NoError(t, err)

	set := func(i int, status string) *CourseStatus {
		t.Helper()
		st, err := SetLessonStatus(ctx, user.ID, &forms.LessonStatus{CourseID: course.ID.String(), LessonID: lessons[i].ID.String(), Status: status})
		require.NoError(t, err)
		return st
	}

	st := set(0, models.LessonCompleted)
	assert.Equal(t, 33, st.Progress)
	assert.Equal(t, 1, st.CompletedLessons)
	assert.EqualValues(t, 3, st.TotalLessons)
	assert.False(t, st.IsCompleted)

	set(1, models.LessonCompleted)
	st = set(2, models.LessonCompleted)
	assert.Equal(t, 100, st.Progress)
	assert.True(t, st.IsCompleted)

	certs, err := ListCertificates(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, course.Title, certs[0].CourseTitle)
	assert.Equal(t, "Asha Rao", certs[0].RecipientName)

	// marking a lesson undone and done again must not issue a second certificate
	set(2, models.LessonInProgress)
	st = set(2, models.LessonCompleted)
	assert.Equal(t, 100, st.Progress)
	certs, err = ListCertificates(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, certs, 1)

	require.NoError(t, ResetProgress(ctx, user.ID, course.ID))
	st, err = CurrentStatus(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Zero(t, st.Progress)
	assert.Empty(t, st.Lessons)
	certs, err = ListCertificates(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestLessonMustBelongToCourse(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "learner@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "0", 1)
	other := testutil.CreateCourse(t, db, tutor.ID, "0", 2)

	_, err := EnrollFree(ctx, user.ID, &forms.CourseRef{CourseID: course.ID.String()})
	require.NoError(t, err)

	_, err = SetLessonStatus(ctx, user.ID, &forms.LessonStatus{
		CourseID: course.ID.String(),
		LessonID: other.Modules[0].Lessons[0].ID.String(),
		Status:   models.LessonCompleted,
	})
	requireStatus(t, err, fiber.StatusNotFound)
}
