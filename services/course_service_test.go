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

func courseForm(title, categoryID string) *forms.Course {
	return &forms.Course{
		Title:       title,
		Description: "Services, queues and the rest",
		CategoryID:  categoryID,
		Price:       499,
		Modules: []forms.Module{{
			Title: "Getting started",
			Lessons: []forms.Lesson{
				{Title: "Welcome", VideoURL: "https://video.example/welcome", IsPreview: true},
				{Title: "Deep dive", VideoURL: "https://video.example/deep"},
			},
		}},
	}
}

func TestCourseAuthoringAndReview(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	admin := testutil.CreateAdmin(t, db, "admin@example.com")
	category, err := CreateCategory(ctx, &forms.Category{Name: "Backend"})
	require.NoError(t, err)

	draft, err := CreateCourse(ctx, tutor.ID, &forms.Course{Title: "Go Services"})
	require.NoError(t, err)
	assert.Equal(t, models.CourseDraft, draft.Status)
	assert.Equal(t, "all", draft.Level)

	_, err = CreateCourse(ctx, tutor.ID, &forms.Course{Title: "go services"})
	requireStatus(t, err, fiber.StatusConflict)

	// no description, category or content yet
	_, err = PublishCourse(ctx, tutor.ID, draft.ID)
	requireStatus(t, err, fiber.StatusBadRequest)

	course, err := UpdateCourse(ctx, tutor.ID, draft.ID, courseForm("Go Services", category.ID.String()))
	require.NoError(t, err)
	require.Len(t, course.Modules, 1)
	assert.Len(t, course.Modules[0].Lessons, 2)

	require.NoError(t, db.Model(&models.Tutor{}).Where("id = ?", tutor.ID).Update("is_verified", false).Error)
	_, err = PublishCourse(ctx, tutor.ID, draft.ID)
	requireStatus(t, err, fiber.StatusForbidden)
	require.NoError(t, db.Model(&models.Tutor{}).Where("id = ?", tutor.ID).Update("is_verified", true).Error)

	course, err = PublishCourse(ctx, tutor.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CoursePending, course.Status)

	var adminNotes int64
	require.NoError(t, db.Model(&models.Notification{}).Where("recipient_id = ?", admin.ID).Count(&adminNotes).Error)
	assert.EqualValues(t, 1, adminNotes)

	_, err = PublishCourse(ctx, tutor.ID, draft.ID)
	requireStatus(t, err, fiber.StatusConflict)
	_, err = UpdateCourse(ctx, tutor.ID, draft.ID, courseForm("Go Services", category.ID.String()))
	requireStatus(t, err, fiber.StatusConflict)
	_, err = PublicCourse(ctx, draft.ID)
	requireStatus(t, err, fiber.StatusNotFound)

	course, err = ReviewCourse(ctx, draft.ID, &forms.CourseReview{Status: models.CourseRejected, Note: "Audio is too quiet"})
	require.NoError(t, err)
	assert.Equal(t, models.CourseRejected, course.Status)

	var stored models.Course
	require.NoError(t, db.First(&stored, "id = ?", draft.ID).Error)
	require.NotNil(t, stored.AdminNote)
	assert.Equal(t, "Audio is too quiet", *stored.AdminNote)

	// rejected courses go back through review
	_, err = PublishCourse(ctx, tutor.ID, draft.ID)
	require.NoError(t, err)
	course, err = ReviewCourse(ctx, draft.ID, &forms.CourseReview{Status: models.CourseApproved})
	require.NoError(t, err)
	assert.Equal(t, models.CourseApproved, course.Status)

	_, err = ReviewCourse(ctx, draft.ID, &forms.CourseReview{Status: models.CourseRejected, Note: "again"})
	requireStatus(t, err, fiber.StatusConflict)

	var tutorNotes int64
	require.NoError(t, db.Model(&models.Notification{}).Where("recipient_id = ?", tutor.ID).Count(&tutorNotes).Error)
	assert.EqualValues(t, 2, tutorNotes)
}

func TestPublicCourseHidesPaidVideos(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	category, err := CreateCategory(ctx, &forms.Category{Name: "Backend"})
	require.NoError(t, err)

	draft, err := CreateCourse(ctx, tutor.ID, courseForm("Go Services", category.ID.String()))
	require.NoError(t, err)
	_, err = PublishCourse(ctx, tutor.ID, draft.ID)
	require.NoError(t, err)
	_, err = ReviewCourse(ctx, draft.ID, &forms.CourseReview{Status: models.CourseApproved})
	require.NoError(t, err)

	course, err := PublicCourse(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, course.Modules, 1)
	lessons := course.Modules[0].Lessons
	require.Len(t, lessons, 2)
	assert.Equal(t, "https://video.example/welcome", lessons[0].VideoURL)
	assert.Empty(t, lessons[1].VideoURL)

	// the tutor still sees every video
	own, err := TutorCourse(ctx, tutor.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://video.example/deep", own.Modules[0].Lessons[1].VideoURL)
}

func TestCourseDeletion(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	other := testutil.CreateTutor(t, db, "other@example.com")
	user := testutil.CreateUser(t, db, "buyer@example.com")
	sold := testutil.CreateCourse(t, db, tutor.ID, "500", 1)
	unsold := testutil.CreateCourse(t, db, tutor.ID, "700", 2)

	require.NoError(t, db.Create(&models.EnrolledCourse{UserID: user.ID, CourseID: sold.ID}).Error)
	_, err := AddToCart(ctx, user.ID, unsold.ID)
	require.NoError(t, err)

	requireStatus(t, TutorDeleteCourse(ctx, tutor.ID, sold.ID), fiber.StatusConflict)
	requireStatus(t, AdminDeleteCourse(ctx, sold.ID), fiber.StatusConflict)
	requireStatus(t, TutorDeleteCourse(ctx, other.ID, unsold.ID), fiber.StatusNotFound)

	require.NoError(t, TutorDeleteCourse(ctx, tutor.ID, unsold.ID))
	_, err = PublicCourse(ctx, unsold.ID)
	requireStatus(t, err, fiber.StatusNotFound)

	var carts int64
	require.NoError(t, db.Model(&models.Cart{}).Where("course_id = ?", unsold.ID).Count(&carts).Error)
	assert.Zero(t, carts)

	_, err = PublicCourse(ctx, sold.ID)
	require.NoError(t, err)
}

func TestDeleteCategoryInUse(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	used, err := CreateCategory(ctx, &forms.Category{Name: "Backend"})
	require.NoError(t, err)
	spare, err := CreateCategory(ctx, &forms.Category{Name: "Design"})
	require.NoError(t, err)

	_, err = CreateCategory(ctx, &forms.Category{Name: " backend "})
	requireStatus(t, err, fiber.StatusConflict)

	_, err = CreateCourse(ctx, tutor.ID, courseForm("Go Services", used.ID.String()))
	require.NoError(t, err)

	requireStatus(t, DeleteCategory(ctx, used.ID), fiber.StatusConflict)
	got, err := GetCategory(ctx, used.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.CourseCount)

	require.NoError(t, DeleteCategory(ctx, spare.ID))
	requireStatus(t, DeleteCategory(ctx, spare.ID), fiber.StatusNotFound)
}
