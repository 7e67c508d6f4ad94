package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func orderedContent(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, created_at")
	}).Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, created_at")
	})
}

func ListEnrollments(ctx context.Context, userID uuid.UUID) ([]models.EnrolledCourse, error) {
	out := []models.EnrolledCourse{}
	err := db(ctx).Preload("Course", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Preload("Course.Tutor").
		Where("user_id = ?", userID).Order("COALESCE(last_accessed_at, created_at) DESC").Find(&out).Error
	return out, wrap(err, "list enrollments")
}

func IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	return isEnrolled(db(ctx), userID, courseID)
}

func enrollment(tx *gorm.DB, userID, courseID uuid.UUID) (*models.EnrolledCourse, error) {
	var e models.EnrolledCourse
	if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error; err != nil {
		return nil, lookup(err, "Enrollment")
	}
	return &e, nil
}

// EnrolledCourse returns the enrollment with the full course content, video
// URLs included, and per-lesson progress.
func EnrolledCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.EnrolledCourse, error) {
	e, err := enrollment(db(ctx), userID, courseID)
	if err != nil {
		return nil, err
	}
	var course models.Course
	if err := orderedContent(db(ctx).Unscoped()).Preload("Tutor").First(&course, "id = ?", courseID).Error; err != nil {
		return nil, lookup(err, "Course")
	}
	e.Course = &course
	if err := db(ctx).Where("enrollment_id = ?", e.ID).Find(&e.LessonProgress).Error; err != nil {
		return nil, wrap(err, "load lesson progress")
	}
	return e, nil
}

type CourseStatus struct {
	Progress         int               `json:"progress"`
	CompletedLessons int               `json:"completed_lessons"`
	TotalLessons     int64             `json:"total_lessons"`
	CurrentLessonID  *uuid.UUID        `json:"current_lesson_id"`
	IsCompleted      bool              `json:"is_completed"`
	Lessons          map[string]string `json:"lessons"`
}

func CurrentStatus(ctx context.Context, userID, courseID uuid.UUID) (*CourseStatus, error) {
	e, err := enrollment(db(ctx), userID, courseID)
	if err != nil {
		return nil, err
	}
	var total int64
	if err := db(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return nil, wrap(err, "count lessons")
	}
	var rows []models.LessonProgress
	if err := db(ctx).Where("enrollment_id = ?", e.ID).Find(&rows).Error; err != nil {
		return nil, wrap(err, "load lesson progress")
	}
	st := &CourseStatus{
		Progress:         e.Progress,
		CompletedLessons: e.CompletedLessons,
		TotalLessons:     total,
		CurrentLessonID:  e.CurrentLessonID,
		IsCompleted:      e.IsCompleted,
		Lessons:          make(map[string]string, len(rows)),
	}
	for _, r := range rows {
		st.Lessons[r.LessonID.String()] = r.Status
	}
	return st, nil
}

func courseLesson(tx *gorm.DB, courseID uuid.UUID, raw string) (*models.Lesson, error) {
	id, err := ParseID(raw)
	if err != nil {
		return nil, err
	}
	var l models.Lesson
	if err := tx.Where("id = ? AND course_id = ?", id, courseID).First(&l).Error; err != nil {
		return nil, lookup(err, "Lesson")
	}
	return &l, nil
}

// SelectLesson records the lesson the learner opened.
func SelectLesson(ctx context.Context, userID uuid.UUID, f *forms.SelectLesson) (*models.Lesson, error) {
	courseID, err := ParseID(f.CourseID)
	if err != nil {
		return nil, err
	}
	var lesson *models.Lesson
	err = db(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := enrollment(tx, userID, courseID)
		if err != nil {
			return err
		}
		lesson, err = courseLesson(tx, courseID, f.LessonID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(e).Updates(map[string]interface{}{"current_lesson_id": lesson.ID, "last_accessed_at": now}).Error; err != nil {
			return err
		}
		lp := models.LessonProgress{EnrollmentID: e.ID, LessonID: lesson.ID, Status: models.LessonInProgress}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&lp).Error
	})
	return lesson, wrap(err, "select lesson")
}

// LessonContent returns one lesson of an enrolled course, video included.
func LessonContent(ctx context.Context, userID uuid.UUID, rawCourse, rawLesson string) (*models.Lesson, error) {
	courseID, err := ParseID(rawCourse)
	if err != nil {
		return nil, err
	}
	if _, err := enrollment(db(ctx), userID, courseID); err != nil {
		return nil, err
	}
	return courseLesson(db(ctx), courseID, rawLesson)
}

// SetLessonStatus updates one lesson and recomputes the course progress. The
// first time progress reaches 100% the enrollment is completed and a
// certificate is issued.
func SetLessonStatus(ctx context.Context, userID uuid.UUID, f *forms.LessonStatus) (*CourseStatus, error) {
	courseID, err := ParseID(f.CourseID)
	if err != nil {
		return nil, err
	}
	var finished bool
	err = db(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := enrollment(tx, userID, courseID)
		if err != nil {
			return err
		}
		lesson, err := courseLesson(tx, courseID, f.LessonID)
		if err != nil {
			return err
		}

		lp := models.LessonProgress{EnrollmentID: e.ID, LessonID: lesson.ID, Status: f.Status}
		if f.Status == models.LessonCompleted {
			now := time.Now()
			lp.CompletedAt = &now
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "completed_at", "updated_at"}),
		}).Create(&lp).Error; err != nil {
			return err
		}

		finished, err = recomputeProgress(tx, e, lesson.ID)
		return err
	})
	if err != nil {
		return nil, wrap(err, "update lesson status")
	}

	if finished {
		courseCompleted(ctx, userID, courseID)
	}
	return CurrentStatus(ctx, userID, courseID)
}

func recomputeProgress(tx *gorm.DB, e *models.EnrolledCourse, current uuid.UUID) (bool, error) {
	var total, done int64
	if err := tx.Model(&models.Lesson{}).Where("course_id = ?", e.CourseID).Count(&total).Error; err != nil {
		return false, err
	}
	if err := tx.Model(&models.LessonProgress{}).
		Where("enrollment_id = ? AND status = ?", e.ID, models.LessonCompleted).
		Count(&done).Error; err != nil {
		return false, err
	}
	progress := 0
	if total > 0 {
		progress = int(done * 100 / total)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"progress":          progress,
		"completed_lessons": done,
		"current_lesson_id": current,
		"last_accessed_at":  now,
	}
	finished := progress == 100 && !e.IsCompleted
	if finished {
		updates["is_completed"] = true
		updates["completed_at"] = now
	}
	return finished, tx.Model(e).Updates(updates).Error
}

func courseCompleted(ctx context.Context, userID, courseID uuid.UUID) {
	var course models.Course
	if err := db(ctx).Unscoped().Select("id", "title", "tutor_id").First(&course, "id = ?", courseID).Error; err != nil {
		return
	}
	Notify(ctx, models.RoleUser, userID, Notice{
		Type:    models.NotifyCourse,
		Title:   "Course completed",
		Message: fmt.Sprintf("Congratulations on completing %s! Your certificate is ready.", course.Title),
		Link:    "/certificates",
	})
	if _, err := IssueCertificate(ctx, userID, &course); err != nil {
		certLog().Error("certificate issue failed", zap.Error(err))
	}
}

// ResetProgress clears lesson progress so the learner can start over. The
// certificate already issued is kept.
func ResetProgress(ctx context.Context, userID, courseID uuid.UUID) error {
	return wrap(db(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := enrollment(tx, userID, courseID)
		if err != nil {
			return err
		}
		if err := tx.Where("enrollment_id = ?", e.ID).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}
		return tx.Model(e).Updates(map[string]interface{}{
			"progress":          0,
			"completed_lessons": 0,
			"current_lesson_id": nil,
			"is_completed":      false,
			"completed_at":      nil,
		}).Error
	}), "reset progress")
}
