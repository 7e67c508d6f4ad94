package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func optionalCategory(tx *gorm.DB, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := ParseID(raw)
	if err != nil {
		return nil, err
	}
	var c models.Category
	if err := tx.Select("id").Where("id = ? AND is_active = ?", id, true).First(&c).Error; err != nil {
		return nil, lookup(err, "Category")
	}
	return &id, nil
}

func titleTaken(tx *gorm.DB, tutorID uuid.UUID, title string, except uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.Course{}).
		Where("tutor_id = ? AND LOWER(title) = ? AND id <> ?", tutorID, strings.ToLower(strings.TrimSpace(title)), except).
		Count(&count).Error
	return count > 0, err
}

func applyCourseForm(c *models.Course, f *forms.Course, categoryID *uuid.UUID) {
	c.Title = strings.TrimSpace(f.Title)
	c.Subtitle = f.Subtitle
	c.Description = f.Description
	c.CategoryID = categoryID
	c.Level = f.Level
	if c.Level == "" {
		c.Level = "all"
	}
	c.Language = f.Language
	if c.Language == "" {
		c.Language = "English"
	}
	c.Thumbnail = f.Thumbnail
	c.Price = decimal.NewFromFloat(f.Price).Round(2)
}

func writeContent(tx *gorm.DB, courseID uuid.UUID, modules []forms.Module) error {
	for i, fm := range modules {
		m := models.Module{CourseID: courseID, Title: fm.Title, Position: i + 1}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		for j, fl := range fm.Lessons {
			l := models.Lesson{
				ModuleID:        m.ID,
				CourseID:        courseID,
				Title:           fl.Title,
				Description:     fl.Description,
				VideoURL:        fl.VideoURL,
				DurationMinutes: fl.DurationMinutes,
				Position:        j + 1,
				IsPreview:       fl.IsPreview,
			}
			if err := tx.Create(&l).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func CreateCourse(ctx context.Context, tutorID uuid.UUID, f *forms.Course) (*models.Course, error) {
	var course models.Course
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := titleTaken(tx, tutorID, f.Title, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return conflict("You already have a course with this title")
		}
		categoryID, err := optionalCategory(tx, f.CategoryID)
		if err != nil {
			return err
		}
		course = models.Course{TutorID: tutorID, Status: models.CourseDraft}
		applyCourseForm(&course, f, categoryID)
		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		return writeContent(tx, course.ID, f.Modules)
	})
	if err != nil {
		return nil, wrap(err, "create course")
	}
	return TutorCourse(ctx, tutorID, course.ID)
}

func tutorCourse(tx *gorm.DB, tutorID, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	if err := tx.Where("id = ? AND tutor_id = ?", id, tutorID).First(&c).Error; err != nil {
		return nil, lookup(err, "Course")
	}
	return &c, nil
}

// UpdateCourse replaces the course details and content. Only drafts and
// rejected courses are editable; editing a rejected course returns it to draft.
func UpdateCourse(ctx context.Context, tutorID, id uuid.UUID, f *forms.Course) (*models.Course, error) {
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := tutorCourse(tx, tutorID, id)
		if err != nil {
			return err
		}
		if course.Status != models.CourseDraft && course.Status != models.CourseRejected {
			return conflict(fmt.Sprintf("A %s course cannot be edited", course.Status))
		}
		taken, err := titleTaken(tx, tutorID, f.Title, id)
		if err != nil {
			return err
		}
		if taken {
			return conflict("You already have a course with this title")
		}
		categoryID, err := optionalCategory(tx, f.CategoryID)
		if err != nil {
			return err
		}
		applyCourseForm(course, f, categoryID)
		course.Status = models.CourseDraft
		if err := tx.Save(course).Error; err != nil {
			return err
		}
		if f.Modules != nil {
			if err := tx.Where("course_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
				return err
			}
			if err := tx.Where("course_id = ?", id).Delete(&models.Module{}).Error; err != nil {
				return err
			}
			return writeContent(tx, id, f.Modules)
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "update course")
	}
	return TutorCourse(ctx, tutorID, id)
}

// CheckTitle reports whether the tutor can use title (optionally for an
// existing course being renamed).
func CheckTitle(ctx context.Context, tutorID uuid.UUID, f *forms.CheckTitle) (bool, error) {
	except := uuid.Nil
	if f.CourseID != "" {
		id, err := ParseID(f.CourseID)
		if err != nil {
			return false, err
		}
		except = id
	}
	taken, err := titleTaken(db(ctx), tutorID, f.Title, except)
	return !taken, wrap(err, "check title")
}

func TutorCourse(ctx context.Context, tutorID, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	err := orderedContent(db(ctx)).Preload("Category").Where("id = ? AND tutor_id = ?", id, tutorID).First(&c).Error
	if err != nil {
		return nil, lookup(err, "Course")
	}
	return &c, nil
}

func ListTutorCourses(ctx context.Context, tutorID uuid.UUID, status string, p utils.Page) (Paged[models.Course], error) {
	q := db(ctx).Model(&models.Course{}).Preload("Category").Where("tutor_id = ?", tutorID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out, err := paginate[models.Course](q, p, "created_at DESC")
	return out, wrap(err, "list tutor courses")
}

func publishable(c *models.Course) error {
	var missing []string
	if strings.TrimSpace(c.Description) == "" {
		missing = append(missing, "description")
	}
	if c.CategoryID == nil {
		missing = append(missing, "category")
	}
	if len(c.Modules) == 0 {
		missing = append(missing, "at least one module")
	}
	for _, m := range c.Modules {
		if len(m.Lessons) == 0 {
			missing = append(missing, fmt.Sprintf("lessons in module %q", m.Title))
		}
		for _, l := range m.Lessons {
			if l.VideoURL == "" {
				missing = append(missing, fmt.Sprintf("video for lesson %q", l.Title))
			}
		}
	}
	if len(missing) > 0 {
		return badRequest("Course is incomplete, missing: " + strings.Join(missing, ", "))
	}
	return nil
}

// PublishCourse submits a draft for admin review.
func PublishCourse(ctx context.Context, tutorID, id uuid.UUID) (*models.Course, error) {
	var tutor models.Tutor
	if err := db(ctx).Select("id", "is_verified", "first_name", "last_name").First(&tutor, "id = ?", tutorID).Error; err != nil {
		return nil, lookup(err, "Tutor")
	}
	if !tutor.IsVerified {
		return nil, forbidden("Complete tutor verification before publishing courses")
	}
	course, err := TutorCourse(ctx, tutorID, id)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseDraft && course.Status != models.CourseRejected {
		return nil, conflict(fmt.Sprintf("A %s course cannot be submitted", course.Status))
	}
	if err := publishable(course); err != nil {
		return nil, err
	}
	res := db(ctx).Model(&models.Course{}).Where("id = ? AND status = ?", id, course.Status).
		Updates(map[string]interface{}{"status": models.CoursePending, "admin_note": nil})
	if res.Error != nil {
		return nil, wrap(res.Error, "publish course")
	}
	if res.RowsAffected == 0 {
		return nil, conflict("Course was updated concurrently")
	}
	course.Status = models.CoursePending
	course.AdminNote = nil

	NotifyAdmins(ctx, Notice{
		Type:    models.NotifyCourse,
		Title:   "Course awaiting review",
		Message: fmt.Sprintf("%s submitted %q for review.", tutor.FullName(), course.Title),
		Link:    "/admin/pending-request",
	})
	return course, nil
}

func enrollmentCount(tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&models.EnrolledCourse{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}

func TutorDeleteCourse(ctx context.Context, tutorID, id uuid.UUID) error {
	course, err := tutorCourse(db(ctx), tutorID, id)
	if err != nil {
		return err
	}
	return deleteCourse(ctx, course)
}

func deleteCourse(ctx context.Context, course *models.Course) error {
	n, err := enrollmentCount(db(ctx), course.ID)
	if err != nil {
		return wrap(err, "count enrollments")
	}
	if n > 0 {
		return conflict("Courses with enrolled learners cannot be deleted")
	}
	return wrap(db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Delete(course).Error
	}), "delete course")
}

func PendingCourses(ctx context.Context, p utils.Page) (Paged[models.Course], error) {
	return ListCourses(ctx, CourseFilter{Status: models.CoursePending}, p)
}

type CourseFilter struct {
	Status     string
	Search     string
	CategoryID *uuid.UUID
	TutorID    *uuid.UUID
}

func ListCourses(ctx context.Context, f CourseFilter, p utils.Page) (Paged[models.Course], error) {
	q := db(ctx).Model(&models.Course{}).Preload("Tutor").Preload("Category")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", likePattern(f.Search))
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.TutorID != nil {
		q = q.Where("tutor_id = ?", *f.TutorID)
	}
	out, err := paginate[models.Course](q, p, "created_at DESC")
	return out, wrap(err, "list courses")
}

func AdminCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	if err := orderedContent(db(ctx)).Preload("Tutor").Preload("Category").First(&c, "id = ?", id).Error; err != nil {
		return nil, lookup(err, "Course")
	}
	return &c, nil
}

// ReviewCourse approves or rejects a pending course and tells the tutor.
func ReviewCourse(ctx context.Context, id uuid.UUID, f *forms.CourseReview) (*models.Course, error) {
	course, err := AdminCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CoursePending {
		return nil, conflict("Only pending courses can be reviewed")
	}
	var note interface{}
	if f.Note != "" {
		note = f.Note
	}
	res := db(ctx).Model(&models.Course{}).Where("id = ? AND status = ?", id, models.CoursePending).
		Updates(map[string]interface{}{"status": f.Status, "admin_note": note})
	if res.Error != nil {
		return nil, wrap(res.Error, "review course")
	}
	if res.RowsAffected == 0 {
		return nil, conflict("Course was reviewed concurrently")
	}
	course.Status = f.Status

	n := Notice{Type: models.NotifyCourse, Link: "/tutor/courses/" + id.String()}
	if f.Status == models.CourseApproved {
		n.Title = "Course approved"
		n.Message = fmt.Sprintf("%q is now live.", course.Title)
	} else {
		n.Title = "Course rejected"
		n.Message = fmt.Sprintf("%q was not approved: %s", course.Title, f.Note)
	}
	Notify(ctx, models.RoleTutor, course.TutorID, n)
	return course, nil
}

func AssignCategory(ctx context.Context, id uuid.UUID, f *forms.AssignCategory) (*models.Course, error) {
	categoryID, err := optionalCategory(db(ctx), f.CategoryID)
	if err != nil {
		return nil, err
	}
	res := db(ctx).Model(&models.Course{}).Where("id = ?", id).Update("category_id", categoryID)
	if res.Error != nil {
		return nil, wrap(res.Error, "assign category")
	}
	if res.RowsAffected == 0 {
		return nil, notFound("Course")
	}
	return AdminCourse(ctx, id)
}

// SetCourseAvailability toggles an approved course to suspended and back.
func SetCourseAvailability(ctx context.Context, id uuid.UUID, f *forms.CourseStatus) (*models.Course, error) {
	var from string
	switch f.Status {
	case models.CourseSuspended:
		from = models.CourseApproved
	case models.CourseApproved:
		from = models.CourseSuspended
	}
	var note interface{}
	if f.Note != "" {
		note = f.Note
	}
	res := db(ctx).Model(&models.Course{}).Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": f.Status, "admin_note": note})
	if res.Error != nil {
		return nil, wrap(res.Error, "set course status")
	}
	if res.RowsAffected == 0 {
		if _, err := AdminCourse(ctx, id); err != nil {
			return nil, err
		}
		return nil, conflict(fmt.Sprintf("Only %s courses can be set to %s", from, f.Status))
	}
	course, err := AdminCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	title := "Course suspended"
	if f.Status == models.CourseApproved {
		title = "Course restored"
	}
	Notify(ctx, models.RoleTutor, course.TutorID, Notice{Type: models.NotifyCourse, Title: title, Message: fmt.Sprintf("%q is now %s.", course.Title, f.Status)})
	return course, nil
}

func AdminDeleteCourse(ctx context.Context, id uuid.UUID) error {
	var c models.Course
	if err := db(ctx).First(&c, "id = ?", id).Error; err != nil {
		return lookup(err, "Course")
	}
	return deleteCourse(ctx, &c)
}

type Catalogue struct {
	Search     string
	CategoryID *uuid.UUID
	Level      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
}

var catalogueSorts = map[string]string{
	"newest":     "created_at DESC",
	"price_asc":  "price ASC, created_at DESC",
	"price_desc": "price DESC, created_at DESC",
	"popular":    "enrollment_count DESC, created_at DESC",
}

// BrowseCourses is the public catalogue of approved courses.
func BrowseCourses(ctx context.Context, f Catalogue, p utils.Page) (Paged[models.Course], error) {
	q := db(ctx).Model(&models.Course{}).
		Preload("Tutor", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "first_name", "last_name", "profile_image", "headline")
		}).
		Preload("Category").
		Where("status = ?", models.CourseApproved)
	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	order, ok := catalogueSorts[f.Sort]
	if !ok {
		order = catalogueSorts["newest"]
	}
	out, err := paginate[models.Course](q, p, order)
	return out, wrap(err, "browse courses")
}

// PublicCourse returns an approved course. Video URLs are only exposed for
// free preview lessons.
func PublicCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	err := orderedContent(db(ctx)).
		Preload("Tutor", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "first_name", "last_name", "profile_image", "headline", "bio", "expertise")
		}).
		Preload("Category").
		Where("id = ? AND status = ?", id, models.CourseApproved).First(&c).Error
	if err != nil {
		return nil, lookup(err, "Course")
	}
	for i := range c.Modules {
		for j := range c.Modules[i].Lessons {
			if !c.Modules[i].Lessons[j].IsPreview {
				c.Modules[i].Lessons[j].VideoURL = ""
			}
		}
	}
	return &c, nil
}

// CourseTitles feeds the search box autocomplete.
func CourseTitles(ctx context.Context, q string, limit int) ([]string, error) {
	titles := []string{}
	tx := db(ctx).Model(&models.Course{}).Where("status = ?", models.CourseApproved)
	if q != "" {
		tx = tx.Where("LOWER(title) LIKE ?", likePattern(q))
	}
	err := tx.Order("enrollment_count DESC").Limit(limit).Pluck("title", &titles).Error
	return titles, wrap(err, "course titles")
}

func TopCourses(ctx context.Context, limit int) ([]models.Course, error) {
	out := []models.Course{}
	err := db(ctx).
		Preload("Tutor", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "first_name", "last_name", "profile_image") }).
		Preload("Category").
		Where("status = ?", models.CourseApproved).
		Order("enrollment_count DESC, created_at DESC").Limit(limit).Find(&out).Error
	return out, wrap(err, "top courses")
}
