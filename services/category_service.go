package services

import (
	"context"
	"strings"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func categoryNameTaken(tx *gorm.DB, name string, except uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.Category{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(strings.TrimSpace(name)), except).
		Count(&count).Error
	return count > 0, err
}

func CreateCategory(ctx context.Context, f *forms.Category) (*models.Category, error) {
	taken, err := categoryNameTaken(db(ctx), f.Name, uuid.Nil)
	if err != nil {
		return nil, wrap(err, "check category name")
	}
	if taken {
		return nil, conflict("Category already exists")
	}
	c := models.Category{Name: strings.TrimSpace(f.Name), Description: f.Description, IsActive: true}
	if err := db(ctx).Create(&c).Error; err != nil {
		return nil, wrap(err, "create category")
	}
	if f.IsActive != nil && !*f.IsActive {
		c.IsActive = false
		if err := db(ctx).Model(&c).Update("is_active", false).Error; err != nil {
			return nil, wrap(err, "create category")
		}
	}
	return &c, nil
}

func UpdateCategory(ctx context.Context, id uuid.UUID, f *forms.Category) (*models.Category, error) {
	var c models.Category
	if err := db(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, lookup(err, "Category")
	}
	taken, err := categoryNameTaken(db(ctx), f.Name, id)
	if err != nil {
		return nil, wrap(err, "check category name")
	}
	if taken {
		return nil, conflict("Category already exists")
	}
	c.Name = strings.TrimSpace(f.Name)
	c.Description = f.Description
	if f.IsActive != nil {
		c.IsActive = *f.IsActive
	}
	return &c, wrap(db(ctx).Save(&c).Error, "update category")
}

func DeleteCategory(ctx context.Context, id uuid.UUID) error {
	var courses int64
	if err := db(ctx).Model(&models.Course{}).Where("category_id = ?", id).Count(&courses).Error; err != nil {
		return wrap(err, "count category courses")
	}
	if courses > 0 {
		return conflict("Category still has courses, reassign them first")
	}
	res := db(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "delete category")
	}
	if res.RowsAffected == 0 {
		return notFound("Category")
	}
	return nil
}

func GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := db(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, lookup(err, "Category")
	}
	err := db(ctx).Model(&models.Course{}).Where("category_id = ?", id).Count(&c.CourseCount).Error
	return &c, wrap(err, "count category courses")
}

func ListCategories(ctx context.Context, search string, p utils.Page) (Paged[models.Category], error) {
	q := db(ctx).Model(&models.Category{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(search))
	}
	out, err := paginate[models.Category](q, p, "name")
	return out, wrap(err, "list categories")
}

type categoryCount struct {
	CategoryID uuid.UUID
	Total      int64
}

// ActiveCategories lists the categories shown to learners with the number of
// approved courses in each.
func ActiveCategories(ctx context.Context) ([]models.Category, error) {
	out := []models.Category{}
	if err := db(ctx).Where("is_active = ?", true).Order("name").Find(&out).Error; err != nil {
		return nil, wrap(err, "load categories")
	}
	var counts []categoryCount
	if err := db(ctx).Model(&models.Course{}).
		Select("category_id, COUNT(*) AS total").
		Where("status = ? AND category_id IS NOT NULL", models.CourseApproved).
		Group("category_id").Scan(&counts).Error; err != nil {
		return nil, wrap(err, "count courses per category")
	}
	byID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Total
	}
	for i := range out {
		out[i].CourseCount = byID[out[i].ID]
	}
	return out, nil
}

type CategoryStat struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Enrollments int64     `json:"enrollments"`
	Courses     int64     `json:"courses"`
}

// TopCategories ranks active categories by enrollments in their approved courses.
func TopCategories(ctx context.Context, limit int) ([]CategoryStat, error) {
	out := []CategoryStat{}
	err := db(ctx).Table("categories").
		Select("categories.id, categories.name, COALESCE(SUM(courses.enrollment_count), 0) AS enrollments, COUNT(courses.id) AS courses").
		Joins("JOIN courses ON courses.category_id = categories.id AND courses.status = ? AND courses.deleted_at IS NULL", models.CourseApproved).
		Where("categories.is_active = ?", true).
		Group("categories.id, categories.name").
		Order("enrollments DESC, courses DESC").
		Limit(limit).
		Scan(&out).Error
	return out, wrap(err, "top categories")
}
