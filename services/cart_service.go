package services

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func approvedCourse(tx *gorm.DB, courseID uuid.UUID) (*models.Course, error) {
	var c models.Course
	err := tx.Where("id = ? AND status = ?", courseID, models.CourseApproved).First(&c).Error
	if err != nil {
		return nil, lookup(err, "Course")
	}
	return &c, nil
}

func isEnrolled(tx *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.EnrolledCourse{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&count).Error
	return count > 0, wrap(err, "check enrollment")
}

type CartLine struct {
	models.Cart
	Pricing Pricing `json:"pricing"`
}

func AddToCart(ctx context.Context, userID, courseID uuid.UUID) (*models.Cart, error) {
	if _, err := approvedCourse(db(ctx), courseID); err != nil {
		return nil, err
	}
	owned, err := isEnrolled(db(ctx), userID, courseID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, conflict("You are already enrolled in this course")
	}
	line := models.Cart{UserID: userID, CourseID: courseID}
	err = db(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).FirstOrCreate(&line).Error
	return &line, wrap(err, "add to cart")
}

func ListCart(ctx context.Context, userID uuid.UUID) ([]CartLine, error) {
	var rows []models.Cart
	err := db(ctx).Preload("Course").Preload("Coupon").Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, wrap(err, "list cart")
	}
	out := make([]CartLine, 0, len(rows))
	for _, r := range rows {
		if r.Course == nil {
			continue
		}
		out = append(out, CartLine{Cart: r, Pricing: PriceWith(r.Coupon, r.Course.Price)})
	}
	return out, nil
}

// CartDetails returns the checkout line for one course, creating it on first
// visit so the checkout page always has a line to apply coupons to.
func CartDetails(ctx context.Context, userID, courseID uuid.UUID) (*CartLine, error) {
	line, err := AddToCart(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	course, coupon, err := checkout(db(ctx), userID, courseID)
	if err != nil {
		return nil, err
	}
	line.Course, line.Coupon = course, coupon
	if coupon != nil {
		line.CouponID = &coupon.ID
	} else {
		line.CouponID = nil
	}
	return &CartLine{Cart: *line, Pricing: PriceWith(coupon, course.Price)}, nil
}

func RemoveFromCart(ctx context.Context, userID, courseID uuid.UUID) error {
	res := db(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&models.Cart{})
	if res.Error != nil {
		return wrap(res.Error, "remove from cart")
	}
	if res.RowsAffected == 0 {
		return notFound("Cart item")
	}
	return nil
}

// checkout resolves the course and the coupon currently applied to it. A coupon
// that no longer passes validation is dropped from the cart line.
func checkout(tx *gorm.DB, userID, courseID uuid.UUID) (*models.Course, *models.Coupon, error) {
	course, err := approvedCourse(tx, courseID)
	if err != nil {
		return nil, nil, err
	}
	var line models.Cart
	err = tx.Preload("Coupon").Where("user_id = ? AND course_id = ?", userID, courseID).First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && line.Coupon == nil) {
		return course, nil, nil
	}
	if err != nil {
		return nil, nil, wrap(err, "load cart")
	}
	if err := CheckCoupon(tx, line.Coupon, userID, course.Price, time.Now()); err != nil {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return nil, nil, err
		}
		if err := tx.Model(&line).Update("coupon_id", nil).Error; err != nil {
			return nil, nil, wrap(err, "drop stale coupon")
		}
		return course, nil, nil
	}
	return course, line.Coupon, nil
}

func GetPricing(ctx context.Context, userID, courseID uuid.UUID) (*Pricing, error) {
	course, coupon, err := checkout(db(ctx), userID, courseID)
	if err != nil {
		return nil, err
	}
	p := PriceWith(coupon, course.Price)
	return &p, nil
}

func ApplyCoupon(ctx context.Context, userID uuid.UUID, f *forms.ApplyCoupon) (*Pricing, error) {
	courseID, err := ParseID(f.CourseID)
	if err != nil {
		return nil, err
	}
	var pricing Pricing
	err = db(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := approvedCourse(tx, courseID)
		if err != nil {
			return err
		}
		owned, err := isEnrolled(tx, userID, courseID)
		if err != nil {
			return err
		}
		if owned {
			return conflict("You are already enrolled in this course")
		}
		coupon, err := findCouponByCode(tx, f.Code)
		if err != nil {
			return err
		}
		if err := CheckCoupon(tx, coupon, userID, course.Price, time.Now()); err != nil {
			return err
		}

		line := models.Cart{UserID: userID, CourseID: courseID, CouponID: &coupon.ID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"coupon_id", "updated_at"}),
		}).Create(&line).Error; err != nil {
			return err
		}
		pricing = PriceWith(coupon, course.Price)
		return nil
	})
	if err != nil {
		return nil, wrap(err, "apply coupon")
	}
	return &pricing, nil
}

func AppliedCoupon(ctx context.Context, userID, courseID uuid.UUID) (*models.Coupon, error) {
	_, coupon, err := checkout(db(ctx), userID, courseID)
	return coupon, err
}

func RemoveAppliedCoupon(ctx context.Context, userID, courseID uuid.UUID) error {
	return wrap(db(ctx).Model(&models.Cart{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("coupon_id", nil).Error, "remove coupon")
}

func AddBookmark(ctx context.Context, userID, courseID uuid.UUID) (*models.Bookmark, error) {
	if _, err := approvedCourse(db(ctx), courseID); err != nil {
		return nil, err
	}
	b := models.Bookmark{UserID: userID, CourseID: courseID}
	err := db(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).FirstOrCreate(&b).Error
	return &b, wrap(err, "add bookmark")
}

func IsBookmarked(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := db(ctx).Model(&models.Bookmark{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&count).Error
	return count > 0, wrap(err, "check bookmark")
}

func ListBookmarks(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error) {
	out := []models.Bookmark{}
	err := db(ctx).Preload("Course").Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, wrap(err, "list bookmarks")
}

func RemoveBookmark(ctx context.Context, userID, courseID uuid.UUID) error {
	res := db(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&models.Bookmark{})
	if res.Error != nil {
		return wrap(res.Error, "remove bookmark")
	}
	if res.RowsAffected == 0 {
		return notFound("Bookmark")
	}
	return nil
}
