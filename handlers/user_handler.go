package handlers

import (
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func courseRef(c *fiber.Ctx) (uuid.UUID, error) {
	return services.ParseID(middleware.Form[forms.CourseRef](c).CourseID)
}

func AddBookmark(c *fiber.Ctx) error {
	id, err := courseRef(c)
	if err != nil {
		return err
	}
	b, err := services.AddBookmark(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Course bookmarked", b)
}

func IsBookmarked(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ok, err := services.IsBookmarked(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Bookmark status", fiber.Map{"is_bookmarked": ok})
}

func Bookmarks(c *fiber.Ctx) error {
	list, err := services.ListBookmarks(c.UserContext(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Bookmarks fetched", list)
}

func RemoveBookmark(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := services.RemoveBookmark(c.UserContext(), middleware.AccountID(c), id); err != nil {
		return err
	}
	return utils.OK(c, "Bookmark removed", nil)
}

func AddToCart(c *fiber.Ctx) error {
	id, err := courseRef(c)
	if err != nil {
		return err
	}
	line, err := services.AddToCart(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Added to cart", line)
}

func Cart(c *fiber.Ctx) error {
	lines, err := services.ListCart(c.UserContext(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Cart fetched", lines)
}

func CartDetails(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	line, err := services.CartDetails(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Cart fetched", line)
}

func RemoveFromCart(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := services.RemoveFromCart(c.UserContext(), middleware.AccountID(c), id); err != nil {
		return err
	}
	return utils.OK(c, "Removed from cart", nil)
}

func Pricing(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := services.GetPricing(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Pricing fetched", p)
}

func AppliedCoupon(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	coupon, err := services.AppliedCoupon(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Applied coupon fetched", coupon)
}

func ApplyCoupon(c *fiber.Ctx) error {
	p, err := services.ApplyCoupon(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.ApplyCoupon](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Coupon applied", p)
}

func RemoveAppliedCoupon(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := services.RemoveAppliedCoupon(c.UserContext(), middleware.AccountID(c), id); err != nil {
		return err
	}
	return utils.OK(c, "Coupon removed", nil)
}

func EnrolledCourses(c *fiber.Ctx) error {
	list, err := services.ListEnrollments(c.UserContext(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Enrolled courses fetched", list)
}

func CheckEnrollment(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ok, err := services.IsEnrolled(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Enrollment status", fiber.Map{"is_enrolled": ok})
}

func EnrolledCourseDetails(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	e, err := services.EnrolledCourse(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Course fetched", e)
}

func CurrentStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	st, err := services.CurrentStatus(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Progress fetched", st)
}

// SelectLesson records the lesson the learner opened. The course comes from
// the path, the lesson from the body.
func SelectLesson(c *fiber.Ctx) error {
	var body struct {
		LessonID string `json:"lesson_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse request body")
	}
	f := &forms.SelectLesson{CourseID: c.Params("id"), LessonID: body.LessonID}
	if err := check(f); err != nil {
		return err
	}
	lesson, err := services.SelectLesson(c.UserContext(), middleware.AccountID(c), f)
	if err != nil {
		return err
	}
	return utils.OK(c, "Progress tracker updated", lesson)
}

func SetLessonStatus(c *fiber.Ctx) error {
	st, err := services.SetLessonStatus(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.LessonStatus](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Lesson status updated", st)
}

func Lesson(c *fiber.Ctx) error {
	lesson, err := services.LessonContent(c.UserContext(), middleware.AccountID(c), c.Query("course_id"), c.Query("lesson_id"))
	if err != nil {
		return err
	}
	return utils.OK(c, "Lesson fetched", lesson)
}

func ResetProgress(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := services.ResetProgress(c.UserContext(), middleware.AccountID(c), id); err != nil {
		return err
	}
	return utils.OK(c, "Progress reset", nil)
}

func Certificates(c *fiber.Ctx) error {
	certs, err := services.ListCertificates(c.UserContext(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Certificates fetched", certs)
}

func UserOrders(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.ListOrders(c.UserContext(), services.OrderFilter{Status: c.Query("status"), UserID: middleware.AccountID(c)}, p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Orders fetched", page.Items, p, page.Total)
}
