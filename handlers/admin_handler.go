package handlers

import (
	"time"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
)

func AddAccount(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, err := services.AddAccount(c.UserContext(), role, middleware.Form[forms.AddAccount](c))
		if err != nil {
			return err
		}
		return utils.Success(c, fiber.StatusCreated, "Account created, credentials sent by email", acc)
	}
}

func ListAccounts(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := utils.Paginate(c)
		f := services.AccountFilter{Search: c.Query("search"), Blocked: queryBool(c, "blocked")}
		if role == models.RoleTutor {
			page, err := services.ListAccounts[models.Tutor](c.UserContext(), f, p)
			if err != nil {
				return err
			}
			return utils.Paged(c, "Tutors fetched", page.Items, p, page.Total)
		}
		page, err := services.ListAccounts[models.User](c.UserContext(), f, p)
		if err != nil {
			return err
		}
		return utils.Paged(c, "Users fetched", page.Items, p, page.Total)
	}
}

func AccountDetails(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		acc, err := services.LoadAccount(c.UserContext(), role, id)
		if err != nil {
			return err
		}
		return utils.OK(c, "Account fetched", acc)
	}
}

func UpdateAccount(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		acc, err := services.UpdateAccount(c.UserContext(), role, id, middleware.Form[forms.UpdateAccount](c))
		if err != nil {
			return err
		}
		return utils.OK(c, "Account updated", acc)
	}
}

func ToggleBlock(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		blocked, err := services.ToggleBlock(c.UserContext(), role, id)
		if err != nil {
			return err
		}
		msg := "Account unblocked"
		if blocked {
			msg = "Account blocked"
		}
		return utils.OK(c, msg, fiber.Map{"is_blocked": blocked})
	}
}

func DeleteAccount(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		if err := services.DeleteAccount(c.UserContext(), role, id); err != nil {
			return err
		}
		return utils.OK(c, "Account deleted", nil)
	}
}

func VerificationRequests(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.VerificationRequests(c.UserContext(), p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Verification requests fetched", page.Items, p, page.Total)
}

func ControlVerification(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	t, err := services.DecideVerification(c.UserContext(), id, middleware.Form[forms.VerificationDecision](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Verification "+t.VerificationStatus, t)
}

// Categories

func Categories(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.ListCategories(c.UserContext(), c.Query("search"), p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Categories fetched", page.Items, p, page.Total)
}

func Category(c *fiber.Ctx) error {
	id, err := services.ParseID(c.Query("id"))
	if err != nil {
		return err
	}
	cat, err := services.GetCategory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Category fetched", cat)
}

func AddCategory(c *fiber.Ctx) error {
	cat, err := services.CreateCategory(c.UserContext(), middleware.Form[forms.Category](c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Category created", cat)
}

func UpdateCategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cat, err := services.UpdateCategory(c.UserContext(), id, middleware.Form[forms.Category](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Category updated", cat)
}

func DeleteCategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := services.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	return utils.OK(c, "Category deleted", nil)
}

// Coupons

func CreateCoupon(c *fiber.Ctx) error {
	coupon, err := services.CreateCoupon(c.UserContext(), middleware.Form[forms.Coupon](c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Coupon created", coupon)
}

func LoadCoupons(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.ListCoupons(c.UserContext(), services.CouponFilter{Search: c.Query("search"), Status: c.Query("status")}, p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Coupons fetched", page.Items, p, page.Total)
}

func UpdateCoupon(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	coupon, err := services.UpdateCoupon(c.UserContext(), id, middleware.Form[forms.Coupon](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Coupon updated", coupon)
}

func DeleteCoupon(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := services.DeleteCoupon(c.UserContext(), id); err != nil {
		return err
	}
	return utils.OK(c, "Coupon deleted", nil)
}

// Courses

func PendingCourses(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.PendingCourses(c.UserContext(), p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Pending courses fetched", page.Items, p, page.Total)
}

func VerifyCourse(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	course, err := services.ReviewCourse(c.UserContext(), id, middleware.Form[forms.CourseReview](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Course "+course.Status, course)
}

// ViewCourses filters by status, search, category_id and tutor_id.
func ViewCourses(c *fiber.Ctx) error {
	category, err := queryID(c, "category_id")
	if err != nil {
		return err
	}
	tutor, err := queryID(c, "tutor_id")
	if err != nil {
		return err
	}
	p := utils.Paginate(c)
	page, err := services.ListCourses(c.UserContext(), services.CourseFilter{
		Status:     c.Query("status"),
		Search:     c.Query("search"),
		CategoryID: category,
		TutorID:    tutor,
	}, p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Courses fetched", page.Items, p, page.Total)
}

func AdminCourse(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	course, err := services.AdminCourse(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Course fetched", course)
}

func AssignCategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	course, err := services.AssignCategory(c.UserContext(), id, middleware.Form[forms.AssignCategory](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Category assigned", course)
}

func CourseStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	course, err := services.SetCourseAvailability(c.UserContext(), id, middleware.Form[forms.CourseStatus](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Course "+course.Status, course)
}

func DeleteCourse(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := services.AdminDeleteCourse(c.UserContext(), id); err != nil {
		return err
	}
	return utils.OK(c, "Course deleted", nil)
}

// Money

func Orders(c *fiber.Ctx) error {
	user, err := queryID(c, "user_id")
	if err != nil {
		return err
	}
	f := services.OrderFilter{Status: c.Query("status")}
	if user != nil {
		f.UserID = *user
	}
	p := utils.Paginate(c)
	page, err := services.ListOrders(c.UserContext(), f, p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Orders fetched", page.Items, p, page.Total)
}

func AdminWithdraw(c *fiber.Ctx) error {
	txn, err := services.AdminWithdraw(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.AdminWithdraw](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Withdrawal recorded", txn)
}

func WithdrawalRequests(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.ListWithdrawals(c.UserContext(), c.Query("status"), p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Withdrawal requests fetched", page.Items, p, page.Total)
}

func DecideWithdrawal(c *fiber.Ctx) error {
	req, err := services.DecideWithdrawal(c.UserContext(), middleware.Form[forms.WithdrawalDecision](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Withdrawal request "+req.Status, req)
}

func Transactions(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.ListTransactions(c.UserContext(), services.TransactionFilter{
		Type:    c.Query("type"),
		Purpose: c.Query("purpose"),
		Status:  c.Query("status"),
	}, p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Transactions fetched", page.Items, p, page.Total)
}

// Dashboard

func Dashboard(c *fiber.Ctx) error {
	d, err := services.AdminDashboard(c.UserContext())
	if err != nil {
		return err
	}
	return utils.OK(c, "Dashboard fetched", d)
}

func BestSellingCourses(c *fiber.Ctx) error {
	list, err := services.BestSellingCourses(c.UserContext(), queryInt(c, "limit", 10, 50))
	if err != nil {
		return err
	}
	return utils.OK(c, "Best selling courses fetched", list)
}

func BestSellingCategories(c *fiber.Ctx) error {
	list, err := services.TopCategories(c.UserContext(), queryInt(c, "limit", 10, 50))
	if err != nil {
		return err
	}
	return utils.OK(c, "Best selling categories fetched", list)
}

func RevenueChart(c *fiber.Ctx) error {
	period := c.Query("period", services.PeriodMonthly)
	points, err := services.RevenueChart(c.UserContext(), period, time.Now())
	if err != nil {
		return err
	}
	return utils.OK(c, "Revenue chart fetched", fiber.Map{"period": period, "points": points})
}
