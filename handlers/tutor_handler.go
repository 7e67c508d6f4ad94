package handlers

import (
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
)

func CreateCourse(c *fiber.Ctx) error {
	course, err := services.CreateCourse(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.Course](c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Course saved as draft", course)
}

func TutorCourses(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.ListTutorCourses(c.UserContext(), middleware.AccountID(c), c.Query("status"), p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Courses fetched", page.Items, p, page.Total)
}

func ViewTutorCourse(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	course, err := services.TutorCourse(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Course fetched", course)
}

func UpdateCourse(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	course, err := services.UpdateCourse(c.UserContext(), middleware.AccountID(c), id, middleware.Form[forms.Course](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Course updated", course)
}

func PublishCourse(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	course, err := services.PublishCourse(c.UserContext(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Course submitted for review", course)
}

func DeleteTutorCourse(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := services.TutorDeleteCourse(c.UserContext(), middleware.AccountID(c), id); err != nil {
		return err
	}
	return utils.OK(c, "Course deleted", nil)
}

func CheckTitle(c *fiber.Ctx) error {
	f := &forms.CheckTitle{Title: c.Query("title"), CourseID: c.Query("course_id")}
	if err := check(f); err != nil {
		return err
	}
	available, err := services.CheckTitle(c.UserContext(), middleware.AccountID(c), f)
	if err != nil {
		return err
	}
	msg := "Title is available"
	if !available {
		msg = "You already have a course with this title"
	}
	return utils.OK(c, msg, fiber.Map{"available": available})
}

func RequestVerification(c *fiber.Ctx) error {
	if err := self(c); err != nil {
		return err
	}
	t, err := services.RequestVerification(c.UserContext(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Verification requested", t)
}

func BankDetails(c *fiber.Ctx) error {
	accounts, err := services.ListBankAccounts(c.UserContext(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Bank accounts fetched", accounts)
}

func AddBankDetails(c *fiber.Ctx) error {
	acct, err := services.AddBankAccount(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.BankAccount](c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Bank account added", acct)
}

func RequestWithdrawal(c *fiber.Ctx) error {
	req, err := services.RequestWithdrawal(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.Withdrawal](c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Withdrawal requested", req)
}

func TutorWithdrawals(c *fiber.Ctx) error {
	p := utils.Paginate(c)
	page, err := services.ListTutorWithdrawals(c.UserContext(), middleware.AccountID(c), p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Withdrawal requests fetched", page.Items, p, page.Total)
}
