package handlers

import (
	"time"

	"github.com/anjiri1684/elevate_lms/database"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var started = time.Now()

// Health reports database reachability and process uptime.
func Health(c *fiber.Ctx) error {
	state := database.State(c.UserContext())
	status := fiber.StatusOK
	if state != "connected" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"success":   status == fiber.StatusOK,
		"message":   "Server is running",
		"database":  state,
		"uptime":    time.Since(started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

func LoadCategories(c *fiber.Ctx) error {
	list, err := services.ActiveCategories(c.UserContext())
	if err != nil {
		return err
	}
	return utils.OK(c, "Categories fetched", list)
}

func TopCategories(c *fiber.Ctx) error {
	list, err := services.TopCategories(c.UserContext(), queryInt(c, "limit", 6, 20))
	if err != nil {
		return err
	}
	return utils.OK(c, "Top categories fetched", list)
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return &d, nil
}

// BrowseCourses reads search, category_id, level, min_price, max_price and sort.
func BrowseCourses(c *fiber.Ctx) error {
	category, err := queryID(c, "category_id")
	if err != nil {
		return err
	}
	minPrice, err := queryDecimal(c, "min_price")
	if err != nil {
		return err
	}
	maxPrice, err := queryDecimal(c, "max_price")
	if err != nil {
		return err
	}
	p := utils.Paginate(c)
	page, err := services.BrowseCourses(c.UserContext(), services.Catalogue{
		Search:     c.Query("search"),
		CategoryID: category,
		Level:      c.Query("level"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Sort:       c.Query("sort"),
	}, p)
	if err != nil {
		return err
	}
	return utils.Paged(c, "Courses fetched", page.Items, p, page.Total)
}

func PublicCourse(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	course, err := services.PublicCourse(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Course fetched", course)
}

func TopCourses(c *fiber.Ctx) error {
	list, err := services.TopCourses(c.UserContext(), queryInt(c, "limit", 8, 20))
	if err != nil {
		return err
	}
	return utils.OK(c, "Top courses fetched", list)
}

func CourseTitles(c *fiber.Ctx) error {
	titles, err := services.CourseTitles(c.UserContext(), c.Query("search"), queryInt(c, "limit", 10, 50))
	if err != nil {
		return err
	}
	return utils.OK(c, "Course titles fetched", titles)
}
