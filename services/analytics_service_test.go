package services

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueChartIsZeroFilled(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "500", 1)
	testutil.SetBalance(t, db, user.ID, models.RoleUser, "500")

	_, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String(), PaymentMethod: models.PaymentWallet})
	require.NoError(t, err)

	now := time.Now()
	daily, err := RevenueChart(ctx, PeriodDaily, now)
	require.NoError(t, err)
	require.Len(t, daily, 7)
	assert.Equal(t, now.Format("2006-01-02"), daily[6].Label)
	requireAmount(t, "500", daily[6].Revenue)
	assert.Equal(t, 1, daily[6].Orders)
	requireAmount(t, "0", daily[0].Revenue)

	monthly, err := RevenueChart(ctx, PeriodMonthly, now)
	require.NoError(t, err)
	require.Len(t, monthly, 12)
	requireAmount(t, "500", monthly[11].Revenue)

	yearly, err := RevenueChart(ctx, PeriodYearly, now)
	require.NoError(t, err)
	require.Len(t, yearly, 5)
	assert.Equal(t, now.Format("2006"), yearly[4].Label)

	_, err = RevenueChart(ctx, "weekly", now)
	requireStatus(t, err, fiber.StatusBadRequest)
}

func TestAdminDashboard(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "1000", 1)
	testutil.SetBalance(t, db, user.ID, models.RoleUser, "1000")

	_, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String(), PaymentMethod: models.PaymentWallet})
	require.NoError(t, err)

	d, err := AdminDashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.Users)
	assert.EqualValues(t, 1, d.Tutors)
	assert.EqualValues(t, 1, d.Courses)
	assert.EqualValues(t, 1, d.Orders)
	requireAmount(t, "1000", d.Revenue)
	requireAmount(t, "200", d.PlatformEarnings)

	best, err := BestSellingCourses(ctx, 5)
	require.NoError(t, err)
	require.Len(t, best, 1)
	assert.Equal(t, course.ID, best[0].ID)
	assert.EqualValues(t, 1, best[0].Enrollments)
}
