package services

import (
	"context"
	"time"

	"github.com/anjiri1684/elevate_lms/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Dashboard struct {
	Users              int64           `json:"users"`
	Tutors             int64           `json:"tutors"`
	Courses            int64           `json:"courses"`
	Orders             int64           `json:"orders"`
	Revenue            decimal.Decimal `json:"revenue"`
	PlatformEarnings   decimal.Decimal `json:"platform_earnings"`
	PendingCourses     int64           `json:"pending_courses"`
	PendingWithdrawals int64           `json:"pending_withdrawals"`
}

// AdminDashboard gathers the headline counters concurrently.
func AdminDashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{Revenue: decimal.Zero, PlatformEarnings: decimal.Zero}
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, model interface{}, where string, args ...interface{}) {
		g.Go(func() error {
			q := db(ctx).Model(model)
			if where != "" {
				q = q.Where(where, args...)
			}
			return q.Count(dst).Error
		})
	}
	count(&d.Users, &models.User{}, "")
	count(&d.Tutors, &models.Tutor{}, "")
	count(&d.Courses, &models.Course{}, "status = ?", models.CourseApproved)
	count(&d.Orders, &models.Order{}, "status = ?", models.OrderSuccess)
	count(&d.PendingCourses, &models.Course{}, "status = ?", models.CoursePending)
	count(&d.PendingWithdrawals, &models.WithdrawalRequest{}, "status IN ?",
		[]string{models.WithdrawalPending, models.WithdrawalProcessing})

	g.Go(func() error {
		var amounts []decimal.Decimal
		if err := db(ctx).Model(&models.Order{}).Where("status = ?", models.OrderSuccess).
			Pluck("final_price", &amounts).Error; err != nil {
			return err
		}
		for _, a := range amounts {
			d.Revenue = d.Revenue.Add(a)
		}
		return nil
	})
	g.Go(func() error {
		var w models.Wallet
		err := db(ctx).Where("owner_id = ? AND owner_role = ?", models.PlatformOwnerID, models.RoleAdmin).
			Limit(1).Find(&w).Error
		d.PlatformEarnings = w.Balance
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wrap(err, "load dashboard")
	}
	return d, nil
}

type CourseStat struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Thumbnail   *string         `json:"thumbnail"`
	Price       decimal.Decimal `json:"price"`
	Enrollments int64           `json:"enrollments"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// BestSellingCourses ranks approved courses by successful orders.
func BestSellingCourses(ctx context.Context, limit int) ([]CourseStat, error) {
	out := []CourseStat{}
	err := db(ctx).Table("courses").
		Select("courses.id, courses.title, courses.thumbnail, courses.price, COUNT(orders.id) AS enrollments, COALESCE(SUM(orders.final_price), 0) AS revenue").
		Joins("JOIN orders ON orders.course_id = courses.id AND orders.status = ?", models.OrderSuccess).
		Where("courses.status = ? AND courses.deleted_at IS NULL", models.CourseApproved).
		Group("courses.id, courses.title, courses.thumbnail, courses.price").
		Order("enrollments DESC, revenue DESC").
		Limit(limit).
		Scan(&out).Error
	return out, wrap(err, "best selling courses")
}

const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

type RevenuePoint struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type bucketing struct {
	count  int
	layout string
	start  func(now time.Time) time.Time
	next   func(t time.Time) time.Time
}

var periods = map[string]bucketing{
	PeriodDaily: {
		count: 7, layout: "2006-01-02",
		start: func(n time.Time) time.Time {
			return time.Date(n.Year(), n.Month(), n.Day()-6, 0, 0, 0, 0, n.Location())
		},
		next: func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
	},
	PeriodMonthly: {
		count: 12, layout: "2006-01",
		start: func(n time.Time) time.Time { return time.Date(n.Year(), n.Month()-11, 1, 0, 0, 0, 0, n.Location()) },
		next:  func(t time.Time) time.Time { return t.AddDate(0, 1, 0) },
	},
	PeriodYearly: {
		count: 5, layout: "2006",
		start: func(n time.Time) time.Time { return time.Date(n.Year()-4, 1, 1, 0, 0, 0, 0, n.Location()) },
		next:  func(t time.Time) time.Time { return t.AddDate(1, 0, 0) },
	},
}

type revenueRow struct {
	FinalPrice  decimal.Decimal
	CompletedAt time.Time
}

// RevenueChart buckets successful orders by completion time. Empty buckets
// are reported as zero.
func RevenueChart(ctx context.Context, period string, now time.Time) ([]RevenuePoint, error) {
	b, ok := periods[period]
	if !ok {
		return nil, badRequest("period must be daily, monthly or yearly")
	}
	from := b.start(now)

	var rows []revenueRow
	if err := db(ctx).Model(&models.Order{}).
		Select("final_price, completed_at").
		Where("status = ? AND completed_at >= ?", models.OrderSuccess, from).
		Scan(&rows).Error; err != nil {
		return nil, wrap(err, "load revenue")
	}

	out := make([]RevenuePoint, 0, b.count)
	index := make(map[string]int, b.count)
	for t, i := from, 0; i < b.count; t, i = b.next(t), i+1 {
		label := t.Format(b.layout)
		index[label] = i
		out = append(out, RevenuePoint{Label: label, Revenue: decimal.Zero})
	}
	for _, r := range rows {
		i, ok := index[r.CompletedAt.In(now.Location()).Format(b.layout)]
		if !ok {
			continue
		}
		out[i].Revenue = out[i].Revenue.Add(r.FinalPrice)
		out[i].Orders++
	}
	return out, nil
}
