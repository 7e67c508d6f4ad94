package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/elevate_lms/cache"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/testutil"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSpecsParse(t *testing.T) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for _, j := range Defaults() {
		_, err := parser.Parse(j.Spec)
		assert.NoError(t, err, j.Name)
	}
}

func TestExpireCoupons(t *testing.T) {
	db := testutil.SetupDB(t)
	c := models.Coupon{
		Code:          "OLD10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		ExpiresAt:     time.Now().Add(-time.Hour),
		IsActive:      true,
	}
	require.NoError(t, db.Create(&c).Error)

	require.NoError(t, ExpireCoupons(context.Background()))

	var got models.Coupon
	require.NoError(t, db.First(&got, "id = ?", c.ID).Error)
	assert.False(t, got.IsActive)
}

func TestSweepMemoryCache(t *testing.T) {
	prev := cache.Store
	mem := cache.NewMemoryStorage()
	cache.Store = mem
	t.Cleanup(func() { cache.Store = prev })

	require.NoError(t, mem.Set("gone", []byte("x"), time.Nanosecond))
	require.NoError(t, mem.Set("kept", []byte("y"), time.Hour))
	time.Sleep(time.Millisecond)

	require.NoError(t, SweepMemoryCache(context.Background()))
	v, err := mem.Get("kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), v)
	v, err = mem.Get("gone")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRunSurvivesFailingJob(t *testing.T) {
	calls := 0
	run(Job{Name: "boom", Run: func(context.Context) error {
		calls++
		return errors.New("boom")
	}})
	assert.Equal(t, 1, calls)
}
