package forms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrongPassword(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"Secret#123", true},
		{"secret#123", false},
		{"SECRET#123", false},
		{"Secret1234", false},
		{"Secret#abc", false},
		{"Se#1", false},
	}
	for _, tc := range cases {
		t.Run(tc.password, func(t *testing.T) {
			assert.Equal(t, tc.want, StrongPassword(tc.password))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("98765 43210")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", got)

	got, err = NormalizePhone("+1 650 253 0000")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got)

	_, err = NormalizePhone("12345")
	assert.Error(t, err)
}

func TestSignupValidation(t *testing.T) {
	f := Signup{
		FirstName:       "Asha",
		Email:           "asha@example.com",
		Password:        "Secret#123",
		ConfirmPassword: "Secret#124",
	}
	err := Validate.Struct(f)
	require.Error(t, err)

	errs := Errors(err)
	assert.Contains(t, errs, "confirm_password")
	assert.NotContains(t, errs, "email")

	f.ConfirmPassword = f.Password
	assert.NoError(t, Validate.Struct(f))

	f.FirstName = "Asha99"
	errs = Errors(Validate.Struct(f))
	assert.Equal(t, "may only contain letters, spaces, dots, apostrophes and hyphens", errs["first_name"])
}

func TestConditionalRequired(t *testing.T) {
	assert.Error(t, Validate.Struct(CourseReview{Status: "rejected"}))
	assert.NoError(t, Validate.Struct(CourseReview{Status: "approved"}))

	assert.Error(t, Validate.Struct(ReadNotifications{}))
	assert.NoError(t, Validate.Struct(ReadNotifications{All: true}))
	assert.Error(t, Validate.Struct(ReadNotifications{IDs: []string{"nope"}}))
}

func TestCouponForm(t *testing.T) {
	c := Coupon{
		Code:          "WELCOME10",
		DiscountType:  "percentage",
		DiscountValue: 10,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	assert.NoError(t, Validate.Struct(c))

	c.DiscountType = "bogus"
	assert.Contains(t, Errors(Validate.Struct(c)), "discount_type")
}

func TestRegistry(t *testing.T) {
	assert.IsType(t, &Signup{}, New("user", "signup"))
	assert.IsType(t, &Coupon{}, New("admin", "coupon"))
	assert.False(t, Exists("user", "coupon"))
	assert.Panics(t, func() { New("user", "nope") })
}
