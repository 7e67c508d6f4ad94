package forms

import "fmt"

var registry = map[string]func() interface{}{
	"common/generate-otp":       func() interface{} { return &GenerateOTP{} },
	"common/verify-otp":         func() interface{} { return &VerifyOTP{} },
	"common/login":              func() interface{} { return &Login{} },
	"common/forgot-password":    func() interface{} { return &ForgotPassword{} },
	"common/reset-password":     func() interface{} { return &ResetPassword{} },
	"common/update-email":       func() interface{} { return &UpdateEmail{} },
	"common/otp":                func() interface{} { return &OTPOnly{} },
	"common/update-password":    func() interface{} { return &UpdatePassword{} },
	"common/read-notifications": func() interface{} { return &ReadNotifications{} },

	"user/signup":         func() interface{} { return &Signup{} },
	"user/profile":        func() interface{} { return &UserProfile{} },
	"user/course-ref":     func() interface{} { return &CourseRef{} },
	"user/apply-coupon":   func() interface{} { return &ApplyCoupon{} },
	"user/create-order":   func() interface{} { return &CreateOrder{} },
	"user/verify-payment": func() interface{} { return &VerifyPayment{} },
	"user/lesson-status":  func() interface{} { return &LessonStatus{} },
	"user/select-lesson":  func() interface{} { return &SelectLesson{} },

	"tutor/signup":       func() interface{} { return &Signup{} },
	"tutor/profile":      func() interface{} { return &TutorProfile{} },
	"tutor/course":       func() interface{} { return &Course{} },
	"tutor/check-title":  func() interface{} { return &CheckTitle{} },
	"tutor/bank-account": func() interface{} { return &BankAccount{} },
	"tutor/withdrawal":   func() interface{} { return &Withdrawal{} },

	"admin/signup":                func() interface{} { return &Signup{} },
	"admin/profile":               func() interface{} { return &AdminProfile{} },
	"admin/add-account":           func() interface{} { return &AddAccount{} },
	"admin/update-account":        func() interface{} { return &UpdateAccount{} },
	"admin/verification-decision": func() interface{} { return &VerificationDecision{} },
	"admin/category":              func() interface{} { return &Category{} },
	"admin/coupon":                func() interface{} { return &Coupon{} },
	"admin/course-review":         func() interface{} { return &CourseReview{} },
	"admin/assign-category":       func() interface{} { return &AssignCategory{} },
	"admin/course-status":         func() interface{} { return &CourseStatus{} },
	"admin/withdraw":              func() interface{} { return &AdminWithdraw{} },
	"admin/withdrawal-decision":   func() interface{} { return &WithdrawalDecision{} },
}

// New returns an empty form for role/name. It panics on unknown forms so
// route wiring mistakes surface at startup.
func New(role, name string) interface{} {
	factory, ok := registry[role+"/"+name]
	if !ok {
		panic(fmt.Sprintf("forms: no form registered for %s/%s", role, name))
	}
	return factory()
}

func Exists(role, name string) bool {
	_, ok := registry[role+"/"+name]
	return ok
}
