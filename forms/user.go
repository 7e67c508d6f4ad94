package forms

type UserProfile struct {
	FirstName    string  `json:"first_name" validate:"required,min=2,max=100,name"`
	LastName     string  `json:"last_name" validate:"omitempty,max=100,name"`
	Phone        string  `json:"phone" validate:"omitempty,phone"`
	Bio          *string `json:"bio" validate:"omitempty,max=1000"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url"`
}

type CourseRef struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

type ApplyCoupon struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	Code     string `json:"code" validate:"required,min=3,max=40"`
}

type CreateOrder struct {
	CourseID      string `json:"course_id" validate:"required,uuid"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=razorpay wallet"`
}

type VerifyPayment struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required,hexadecimal"`
}

type LessonStatus struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	LessonID string `json:"lesson_id" validate:"required,uuid"`
	Status   string `json:"status" validate:"required,oneof=not_started in_progress completed"`
}

type SelectLesson struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	LessonID string `json:"lesson_id" validate:"required,uuid"`
}
