package forms

const (
	OTPSignup      = "signup"
	OTPReset       = "reset"
	OTPEmailVerify = "email-verify"
)

type GenerateOTP struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
	Role      string `json:"role" validate:"required,oneof=user tutor admin"`
	OTPType   string `json:"otp_type" validate:"required,oneof=signup reset email-verify"`
}

type VerifyOTP struct {
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role" validate:"required,oneof=user tutor admin"`
	OTP     string `json:"otp" validate:"required,len=6,numeric"`
	OTPType string `json:"otp_type" validate:"required,oneof=signup reset email-verify"`
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPassword struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPassword struct {
	Email           string `json:"email" validate:"required,email"`
	OTP             string `json:"otp" validate:"required,len=6,numeric"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type UpdateEmail struct {
	Email string `json:"email" validate:"required,email"`
}

type OTPOnly struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

type UpdatePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type ReadNotifications struct {
	IDs []string `json:"ids" validate:"required_without=All,omitempty,dive,uuid"`
	All bool     `json:"all"`
}

type Signup struct {
	FirstName       string `json:"first_name" validate:"required,min=2,max=100,name"`
	LastName        string `json:"last_name" validate:"omitempty,max=100,name"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}
