package services

import (
	"context"
	"errors"
	"strings"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/notifications"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/anjiri1684/elevate_lms/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	otpEmailChange    = "email-change"
	otpPasswordChange = "password-change"
	EventBlocked      = "blocked"
)

var errBadCredentials = fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")

func hashPassword(p string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		return "", pkgerrors.Wrap(err, "hash password")
	}
	return string(h), nil
}

func optionalPhone(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	p, err := forms.NormalizePhone(raw)
	if err != nil {
		return nil, badRequest("Invalid phone number")
	}
	return &p, nil
}

func newAccountRow(role models.Role, base models.Account) models.Accountable {
	switch role {
	case models.RoleTutor:
		return &models.Tutor{Account: base, VerificationStatus: models.VerificationNotRequested}
	case models.RoleAdmin:
		return &models.Admin{Account: base}
	default:
		return &models.User{Account: base}
	}
}

// createAccount inserts the account row and its wallet in one transaction.
func createAccount(ctx context.Context, role models.Role, base models.Account) (models.Accountable, error) {
	var acc models.Accountable
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		acc, err = createAccountTx(tx, role, base)
		return err
	})
	if err != nil {
		return nil, wrap(err, "create account")
	}
	return acc, nil
}

func createAccountTx(tx *gorm.DB, role models.Role, base models.Account) (models.Accountable, error) {
	acc := newAccountRow(role, base)
	if err := tx.Create(acc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("An account with this email already exists")
		}
		return nil, err
	}
	if role == models.RoleAdmin {
		return acc, nil
	}
	if _, err := EnsureWallet(tx, role, acc.Base().ID); err != nil {
		return nil, err
	}
	return acc, nil
}

// Signup registers a user or tutor whose email was verified with a signup OTP.
func Signup(ctx context.Context, role models.Role, f *forms.Signup) (models.Accountable, error) {
	email := utils.NormalizeEmail(f.Email)
	exists, err := accountExists(ctx, role, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("An account with this email already exists")
	}
	ok, err := takeVerified(forms.OTPSignup, role, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, badRequest("Verify your email with the OTP before signing up")
	}
	return register(ctx, role, f)
}

func accountFromSignup(f *forms.Signup) (models.Account, error) {
	phone, err := optionalPhone(f.Phone)
	if err != nil {
		return models.Account{}, err
	}
	hash, err := hashPassword(f.Password)
	if err != nil {
		return models.Account{}, err
	}
	now := time.Now()
	return models.Account{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     utils.NormalizeEmail(f.Email),
		Phone:     phone,
		Password:  hash,
		IsActive:  true,
		LastLogin: &now,
	}, nil
}

func welcome(acc models.Accountable, role models.Role) {
	base := acc.Base()
	go notifications.SendEmail(base.FullName(), base.Email, "Welcome to ElevateU", notifications.WelcomeEmail(base.FirstName, string(role)))
}

func register(ctx context.Context, role models.Role, f *forms.Signup) (models.Accountable, error) {
	base, err := accountFromSignup(f)
	if err != nil {
		return nil, err
	}
	acc, err := createAccount(ctx, role, base)
	if err != nil {
		return nil, err
	}
	welcome(acc, role)
	return acc, nil
}

// AdminSignup bootstraps the first admin; later admins need the signup key.
// The platform wallet row is locked while counting so two bootstrap requests
// cannot both see an empty admin table.
func AdminSignup(ctx context.Context, f *forms.Signup, key string) (models.Accountable, error) {
	base, err := accountFromSignup(f)
	if err != nil {
		return nil, err
	}
	var acc models.Accountable
	err = db(ctx).Transaction(func(tx *gorm.DB) error {
		platform, err := EnsureWallet(tx, models.RoleAdmin, models.PlatformOwnerID)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&models.Wallet{}, "id = ?", platform.ID).Error; err != nil {
			return err
		}

		var admins int64
		if err := tx.Model(&models.Admin{}).Count(&admins).Error; err != nil {
			return err
		}
		if admins > 0 {
			expected := config.Config("ADMIN_SIGNUP_KEY")
			if expected == "" || key != expected {
				return forbidden("Admin signup is closed")
			}
		}
		if acc, err = createAccountTx(tx, models.RoleAdmin, base); err != nil {
			return err
		}
		if admins == 0 {
			return tx.Model(acc).Update("is_super_admin", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "admin signup")
	}
	welcome(acc, models.RoleAdmin)
	return acc, nil
}

func Login(ctx context.Context, role models.Role, f *forms.Login) (models.Accountable, error) {
	acc := models.NewAccount(role)
	err := db(ctx).Where("email = ?", utils.NormalizeEmail(f.Email)).First(acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, wrap(err, "load account")
	}
	base := acc.Base()
	if base.Password == "" {
		return nil, badRequest("This account uses Google sign-in")
	}
	if bcrypt.CompareHashAndPassword([]byte(base.Password), []byte(f.Password)) != nil {
		return nil, errBadCredentials
	}
	if base.IsBlocked {
		return nil, forbidden("Your account has been blocked")
	}
	if !base.IsActive {
		return nil, forbidden("Your account is deactivated")
	}
	now := time.Now()
	base.LastLogin = &now
	if err := db(ctx).Model(acc).Update("last_login", now).Error; err != nil {
		logger.Module("auth").Warn("failed to record last login", zap.Error(err))
	}
	return acc, nil
}

func LoadAccount(ctx context.Context, role models.Role, id uuid.UUID) (models.Accountable, error) {
	acc := models.NewAccount(role)
	if err := db(ctx).First(acc, "id = ?", id).Error; err != nil {
		return nil, lookup(err, "Account")
	}
	return acc, nil
}

func ForgotPassword(ctx context.Context, role models.Role, f *forms.ForgotPassword) error {
	return GenerateOTP(ctx, &forms.GenerateOTP{Email: f.Email, Role: string(role), OTPType: forms.OTPReset})
}

func ResetPassword(ctx context.Context, role models.Role, f *forms.ResetPassword) error {
	exists, err := accountExists(ctx, role, f.Email)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("Account")
	}
	if _, err := consumeOTP(forms.OTPReset, role, f.Email, f.OTP); err != nil {
		return err
	}
	hash, err := hashPassword(f.Password)
	if err != nil {
		return err
	}
	return wrap(db(ctx).Model(models.NewAccount(role)).
		Where("email = ?", utils.NormalizeEmail(f.Email)).
		Update("password", hash).Error, "reset password")
}

func UpdateUserProfile(ctx context.Context, id uuid.UUID, f *forms.UserProfile) (*models.User, error) {
	phone, err := optionalPhone(f.Phone)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := db(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, lookup(err, "User")
	}
	u.FirstName, u.LastName, u.Phone, u.Bio = strings.TrimSpace(f.FirstName), strings.TrimSpace(f.LastName), phone, f.Bio
	if f.ProfileImage != nil {
		u.ProfileImage = f.ProfileImage
	}
	return &u, wrap(db(ctx).Save(&u).Error, "update profile")
}

func UpdateTutorProfile(ctx context.Context, id uuid.UUID, f *forms.TutorProfile) (*models.Tutor, error) {
	phone, err := optionalPhone(f.Phone)
	if err != nil {
		return nil, err
	}
	var t models.Tutor
	if err := db(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, lookup(err, "Tutor")
	}
	t.FirstName, t.LastName, t.Phone = strings.TrimSpace(f.FirstName), strings.TrimSpace(f.LastName), phone
	t.Headline, t.Bio, t.Expertise, t.Experience = f.Headline, f.Bio, f.Expertise, f.Experience
	if f.ProfileImage != nil {
		t.ProfileImage = f.ProfileImage
	}
	return &t, wrap(db(ctx).Save(&t).Error, "update profile")
}

func UpdateAdminProfile(ctx context.Context, id uuid.UUID, f *forms.AdminProfile) (*models.Admin, error) {
	phone, err := optionalPhone(f.Phone)
	if err != nil {
		return nil, err
	}
	var a models.Admin
	if err := db(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, lookup(err, "Admin")
	}
	a.FirstName, a.LastName, a.Phone = strings.TrimSpace(f.FirstName), strings.TrimSpace(f.LastName), phone
	if f.ProfileImage != nil {
		a.ProfileImage = f.ProfileImage
	}
	return &a, wrap(db(ctx).Save(&a).Error, "update profile")
}

// RequestEmailChange mails an OTP to the new address; the address is applied
// by ConfirmEmailChange.
func RequestEmailChange(ctx context.Context, role models.Role, id uuid.UUID, f *forms.UpdateEmail) error {
	acc, err := LoadAccount(ctx, role, id)
	if err != nil {
		return err
	}
	email := utils.NormalizeEmail(f.Email)
	if email == acc.Base().Email {
		return badRequest("This is already your email")
	}
	taken, err := accountExists(ctx, role, email)
	if err != nil {
		return err
	}
	if taken {
		return conflict("An account with this email already exists")
	}
	code, err := issueOTP(otpEmailChange, role, id.String(), email)
	if err != nil {
		return err
	}
	name := acc.Base().FirstName
	go notifications.SendEmail(name, email, "Confirm your new email", notifications.OTPEmail(name, code, "5"))
	return nil
}

func ConfirmEmailChange(ctx context.Context, role models.Role, id uuid.UUID, otp string) (string, error) {
	email, err := consumeOTP(otpEmailChange, role, id.String(), otp)
	if err != nil {
		return "", err
	}
	err = db(ctx).Model(models.NewAccount(role)).Where("id = ?", id).Update("email", email).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", conflict("An account with this email already exists")
	}
	return email, wrap(err, "update email")
}

// RequestPasswordChange checks the current password and holds the new hash
// until the OTP mailed to the account is confirmed.
func RequestPasswordChange(ctx context.Context, role models.Role, id uuid.UUID, f *forms.UpdatePassword) error {
	acc, err := LoadAccount(ctx, role, id)
	if err != nil {
		return err
	}
	base := acc.Base()
	if base.Password != "" && bcrypt.CompareHashAndPassword([]byte(base.Password), []byte(f.CurrentPassword)) != nil {
		return badRequest("Current password is incorrect")
	}
	hash, err := hashPassword(f.NewPassword)
	if err != nil {
		return err
	}
	code, err := issueOTP(otpPasswordChange, role, id.String(), hash)
	if err != nil {
		return err
	}
	go notifications.SendEmail(base.FullName(), base.Email, "Confirm your password change", notifications.OTPEmail(base.FirstName, code, "5"))
	return nil
}

func ResendPasswordOTP(ctx context.Context, role models.Role, id uuid.UUID) error {
	acc, err := LoadAccount(ctx, role, id)
	if err != nil {
		return err
	}
	code, err := reissueOTP(otpPasswordChange, role, id.String())
	if err != nil {
		return err
	}
	base := acc.Base()
	go notifications.SendEmail(base.FullName(), base.Email, "Confirm your password change", notifications.OTPEmail(base.FirstName, code, "5"))
	return nil
}

func ConfirmPasswordChange(ctx context.Context, role models.Role, id uuid.UUID, otp string) error {
	hash, err := consumeOTP(otpPasswordChange, role, id.String(), otp)
	if err != nil {
		return err
	}
	return wrap(db(ctx).Model(models.NewAccount(role)).Where("id = ?", id).Update("password", hash).Error, "update password")
}

func Deactivate(ctx context.Context, role models.Role, id uuid.UUID) error {
	res := db(ctx).Model(models.NewAccount(role)).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return wrap(res.Error, "deactivate account")
	}
	if res.RowsAffected == 0 {
		return notFound("Account")
	}
	return nil
}

func IsBlocked(ctx context.Context, role models.Role, id uuid.UUID) (bool, error) {
	acc, err := LoadAccount(ctx, role, id)
	if err != nil {
		return false, err
	}
	return acc.Base().IsBlocked, nil
}

// AddAccount lets an admin create a user or tutor. A temporary password is
// generated and mailed.
func AddAccount(ctx context.Context, role models.Role, f *forms.AddAccount) (models.Accountable, error) {
	phone, err := optionalPhone(f.Phone)
	if err != nil {
		return nil, err
	}
	password, err := utils.GeneratePassword()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "generate password")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	acc, err := createAccount(ctx, role, models.Account{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     utils.NormalizeEmail(f.Email),
		Phone:     phone,
		Password:  hash,
		IsActive:  true,
	})
	if err != nil {
		return nil, err
	}
	base := acc.Base()
	go notifications.SendEmail(base.FullName(), base.Email, "Your ElevateU account", notifications.TemporaryPasswordEmail(base.FirstName, password))
	return acc, nil
}

type AccountFilter struct {
	Search  string
	Blocked *bool
}

func ListAccounts[T any](ctx context.Context, f AccountFilter, p utils.Page) (Paged[T], error) {
	var model T
	q := db(ctx).Model(&model)
	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}
	if f.Blocked != nil {
		q = q.Where("is_blocked = ?", *f.Blocked)
	}
	out, err := paginate[T](q, p, "created_at DESC")
	return out, wrap(err, "list accounts")
}

func UpdateAccount(ctx context.Context, role models.Role, id uuid.UUID, f *forms.UpdateAccount) (models.Accountable, error) {
	phone, err := optionalPhone(f.Phone)
	if err != nil {
		return nil, err
	}
	acc, err := LoadAccount(ctx, role, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"first_name": strings.TrimSpace(f.FirstName),
		"last_name":  strings.TrimSpace(f.LastName),
		"phone":      phone,
	}
	if f.IsActive != nil {
		updates["is_active"] = *f.IsActive
	}
	if err := db(ctx).Model(acc).Updates(updates).Error; err != nil {
		return nil, wrap(err, "update account")
	}
	return LoadAccount(ctx, role, id)
}

// ToggleBlock flips the block flag and kicks any open socket of the account.
func ToggleBlock(ctx context.Context, role models.Role, id uuid.UUID) (bool, error) {
	acc, err := LoadAccount(ctx, role, id)
	if err != nil {
		return false, err
	}
	blocked := !acc.Base().IsBlocked
	if err := db(ctx).Model(acc).Update("is_blocked", blocked).Error; err != nil {
		return false, wrap(err, "toggle block")
	}
	if blocked {
		websocket.Default.Send(role, id, EventBlocked, fiber.Map{"message": "Your account has been blocked"})
	}
	return blocked, nil
}

func DeleteAccount(ctx context.Context, role models.Role, id uuid.UUID) error {
	res := db(ctx).Delete(models.NewAccount(role), "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "delete account")
	}
	if res.RowsAffected == 0 {
		return notFound("Account")
	}
	return nil
}

// RequestVerification queues the tutor for admin review.
func RequestVerification(ctx context.Context, tutorID uuid.UUID) (*models.Tutor, error) {
	var t models.Tutor
	if err := db(ctx).First(&t, "id = ?", tutorID).Error; err != nil {
		return nil, lookup(err, "Tutor")
	}
	switch t.VerificationStatus {
	case models.VerificationPending:
		return nil, conflict("Verification is already pending")
	case models.VerificationApproved:
		return nil, conflict("You are already verified")
	}
	if t.Bio == nil || strings.TrimSpace(*t.Bio) == "" || t.Expertise == nil || strings.TrimSpace(*t.Expertise) == "" {
		return nil, badRequest("Add your bio and expertise to your profile before requesting verification")
	}
	if err := db(ctx).Model(&t).Updates(map[string]interface{}{
		"verification_status": models.VerificationPending,
		"rejection_reason":    nil,
	}).Error; err != nil {
		return nil, wrap(err, "request verification")
	}
	t.VerificationStatus = models.VerificationPending
	t.RejectionReason = nil

	NotifyAdmins(ctx, Notice{
		Type:    models.NotifyAccount,
		Title:   "Tutor verification request",
		Message: t.FullName() + " requested verification.",
		Link:    "/admin/verification-request",
	})
	return &t, nil
}

func VerificationRequests(ctx context.Context, p utils.Page) (Paged[models.Tutor], error) {
	q := db(ctx).Model(&models.Tutor{}).Where("verification_status = ?", models.VerificationPending)
	out, err := paginate[models.Tutor](q, p, "updated_at")
	return out, wrap(err, "list verification requests")
}

func DecideVerification(ctx context.Context, tutorID uuid.UUID, f *forms.VerificationDecision) (*models.Tutor, error) {
	var t models.Tutor
	if err := db(ctx).First(&t, "id = ?", tutorID).Error; err != nil {
		return nil, lookup(err, "Tutor")
	}
	if t.VerificationStatus != models.VerificationPending {
		return nil, conflict("No pending verification for this tutor")
	}
	approved := f.Status == models.VerificationApproved
	var reason interface{}
	if !approved {
		reason = f.Reason
	}
	if err := db(ctx).Model(&t).Updates(map[string]interface{}{
		"verification_status": f.Status,
		"is_verified":         approved,
		"rejection_reason":    reason,
	}).Error; err != nil {
		return nil, wrap(err, "decide verification")
	}
	t.VerificationStatus, t.IsVerified = f.Status, approved

	n := Notice{Type: models.NotifyAccount, Title: "Verification approved", Message: "You are now a verified tutor and can publish courses."}
	if !approved {
		n.Title = "Verification rejected"
		n.Message = "Your verification request was rejected: " + f.Reason
		t.RejectionReason = &f.Reason
	}
	Notify(ctx, models.RoleTutor, t.ID, n)
	go notifications.SendEmail(t.FullName(), t.Email, n.Title, notifications.NoticeEmail(t.FirstName, n.Title, n.Message))
	return &t, nil
}
