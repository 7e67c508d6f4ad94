package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/anjiri1684/elevate_lms/cache"
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/notifications"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"
)

const (
	otpTTL         = 5 * time.Minute
	resetOTPTTL    = 10 * time.Minute
	verifiedTTL    = 15 * time.Minute
	maxOTPAttempts = 5
)

var (
	errOTPInvalid = badRequest("Invalid or expired OTP")
	errOTPLocked  = fiber.NewError(fiber.StatusTooManyRequests, "Too many wrong attempts, request a new OTP")
)

type otpRecord struct {
	Hash    string `json:"hash"`
	Payload string `json:"payload,omitempty"`
}

func otpKey(purpose string, role models.Role, email string) string {
	return fmt.Sprintf("otp:%s:%s:%s", purpose, role, utils.NormalizeEmail(email))
}

func verifiedKey(purpose string, role models.Role, email string) string {
	return fmt.Sprintf("otp-ok:%s:%s:%s", purpose, role, utils.NormalizeEmail(email))
}

func ttlFor(purpose string) time.Duration {
	if purpose == forms.OTPReset {
		return resetOTPTTL
	}
	return otpTTL
}

func attemptsKey(purpose string, role models.Role, email string) string {
	return fmt.Sprintf("otp-tries:%s:%s:%s", purpose, role, utils.NormalizeEmail(email))
}

// issueOTP stores a hashed code (plus an optional payload the verification
// step needs) and returns the plain code for mailing. A new code starts a new
// attempt count.
func issueOTP(purpose string, role models.Role, email, payload string) (string, error) {
	code, err := utils.GenerateOTP()
	if err != nil {
		return "", pkgerrors.Wrap(err, "generate otp")
	}
	rec, _ := json.Marshal(otpRecord{Hash: utils.HashSecret(code), Payload: payload})
	if err := cache.Store.Delete(attemptsKey(purpose, role, email)); err != nil {
		return "", pkgerrors.Wrap(err, "reset otp attempts")
	}
	if err := cache.Store.Set(otpKey(purpose, role, email), rec, ttlFor(purpose)); err != nil {
		return "", pkgerrors.Wrap(err, "store otp")
	}
	return code, nil
}

// consumeOTP checks code against the stored record. Every check takes an
// attempt from an atomic counter first; only the first maxOTPAttempts are
// compared, and a wrong final attempt drops the record. The counter expires
// with the code window and a miss never extends either. On success the record
// is deleted and its payload returned.
func consumeOTP(purpose string, role models.Role, email, code string) (string, error) {
	key := otpKey(purpose, role, email)
	tries, err := cache.Incr(attemptsKey(purpose, role, email), ttlFor(purpose))
	if err != nil {
		return "", pkgerrors.Wrap(err, "count otp attempt")
	}
	if tries > maxOTPAttempts {
		_ = cache.Store.Delete(key)
		return "", errOTPLocked
	}

	raw, err := cache.Store.Get(key)
	if err != nil {
		return "", pkgerrors.Wrap(err, "load otp")
	}
	if raw == nil {
		return "", errOTPInvalid
	}
	var rec otpRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		_ = cache.Store.Delete(key)
		return "", errOTPInvalid
	}

	if rec.Hash != utils.HashSecret(code) {
		if tries == maxOTPAttempts {
			_ = cache.Store.Delete(key)
			return "", errOTPLocked
		}
		return "", errOTPInvalid
	}

	_ = cache.Store.Delete(key)
	_ = cache.Store.Delete(attemptsKey(purpose, role, email))
	return rec.Payload, nil
}

// reissueOTP replaces the code of a pending record while keeping its payload.
func reissueOTP(purpose string, role models.Role, email string) (string, error) {
	raw, err := cache.Store.Get(otpKey(purpose, role, email))
	if err != nil {
		return "", pkgerrors.Wrap(err, "load otp")
	}
	if raw == nil {
		return "", badRequest("No pending request, start again")
	}
	var rec otpRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", badRequest("No pending request, start again")
	}
	return issueOTP(purpose, role, email, rec.Payload)
}

func accountExists(ctx context.Context, role models.Role, email string) (bool, error) {
	var count int64
	err := db(ctx).Model(models.NewAccount(role)).Where("email = ?", utils.NormalizeEmail(email)).Count(&count).Error
	return count > 0, wrap(err, "check account")
}

// GenerateOTP handles the public generate-otp call for signup, reset and
// email verification codes.
func GenerateOTP(ctx context.Context, f *forms.GenerateOTP) error {
	role := models.Role(f.Role)
	exists, err := accountExists(ctx, role, f.Email)
	if err != nil {
		return err
	}
	switch f.OTPType {
	case forms.OTPSignup, forms.OTPEmailVerify:
		if exists {
			return conflict("An account with this email already exists")
		}
	case forms.OTPReset:
		if !exists {
			return notFound("Account")
		}
	}

	code, err := issueOTP(f.OTPType, role, f.Email, "")
	if err != nil {
		return err
	}
	name := f.FirstName
	if name == "" {
		name = "there"
	}
	minutes := strconv.Itoa(int(ttlFor(f.OTPType).Minutes()))
	if f.OTPType == forms.OTPReset {
		go notifications.SendEmail(name, f.Email, "Your password reset code", notifications.ResetOTPEmail(name, code, minutes))
	} else {
		go notifications.SendEmail(name, f.Email, "Your verification code", notifications.OTPEmail(name, code, minutes))
	}
	return nil
}

// VerifyOTP consumes the code and leaves a short-lived marker that the follow
// up step (signup) checks.
func VerifyOTP(ctx context.Context, f *forms.VerifyOTP) error {
	role := models.Role(f.Role)
	if _, err := consumeOTP(f.OTPType, role, f.Email, f.OTP); err != nil {
		return err
	}
	return wrap(cache.Store.Set(verifiedKey(f.OTPType, role, f.Email), []byte("1"), verifiedTTL), "store otp marker")
}

// takeVerified reports and clears the marker left by VerifyOTP.
func takeVerified(purpose string, role models.Role, email string) (bool, error) {
	key := verifiedKey(purpose, role, email)
	raw, err := cache.Store.Get(key)
	if err != nil {
		return false, pkgerrors.Wrap(err, "load otp marker")
	}
	if raw == nil {
		return false, nil
	}
	_ = cache.Store.Delete(key)
	return true, nil
}
