package services

import (
	"context"
	"errors"
	"strings"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

const OAuthStateCookie = "oauth_state"

// GoogleIdentity is the subset of id_token claims used to sign an account in.
type GoogleIdentity struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Picture   string
}

// IdentityVerifier exchanges an authorization code for a verified identity.
type IdentityVerifier interface {
	AuthCodeURL(role models.Role, state string) string
	Identify(ctx context.Context, role models.Role, code string) (*GoogleIdentity, error)
}

type googleVerifier struct{}

// Google is replaced in tests.
var Google IdentityVerifier = googleVerifier{}

func googleConfig(role models.Role) *oauth2.Config {
	base := strings.TrimRight(config.Get("GOOGLE_REDIRECT_BASE_URL", "http://localhost:5000"), "/")
	return &oauth2.Config{
		ClientID:     config.Config("GOOGLE_CLIENT_ID"),
		ClientSecret: config.Config("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  base + "/api/" + string(role) + "/auth-callback",
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func GoogleEnabled() bool {
	return config.Config("GOOGLE_CLIENT_ID") != "" && config.Config("GOOGLE_CLIENT_SECRET") != ""
}

func (googleVerifier) AuthCodeURL(role models.Role, state string) string {
	return googleConfig(role).AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (googleVerifier) Identify(ctx context.Context, role models.Role, code string) (*GoogleIdentity, error) {
	cfg := googleConfig(role)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "exchange code")
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("id_token missing from token response")
	}
	payload, err := idtoken.Validate(ctx, raw, cfg.ClientID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "validate id token")
	}
	id := &GoogleIdentity{Subject: payload.Subject}
	id.Email, _ = payload.Claims["email"].(string)
	id.FirstName, _ = payload.Claims["given_name"].(string)
	id.LastName, _ = payload.Claims["family_name"].(string)
	id.Picture, _ = payload.Claims["picture"].(string)
	if verified, _ := payload.Claims["email_verified"].(bool); !verified || id.Email == "" {
		return nil, errors.New("google account has no verified email")
	}
	return id, nil
}

// NewOAuthState returns a random state value for the redirect.
func NewOAuthState() (string, error) {
	s, err := utils.RandomToken(24)
	return s, pkgerrors.Wrap(err, "generate oauth state")
}

// GoogleSignIn finds the account by Google id, then by email, and creates it
// when neither matches. Existing password accounts get the Google id linked.
func GoogleSignIn(ctx context.Context, role models.Role, ident *GoogleIdentity) (models.Accountable, error) {
	acc := models.NewAccount(role)
	err := db(ctx).Where("google_id = ?", ident.Subject).
		Or("email = ?", utils.NormalizeEmail(ident.Email)).
		First(acc).Error
	switch {
	case err == nil:
		base := acc.Base()
		if base.IsBlocked {
			return nil, forbidden("Your account has been blocked")
		}
		if !base.IsActive {
			return nil, forbidden("Your account is deactivated")
		}
		now := time.Now()
		updates := map[string]interface{}{"last_login": now}
		if base.GoogleID == nil {
			updates["google_id"] = ident.Subject
		}
		if base.ProfileImage == nil && ident.Picture != "" {
			updates["profile_image"] = ident.Picture
		}
		if err := db(ctx).Model(acc).Updates(updates).Error; err != nil {
			return nil, wrap(err, "link google account")
		}
		return acc, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, wrap(err, "load account")
	}

	first := ident.FirstName
	if first == "" {
		first = strings.Split(ident.Email, "@")[0]
	}
	now := time.Now()
	base := models.Account{
		FirstName: first,
		LastName:  ident.LastName,
		Email:     utils.NormalizeEmail(ident.Email),
		GoogleID:  &ident.Subject,
		IsActive:  true,
		LastLogin: &now,
	}
	if ident.Picture != "" {
		base.ProfileImage = &ident.Picture
	}
	return createAccount(ctx, role, base)
}

var errOAuthState = fiber.NewError(fiber.StatusUnauthorized, "OAuth state mismatch")

// CompleteGoogleSignIn checks the state, verifies the code and signs in.
func CompleteGoogleSignIn(ctx context.Context, role models.Role, state, expected, code string) (models.Accountable, error) {
	if state == "" || state != expected {
		return nil, errOAuthState
	}
	if code == "" {
		return nil, badRequest("Missing authorization code")
	}
	ident, err := Google.Identify(ctx, role, code)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Google sign-in failed")
	}
	return GoogleSignIn(ctx, role, ident)
}
