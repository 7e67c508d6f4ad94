package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anjiri1684/elevate_lms/cache"
	"github.com/anjiri1684/elevate_lms/handlers"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/testutil"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	db := testutil.SetupDB(t)

	prev := cache.Store
	cache.Store = cache.NewMemoryStorage()
	t.Cleanup(func() { cache.Store = prev })

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	Setup(app)
	return app, db
}

func call(t *testing.T, app *fiber.App, method, path, body string, cookies ...*http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func cookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSessionFlow(t *testing.T) {
	app, db := newApp(t)
	user := testutil.CreateUser(t, db, "asha@example.com")

	resp, body := call(t, app, http.MethodPost, "/api/user/login", `{"email":"asha@example.com","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, body = call(t, app, http.MethodPost, "/api/user/login", `{"email":"asha@example.com","password":"`+testutil.Password+`"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	access := cookie(resp, utils.CookieName(models.RoleUser, utils.AccessToken))
	refresh := cookie(resp, utils.CookieName(models.RoleUser, utils.RefreshToken))
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)

	resp, body = call(t, app, http.MethodGet, "/api/user/auth-load", "", access)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, user.ID.String(), data["id"])
	assert.NotContains(t, data, "password")

	// a user cookie does not open tutor routes
	resp, _ = call(t, app, http.MethodGet, "/api/tutor/auth-load", "", access)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// the refresh cookie alone restores the session
	resp, _ = call(t, app, http.MethodGet, "/api/user/profile", "", refresh)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotNil(t, cookie(resp, utils.CookieName(models.RoleUser, utils.AccessToken)))

	resp, _ = call(t, app, http.MethodDelete, "/api/user/logout", "", access)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	cleared := cookie(resp, utils.CookieName(models.RoleUser, utils.AccessToken))
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestBlockedAccountIsRejected(t *testing.T) {
	app, db := newApp(t)
	user := testutil.CreateUser(t, db, "asha@example.com")
	pair, err := utils.IssueTokenPair(user.ID, models.RoleUser)
	require.NoError(t, err)
	access := &http.Cookie{Name: utils.CookieName(models.RoleUser, utils.AccessToken), Value: pair.Access}

	resp, _ := call(t, app, http.MethodGet, "/api/user/isblocked", "", access)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.Model(user).Update("is_blocked", true).Error)
	resp, body := call(t, app, http.MethodGet, "/api/user/profile", "", access)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Your account has been blocked", body["message"])
}

func TestValidationAndErrors(t *testing.T) {
	app, _ := newApp(t)

	resp, body := call(t, app, http.MethodPost, "/api/generate-otp", `{"email":"not-an-email","role":"user","otp_type":"signup"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["errors"], "email")

	resp, body = call(t, app, http.MethodGet, "/api/courses/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, body = call(t, app, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestPublicCatalogue(t *testing.T) {
	app, db := newApp(t)
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "499", 2)

	resp, body := call(t, app, http.MethodGet, "/api/courses?limit=5", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	items := body["data"].([]interface{})
	require.Len(t, items, 1)
	meta := body["meta"].(map[string]interface{})
	assert.EqualValues(t, 1, meta["total"])
	assert.EqualValues(t, 5, meta["limit"])

	resp, body = call(t, app, http.MethodGet, "/api/courses/"+course.ID.String(), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Equal(t, course.Title, body["data"].(map[string]interface{})["title"])

	resp, _ = call(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebhookRequiresSignature(t *testing.T) {
	app, _ := newApp(t)
	resp, body := call(t, app, http.MethodPost, "/api/payments/webhook", `{"event":"payment.captured"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid webhook signature", body["message"])
}

func TestVerifyOTPUsesStrictTier(t *testing.T) {
	app, _ := newApp(t)
	body := `{"email":"asha@example.com","role":"user","otp":"123456","otp_type":"signup"}`

	for i := 0; i < middleware.TierStrict.Max; i++ {
		resp, _ := call(t, app, http.MethodPost, "/api/verify-otp", body)
		require.NotEqual(t, fiber.StatusTooManyRequests, resp.StatusCode, "attempt %d", i+1)
	}
	resp, out := call(t, app, http.MethodPost, "/api/verify-otp", body)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, middleware.TierStrict.Message, out["message"])
}
