// Package testutil wires an in-memory database and common fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/anjiri1684/elevate_lms/database"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SetupDB points database.DB at a fresh, migrated in-memory SQLite database
// for the duration of the test.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name)

	db, err := gorm.Open(sqlite.Open(dsn), database.Options())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.EnsurePlatformWallet(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		_ = sqlDB.Close()
	})
	return db
}

const Password = "Secret#123"

func hash(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Account: models.Account{FirstName: "Asha", LastName: "Rao", Email: email, Password: hash(t), IsActive: true}}
	require.NoError(t, db.Create(u).Error)
	createWallet(t, db, u.ID, models.RoleUser, decimal.Zero)
	return u
}

func CreateTutor(t *testing.T, db *gorm.DB, email string) *models.Tutor {
	t.Helper()
	tu := &models.Tutor{
		Account:            models.Account{FirstName: "Ravi", LastName: "Kumar", Email: email, Password: hash(t), IsActive: true},
		VerificationStatus: models.VerificationApproved,
		IsVerified:         true,
	}
	require.NoError(t, db.Create(tu).Error)
	createWallet(t, db, tu.ID, models.RoleTutor, decimal.Zero)
	return tu
}

func CreateAdmin(t *testing.T, db *gorm.DB, email string) *models.Admin {
	t.Helper()
	a := &models.Admin{Account: models.Account{FirstName: "Root", Email: email, Password: hash(t), IsActive: true}}
	require.NoError(t, db.Create(a).Error)
	return a
}

func createWallet(t *testing.T, db *gorm.DB, owner uuid.UUID, role models.Role, balance decimal.Decimal) {
	t.Helper()
	w := &models.Wallet{OwnerID: owner, OwnerRole: role, Balance: balance, Currency: "INR"}
	require.NoError(t, db.Create(w).Error)
}

// Balance reads a wallet balance.
func Balance(t *testing.T, db *gorm.DB, owner uuid.UUID, role models.Role) decimal.Decimal {
	t.Helper()
	var w models.Wallet
	require.NoError(t, db.Where("owner_id = ? AND owner_role = ?", owner, role).First(&w).Error)
	return w.Balance
}

// SetBalance overwrites a wallet balance directly.
func SetBalance(t *testing.T, db *gorm.DB, owner uuid.UUID, role models.Role, balance string) {
	t.Helper()
	require.NoError(t, db.Model(&models.Wallet{}).
		Where("owner_id = ? AND owner_role = ?", owner, role).
		Update("balance", decimal.RequireFromString(balance)).Error)
}

// CreateCourse stores an approved course with one module of the given lesson count.
func CreateCourse(t *testing.T, db *gorm.DB, tutorID uuid.UUID, price string, lessons int) *models.Course {
	t.Helper()
	c := &models.Course{
		TutorID:     tutorID,
		Title:       "Go in Practice " + fmt.Sprint(lessons) + price,
		Description: "Building services",
		Price:       decimal.RequireFromString(price),
		Status:      models.CourseApproved,
	}
	require.NoError(t, db.Create(c).Error)

	m := &models.Module{CourseID: c.ID, Title: "Basics", Position: 1}
	require.NoError(t, db.Create(m).Error)
	for i := 0; i < lessons; i++ {
		l := &models.Lesson{ModuleID: m.ID, CourseID: c.ID, Title: fmt.Sprintf("Lesson %d", i+1), Position: i + 1, VideoURL: "https://video.example/" + fmt.Sprint(i)}
		require.NoError(t, db.Create(l).Error)
		m.Lessons = append(m.Lessons, *l)
	}
	c.Modules = []models.Module{*m}
	return c
}
