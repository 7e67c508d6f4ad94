package database

import (
	"context"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), Options())
	if err != nil {
		logger.Module("database").Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := DB.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(config.Int("DB_MAX_OPEN_CONNS", 25))
		sqlDB.SetMaxIdleConns(config.Int("DB_MAX_IDLE_CONNS", 5))
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Module("database").Info("database connected")
}

// Options is shared by the postgres connection and the in-memory test database.
func Options() *gorm.Config {
	level := gormlogger.Silent
	if config.Bool("DB_DEBUG", false) {
		level = gormlogger.Info
	}
	return &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(level),
	}
}

func Tables() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tutor{},
		&models.Admin{},
		&models.Category{},
		&models.Course{},
		&models.Module{},
		&models.Lesson{},
		&models.Coupon{},
		&models.Cart{},
		&models.Bookmark{},
		&models.Order{},
		&models.EnrolledCourse{},
		&models.LessonProgress{},
		&models.Certificate{},
		&models.Wallet{},
		&models.BankAccount{},
		&models.Transaction{},
		&models.WithdrawalRequest{},
		&models.Notification{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Tables()...)
}

func Migrate() {
	if err := AutoMigrate(DB); err != nil {
		logger.Module("database").Fatal("failed to migrate database", zap.Error(err))
	}
	logger.Module("database").Info("database migration successful")
}

// SeedAdmin creates the super admin from ADMIN_EMAIL / ADMIN_PASSWORD when it
// does not exist yet, and makes sure the platform wallet row is present.
func SeedAdmin() {
	log := logger.Module("database")

	if err := EnsurePlatformWallet(DB); err != nil {
		log.Fatal("failed to seed platform wallet", zap.Error(err))
	}

	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	var count int64
	if err := DB.Model(&models.Admin{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		log.Fatal("failed to check for admin", zap.Error(err))
	}
	if count > 0 {
		log.Debug("admin already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("failed to hash admin password", zap.Error(err))
	}

	admin := models.Admin{
		Account: models.Account{
			FirstName: config.Get("ADMIN_FIRST_NAME", "Admin"),
			Email:     adminEmail,
			Password:  string(hashedPassword),
			IsActive:  true,
		},
		IsSuperAdmin: true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Fatal("failed to seed admin", zap.Error(err))
	}

	log.Info("admin seeded", zap.String("email", adminEmail))
}

func EnsurePlatformWallet(db *gorm.DB) error {
	wallet := models.Wallet{
		OwnerID:   models.PlatformOwnerID,
		OwnerRole: models.RoleAdmin,
		Balance:   decimal.Zero,
		Currency:  config.Get("PAYMENT_CURRENCY", "INR"),
	}
	err := db.Where("owner_id = ? AND owner_role = ?", wallet.OwnerID, wallet.OwnerRole).
		FirstOrCreate(&wallet).Error
	return errors.Wrap(err, "ensure platform wallet")
}

// State reports the connection health used by /health.
func State(ctx context.Context) string {
	if DB == nil {
		return "disconnected"
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return "disconnected"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return "unreachable"
	}
	return "connected"
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
