package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anjiri1684/elevate_lms/cache"
	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/database"
	"github.com/anjiri1684/elevate_lms/handlers"
	"github.com/anjiri1684/elevate_lms/jobs"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/metrics"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/notifications"
	"github.com/anjiri1684/elevate_lms/payments"
	"github.com/anjiri1684/elevate_lms/routes"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/anjiri1684/elevate_lms/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	if err := logger.Init(config.Get("APP_ENV", "development"), config.Config("LOG_LEVEL")); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Module("main")

	if err := config.Require("DATABASE_URL", "JWT_REFRESH_SECRET"); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if err := utils.CheckSecrets(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	cache.Init(config.Config("REDIS_URL"))
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()
	payments.InitGateway()

	if queue, ok := notifications.EmailClient.(*notifications.QueueMailer); ok {
		if err := queue.StartWorker(config.Config("REDIS_URL"), config.Int("EMAIL_WORKERS", 5)); err != nil {
			log.Error("email worker failed to start", zap.Error(err))
		}
	}

	go websocket.RunHub()

	scheduler, err := jobs.Start(jobs.Defaults())
	if err != nil {
		log.Fatal("failed to schedule jobs", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:       "ElevateU",
		CaseSensitive: true,
		BodyLimit:     config.Int("BODY_LIMIT_MB", 10) * 1024 * 1024,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  handlers.ErrorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !config.IsProduction()}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Admin-Key, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.RequestLogger())
	app.Use(metrics.Middleware())

	routes.Setup(app)

	go func() {
		addr := ":" + config.Get("PORT", "5000")
		log.Info("server listening", zap.String("addr", addr), zap.String("env", config.Get("APP_ENV", "development")))
		if err := app.Listen(addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	<-scheduler.Stop().Done()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	websocket.Default.Stop()
	if queue, ok := notifications.EmailClient.(*notifications.QueueMailer); ok {
		queue.Shutdown()
	}
	cache.Close()
	if err := database.Close(); err != nil {
		log.Error("database close", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// allowedOrigins joins CLIENT_URL and CLIENT_URL_2 for the CORS config.
func allowedOrigins() string {
	var out []string
	for _, key := range []string{"CLIENT_URL", "CLIENT_URL_2"} {
		if v := strings.TrimRight(config.Config(key), "/"); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return "http://localhost:5173"
	}
	return strings.Join(out, ", ")
}
