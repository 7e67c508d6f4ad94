package notifications

import (
	"context"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/metrics"
	"go.uber.org/zap"
)

type Message struct {
	ToName  string `json:"to_name"`
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// EmailClient is nil when no provider is configured; sends are then skipped.
var EmailClient Mailer

// InitEmailService selects the provider from EMAIL_PROVIDER (brevo or smtp)
// and wraps it in the Redis-backed queue when EMAIL_QUEUE_ENABLED is set.
func InitEmailService() {
	log := logger.Module("mail")
	senderEmail := config.Config("EMAIL_SENDER")
	senderName := config.Get("EMAIL_SENDER_NAME", "ElevateU")

	var direct Mailer
	switch config.Get("EMAIL_PROVIDER", "brevo") {
	case "smtp":
		host := config.Config("SMTP_HOST")
		if host == "" || senderEmail == "" {
			log.Warn("smtp email not configured, missing SMTP_HOST or EMAIL_SENDER")
			return
		}
		direct = NewSMTPMailer(host, config.Int("SMTP_PORT", 587), config.Config("SMTP_USERNAME"), config.Config("SMTP_PASSWORD"), senderEmail, senderName)
	default:
		apiKey := config.Config("BREVO_API_KEY")
		if apiKey == "" || senderEmail == "" {
			log.Warn("brevo email not configured, missing BREVO_API_KEY or EMAIL_SENDER")
			return
		}
		direct = NewBrevoMailer(apiKey, senderEmail, senderName)
	}

	EmailClient = direct
	if config.Bool("EMAIL_QUEUE_ENABLED", false) {
		queue, err := NewQueueMailer(config.Config("REDIS_URL"), direct)
		if err != nil {
			log.Error("email queue unavailable, sending inline", zap.Error(err))
		} else {
			EmailClient = queue
		}
	}
	log.Info("email service initialized", zap.String("sender", senderEmail))
}

// SendEmail is fire-and-forget; callers run it in a goroutine.
func SendEmail(toName, toEmail, subject, htmlContent string) {
	if EmailClient == nil {
		logger.Module("mail").Debug("email client not initialized, skipping", zap.String("to", toEmail))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	err := EmailClient.Send(ctx, Message{ToName: toName, ToEmail: toEmail, Subject: subject, HTML: htmlContent})
	if err != nil {
		metrics.Emails.WithLabelValues("failed").Inc()
		logger.Module("mail").Error("failed to send email", zap.String("to", toEmail), zap.String("subject", subject), zap.Error(err))
		return
	}
	metrics.Emails.WithLabelValues("sent").Inc()
}
