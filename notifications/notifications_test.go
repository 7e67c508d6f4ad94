package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestBrevoMailerSend(t *testing.T) {
	var got brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	m := NewBrevoMailer("key-123", "no-reply@elevate.dev", "ElevateU")
	m.Endpoint = srv.URL

	err := m.Send(context.Background(), Message{ToEmail: "asha@example.com", Subject: "Hi", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.Equal(t, "asha", got.To[0]["name"])
	assert.Equal(t, "Hi", got.Subject)
}

func TestBrevoMailerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer("bad", "no-reply@elevate.dev", "ElevateU")
	m.Endpoint = srv.URL

	err := m.Send(context.Background(), Message{ToEmail: "asha@example.com"})
	assert.ErrorContains(t, err, "401")

	err = m.Send(context.Background(), Message{ToEmail: "not-an-email"})
	assert.ErrorContains(t, err, "invalid recipient")
}

func TestQueueHandlerDeliversThroughDirectMailer(t *testing.T) {
	direct := &recordingMailer{}
	q := &QueueMailer{direct: direct}

	task, err := NewSendEmailTask(Message{ToEmail: "a@b.co", Subject: "OTP"})
	require.NoError(t, err)
	require.NoError(t, q.Handle(context.Background(), task))
	require.Len(t, direct.sent, 1)
	assert.Equal(t, "OTP", direct.sent[0].Subject)

	err = q.Handle(context.Background(), asynq.NewTask(TaskSendEmail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSendEmailUsesClient(t *testing.T) {
	rec := &recordingMailer{}
	prev := EmailClient
	EmailClient = rec
	defer func() { EmailClient = prev }()

	SendEmail("Asha", "asha@example.com", "Welcome", WelcomeEmail("Asha", "user"))
	require.Len(t, rec.sent, 1)
	assert.True(t, strings.Contains(rec.sent[0].HTML, "Welcome to ElevateU"))
}

func TestTemplatesEscapeInput(t *testing.T) {
	html := OTPEmail("<script>", "123456", "5")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "123456")
}
