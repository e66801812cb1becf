package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"identity-token-service/config"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/metrics"
	"identity-token-service/internal/model"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification() *model.Notification {
	return &model.Notification{
		ID:        "n-1",
		Kind:      model.NotificationResetPassword,
		UserUUID:  "u-1",
		Email:     "jane@example.com",
		Token:     "signed.token.value",
		ExpiresAt: time.Date(2025, 8, 23, 12, 10, 0, 0, time.UTC),
		CreatedAt: time.Date(2025, 8, 23, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifier_Notify(t *testing.T) {
	var received model.Notification
	var idempotencyKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		idempotencyKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, nil)
	require.NoError(t, n.Notify(context.Background(), testNotification()))

	assert.Equal(t, "n-1", idempotencyKey)
	assert.Equal(t, "signed.token.value", received.Token)
	assert.Equal(t, model.NotificationResetPassword, received.Kind)
}

func TestWebhookNotifier_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, time.Second, nil).Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookNotifier_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	err := NewWebhookNotifier(srv.URL, 50*time.Millisecond, nil).Notify(context.Background(), testNotification())
	assert.Error(t, err)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Outbox_Notify(t *testing.T) {
	putter := &fakePutter{}
	outbox := newS3Outbox(putter, "mail", "identity/")

	require.NoError(t, outbox.Notify(context.Background(), testNotification()))

	assert.Equal(t, "mail", *putter.input.Bucket)
	assert.Equal(t, "identity/outbox/reset_password/2025-08-23/n-1.json", *putter.input.Key)
	assert.Equal(t, "application/json", *putter.input.ContentType)

	var stored model.Notification
	require.NoError(t, json.Unmarshal(putter.body, &stored))
	assert.Equal(t, "jane@example.com", stored.Email)
}

func TestS3Outbox_PutFailure(t *testing.T) {
	putErr := errors.New("access denied")
	outbox := newS3Outbox(&fakePutter{err: putErr}, "mail", "")

	err := outbox.Notify(context.Background(), testNotification())
	assert.ErrorIs(t, err, putErr)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, *model.Notification) error {
	return errors.New("down")
}

func TestInstrument_CountsResults(t *testing.T) {
	ok := metrics.NotificationsTotal.WithLabelValues("test_ok", "verify_email", "ok")
	failed := metrics.NotificationsTotal.WithLabelValues("test_fail", "verify_email", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	n := testNotification()
	n.Kind = model.NotificationVerifyEmail

	require.NoError(t, Instrument("test_ok", NewLogNotifier(logging.Discard())).Notify(context.Background(), n))
	require.Error(t, Instrument("test_fail", failingNotifier{}).Notify(context.Background(), n))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestNew_SelectsDriver(t *testing.T) {
	cfg := config.DefaultConfig()

	n, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, n)

	cfg.Notifier.Driver = config.NotifierWebhook
	cfg.Notifier.WebhookURL = "http://localhost:9999/hook"
	n, err = New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, n)

	cfg.Notifier.Driver = "pigeon"
	_, err = New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}
