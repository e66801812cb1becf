// Package notifier доставляет письма со ссылками сброса пароля и подтверждения почты.
// Драйвер выбирается в конфигурации: log, webhook или s3 (outbox для внешнего почтового воркера).
package notifier

import (
	"context"
	"fmt"
	"identity-token-service/config"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/metrics"
	"identity-token-service/internal/model"
	"identity-token-service/internal/ports"
)

// New собирает ports.Notifier по notifier.driver
func New(ctx context.Context, cfg *config.AppConfig, logger logging.Logger) (ports.Notifier, error) {
	switch cfg.Notifier.Driver {
	case config.NotifierLog:
		return Instrument(config.NotifierLog, NewLogNotifier(logger)), nil
	case config.NotifierWebhook:
		return Instrument(config.NotifierWebhook, NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout, nil)), nil
	case config.NotifierS3:
		outbox, err := NewS3Outbox(ctx, &cfg.S3Config)
		if err != nil {
			return nil, err
		}
		return Instrument(config.NotifierS3, outbox), nil
	default:
		return nil, fmt.Errorf("неизвестный драйвер уведомлений: %q", cfg.Notifier.Driver)
	}
}

type instrumented struct {
	driver string
	next   ports.Notifier
}

// Instrument считает отправки в metrics.NotificationsTotal
func Instrument(driver string, next ports.Notifier) ports.Notifier {
	return &instrumented{driver: driver, next: next}
}

func (n *instrumented) Notify(ctx context.Context, notification *model.Notification) error {
	err := n.next.Notify(ctx, notification)

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.NotificationsTotal.WithLabelValues(n.driver, string(notification.Kind), result).Inc()

	return err
}
