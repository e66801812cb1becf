package notifier

import (
	"context"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/model"
)

// LogNotifier пишет уведомление в лог. Только для локальной разработки:
// токен попадает в лог целиком.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, notification *model.Notification) error {
	n.logger.Info(ctx, "уведомление",
		"id", notification.ID,
		"kind", notification.Kind,
		"user_uuid", notification.UserUUID,
		"email", notification.Email,
		"token", notification.Token,
		"expires_at", notification.ExpiresAt,
	)
	return nil
}
