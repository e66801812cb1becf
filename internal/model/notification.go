package model

import "time"

type NotificationKind string

const (
	NotificationResetPassword NotificationKind = "reset_password"
	NotificationVerifyEmail   NotificationKind = "verify_email"
)

// Notification : письмо со ссылкой, содержащей токен. Доставкой занимается ports.Notifier.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	UserUUID  string           `json:"user_id"`
	Email     string           `json:"email"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	CreatedAt time.Time        `json:"created_at"`
}
