package model

import "time"

// TokenType : назначение токена, входит в подписанный payload
type TokenType string

const (
	TokenTypeAccess        TokenType = "ACCESS"
	TokenTypeRefresh       TokenType = "REFRESH"
	TokenTypeResetPassword TokenType = "RESET_PASSWORD"
	TokenTypeVerifyEmail   TokenType = "VERIFY_EMAIL"
)

// Valid проверяет, что тип входит в перечисление
func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeResetPassword, TokenTypeVerifyEmail:
		return true
	}
	return false
}

// Persisted : access-токены stateless, остальные типы хранятся в TokenRepository
func (t TokenType) Persisted() bool {
	return t.Valid() && t != TokenTypeAccess
}

// SingleUse : токены, которые после успешного использования гасятся всей пачкой
func (t TokenType) SingleUse() bool {
	return t == TokenTypeResetPassword || t == TokenTypeVerifyEmail
}

// Token : раскодированный payload токена и, для persisted-типов, запись хранилища.
// UUID совпадает с jti подписанного токена.
type Token struct {
	UUID        string    `db:"uuid" json:"id"`
	UserUUID    string    `db:"user_uuid" json:"user_id"`
	Type        TokenType `db:"type" json:"type"`
	IssuedAt    time.Time `db:"issued_at" json:"issued_at"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	Blacklisted bool      `db:"blacklisted" json:"blacklisted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// IssuedToken содержит подписанную строку, которая отдается клиенту
// swagger:model
type IssuedToken struct {
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	Token string `json:"token"`
	// example: 2025-08-23T12:34:56Z
	Expires time.Time `json:"expires"`
}

// AuthTokens содержит пару access и refresh токенов
// swagger:model
type AuthTokens struct {
	Access  IssuedToken `json:"access"`
	Refresh IssuedToken `json:"refresh"`
}
