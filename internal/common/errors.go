// Package common содержит sentinel-ошибки, общие для репозиториев, сервисов и хендлеров.
// Сравнивать их нужно через errors.Is.
package common

import "errors"

var (
	// Ошибки хранилища.
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already taken")

	// Ошибки жизненного цикла токенов.
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrWrongTokenType   = errors.New("wrong token type")

	// Ошибки уровня аутентификации, которые видит внешний клиент.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUnauthenticated    = errors.New("please authenticate")
	ErrForbidden          = errors.New("forbidden")
)

// IsTokenFailure сообщает, относится ли ошибка к таксономии отказов проверки токена.
// Инфраструктурные ошибки (БД, Redis недоступны) сюда не входят.
func IsTokenFailure(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrWrongTokenType) ||
		errors.Is(err, ErrNotFound)
}
