package requestresponse

import "identity-token-service/internal/model"

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email" example:"jane@example.com"`
	Password   string `json:"password" validate:"required,password" example:"StrongPass123"`
	FirstName  string `json:"firstName" validate:"required" example:"Jane"`
	LastName   string `json:"lastName" validate:"required" example:"Doe"`
	Grade      string `json:"grade" validate:"required" example:"GRADE_10"`
	Province   string `json:"province" validate:"required" example:"GAUTENG"`
	Syllabus   string `json:"syllabus,omitempty" example:"CAPS"`
	SchoolName string `json:"schoolName,omitempty" example:"Greenside High"`
}

// ToModel : пароль в модель не попадает, его хэширует сервис
func (r *RegisterRequest) ToModel() *model.User {
	return &model.User{
		Email:      r.Email,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Grade:      r.Grade,
		Province:   r.Province,
		Syllabus:   r.Syllabus,
		SchoolName: r.SchoolName,
	}
}

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"jane@example.com"`
	Password string `json:"password" validate:"required" example:"StrongPass123"`
}

// AuthResponse : пользователь и пара токенов, ответ register и login
type AuthResponse struct {
	User   *model.User       `json:"user"`
	Tokens *model.AuthTokens `json:"tokens"`
}

// RefreshTokenRequest : используется в logout и refresh-tokens
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
}

// ForgotPasswordRequest : тело запроса на сброс пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"jane@example.com"`
}

// ResetPasswordRequest : новый пароль, токен передается в query
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,password" example:"NewStrongPass456"`
}

// BlacklistTokenRequest : владелец блокирует свой refresh/reset/verify токен
type BlacklistTokenRequest struct {
	Token string          `json:"token" validate:"required" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
	Type  model.TokenType `json:"type" validate:"required,oneof=REFRESH RESET_PASSWORD VERIFY_EMAIL" example:"REFRESH"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	User *model.User `json:"user"`
}
