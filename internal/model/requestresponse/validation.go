package requestresponse

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

var Validate = newValidator()

// bcrypt не принимает пароли длиннее 72 байт
const maxPasswordBytes = 72

func newValidator() *validator.Validate {
	v := validator.New()
	// password: от 8 до 72 байт (предел bcrypt), хотя бы одна буква и одна цифра
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) < 8 || len(value) > maxPasswordBytes {
			return false
		}
		var letter, digit bool
		for _, r := range value {
			switch {
			case unicode.IsLetter(r):
				letter = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return letter && digit
	})
	return v
}
