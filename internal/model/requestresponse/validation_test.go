package requestresponse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Password(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"StrongPass123", true},
		{"abcdefg1", true},
		{"short1", false},
		{"onlyletters", false},
		{"12345678", false},
		{strings.Repeat("a1", 36), true},
		{strings.Repeat("a1", 40), false},
		{strings.Repeat("пароль1", 6), false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := Validate.Struct(ResetPasswordRequest{Password: tt.password})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_BlacklistType(t *testing.T) {
	assert.NoError(t, Validate.Struct(BlacklistTokenRequest{Token: "x", Type: "REFRESH"}))
	assert.Error(t, Validate.Struct(BlacklistTokenRequest{Token: "x", Type: "ACCESS"}))
}

func TestRegisterRequest_ToModel(t *testing.T) {
	req := RegisterRequest{Email: "jane@example.com", Password: "secret123", FirstName: "Jane", Province: "GAUTENG"}
	user := req.ToModel()

	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "GAUTENG", user.Province)
	assert.Empty(t, user.PasswordHash)
}
