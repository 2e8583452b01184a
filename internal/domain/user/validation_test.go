package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateOfBirth(t *testing.T) {
	dob, err := ParseDateOfBirth("1988-06-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1988, 6, 10, 0, 0, 0, 0, time.UTC), dob)

	_, err = ParseDateOfBirth("2001-02-29")
	assert.ErrorIs(t, err, ErrInvalidDateOfBirth, "非闰年没有2月29日")

	_, err = ParseDateOfBirth("2000-02-29")
	assert.NoError(t, err)
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"合法密码", "Teste@123", nil},
		{"空格算特殊字符", "Teste 123", nil},
		{"多字节字符按字符计长度", "Ä1@ääää", ErrPasswordTooShort},
		{"非ASCII大写字母", "Ä1@äääää", nil},
		{"非ASCII数字", "Teste@١٢٣", nil},
		{"带重音的小写字母不算特殊字符", "Testé123", ErrPasswordNoSpecial},
		{"只有特殊字符", "@@@@@@@@", ErrPasswordNoUppercase},
		{"缺少数字", "Aaaaaaa@", ErrPasswordNoDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateCreateInputReturnsParsedDate(t *testing.T) {
	dob, err := ValidateCreateInput(CreateUserInput{
		Name:              "n",
		DateOfBirth:       "1990-01-31",
		Email:             "n@x.com",
		Gender:            GenderFemale,
		MainLanguage:      "go",
		YearsOfExperience: 0,
		Password:          "Teste@123",
	})
	require.NoError(t, err)
	assert.Equal(t, "1990-01-31", dob.Format(DateLayout))
}

func TestGenderValid(t *testing.T) {
	assert.True(t, GenderMale.Valid())
	assert.True(t, GenderFemale.Valid())
	assert.True(t, GenderOther.Valid())
	assert.False(t, Gender("male").Valid())
	assert.False(t, Gender("").Valid())
}
