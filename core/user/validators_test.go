package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core"
)

func newValidator() *validator.Validate {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestPasswordAttrs(t *testing.T) {
	assert.Equal(t,
		[]string{"ana maría", "ana", "maría", "amaria", "amaria@janis.pe", "amaria", "janis", "pe"},
		passwordAttrs("Ana", "María", "amaria", " AMaria@Janis.pe "))
	assert.Empty(t, passwordAttrs("", "", "", ""))
}

func TestPasswordPolicy(t *testing.T) {
	validate := newValidator()
	orig := commonPasswords
	commonPasswords = []string{"p@ssw0rd!", "qwerty#123"}
	t.Cleanup(func() { commonPasswords = orig })

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "valid", pwd: "Tr3s-Lagos"},
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Tres Lagos1!", wantTag: pwdNoSpaceTag},
		{name: "numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "TresLagos1", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "tr3s-lagos", wantTag: pwdComplexityTag},
		{name: "common", pwd: "P@ssw0rd!", wantTag: pwdNoCommonTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(ResetUserPassword{Token: "t", UID: "u", Password: tt.pwd, PasswordConfirm: tt.pwd})
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, err)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
		})
	}

	t.Run("similar to user attributes", func(t *testing.T) {
		nu := NewUser{
			Username: "gvera", FirstName: "Giancarlo", Email: "gian@janis.pe",
			Password: "Giancarlo#1", PasswordConfirm: "Giancarlo#1",
		}
		verrs, ok := validate.Struct(nu).(validator.ValidationErrors)
		require.True(t, ok)
		assert.Equal(t, pwdAttrSimTag, verrs[0].Tag())

		nu.Password, nu.PasswordConfirm = "Tr3s-Lagos", "Tr3s-Lagos"
		assert.NoError(t, validate.Struct(nu))
	})

	t.Run("username or email", func(t *testing.T) {
		nu := NewUser{FirstName: "Ana", Password: "Tr3s-Lagos", PasswordConfirm: "Tr3s-Lagos"}
		verrs, ok := validate.Struct(nu).(validator.ValidationErrors)
		require.True(t, ok)
		require.Len(t, verrs, 2)
		assert.Equal(t, usernameOrEmailTag, verrs[0].Tag())
	})
}
