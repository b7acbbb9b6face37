package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/shule/core"
)

var (
	roleTag  = "role"
	roleText = "{0} must be one of Admin, Teacher, Student or Parent"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdTexts = map[string]string{
		pwdMinLenTag:  pwdMinLenText,
		pwdNoSpaceTag: pwdNoSpaceText,
		pwdAttrSimTag: pwdAttrSimText,
	}
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)

	core.Validate.RegisterStructValidation(userStructValidation, NewUser{}, PasswordChange{})
	for tag, text := range pwdTexts {
		core.RegisterCustomTranslation(tag, text)
	}
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// userStructValidation does struct level validation on NewUser and PasswordChange structs.
func userStructValidation(sl validator.StructLevel) {
	switch v := sl.Current().Interface().(type) {
	case NewUser:
		if tag := checkPassword(v.Password, v.FullName, v.Username); tag != "" {
			sl.ReportError(v.Password, "password", "Password", tag, "")
		}
	case PasswordChange:
		if tag := checkPassword(v.NewPassword, "", v.Username); tag != "" {
			sl.ReportError(v.NewPassword, "new_password", "NewPassword", tag, "")
		}
	}
}

// ValidateNewPassword applies the password policy to a password chosen for `usr`.
func ValidateNewPassword(pwd string, usr User) error {
	if tag := checkPassword(pwd, usr.FullName, usr.Username); tag != "" {
		return core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "password", Error: pwdTexts[tag]})
	}
	return nil
}

// checkPassword returns the tag of the first policy rule `pwd` breaks, if any:
// - minLen: 6
// - no whitespace
// - no user attrs similarity
func checkPassword(pwd, name, uname string) string {
	if pwd == "" {
		return "" // reported by `required`
	}
	if len([]rune(pwd)) < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	if getRatio(lpwd, strings.ToLower(name)) >= pwdMaxSim || getRatio(lpwd, strings.ToLower(uname)) >= pwdMaxSim {
		return pwdAttrSimTag
	}
	return ""
}
