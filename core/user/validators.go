package user

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/janisrealty/janis/core"
)

var (
	roleCodeTag  = "role_code"
	roleCodeText = "invalid role"

	usernameOrEmailTag  = "username_or_email"
	usernameOrEmailText = "one of username or email is required"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")
	attrSplitRegex    = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"
	commonPasswords = make([]string, 0, 1024)
)

// InitValidators registers the user validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleCodeTag, roleCodeValidation)
	core.RegisterCustomTranslation(validate, translator, roleCodeTag, roleCodeText)

	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{}, ResetUserPassword{})
	core.RegisterCustomTranslation(validate, translator, usernameOrEmailTag, usernameOrEmailText)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText)
}

// LoadCommonPasswords loads assets/common-passwords.txt.gz, one password per line.
func LoadCommonPasswords(conf *core.Config, logger core.Logger) {
	pwdAssetPath := filepath.Join(conf.WorkDir, "assets", "common-passwords.txt.gz")
	file, err := os.Open(pwdAssetPath)
	if err != nil {
		logger.Warn(fmt.Sprintf("user.LoadCommonPasswords: %v", err))
		return
	}
	defer file.Close()

	gzRdr, err := gzip.NewReader(file)
	if err != nil {
		logger.Warn(fmt.Sprintf("user.LoadCommonPasswords: %v", err))
		return
	}
	scanner := bufio.NewScanner(gzRdr)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			commonPasswords = append(commonPasswords, strings.ToLower(pwd))
		}
	}
	sort.Strings(commonPasswords)
}

// Custom Validators

func roleCodeValidation(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	return code == "" || IsRole(code)
}

// userStructValidation does struct level validation on NewUser, UpdateUser and ResetUserPassword structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validateUsernameAndEmail(usr, sl)
		validatePassword(usr.Password, passwordAttrs(usr.FirstName, usr.LastName, usr.Username, usr.Email), sl)
	case UpdateUser:
		if usr.Password != "" {
			validatePassword(usr.Password, passwordAttrs(usr.FirstName, usr.LastName, usr.Username, usr.Email), sl)
		}
	case ResetUserPassword:
		validatePassword(usr.Password, nil, sl)
	}
}

// validateUsernameAndEmail checks that one of Username or Email is provided
func validateUsernameAndEmail(nu NewUser, sl validator.StructLevel) {
	if len(nu.Username) == 0 && len(nu.Email) == 0 {
		sl.ReportError(nu.Username, "username", "Username", usernameOrEmailTag, "")
		sl.ReportError(nu.Email, "email", "Email", usernameOrEmailTag, "")
	}
}

// passwordAttrs returns the user attributes a password must not resemble. Like the email, the
// full name is compared whole and word by word.
func passwordAttrs(firstName, lastName, uname, email string) []string {
	var attrs []string
	for _, v := range []string{firstName + " " + lastName, uname, email} {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		attrs = append(attrs, v)
		parts := attrSplitRegex.Split(v, -1)
		if len(parts) > 1 {
			for _, p := range parts {
				if p != "" {
					attrs = append(attrs, p)
				}
			}
		}
	}
	return attrs
}

// passwordRule reports the tag of the rule pwd breaks, if any.
type passwordRule func(pwd string, attrs []string) (tag string, ok bool)

var passwordPolicy = []passwordRule{
	func(pwd string, _ []string) (string, bool) {
		return pwdMinLenTag, utf8.RuneCountInString(pwd) >= pwdMinLen
	},
	func(pwd string, _ []string) (string, bool) {
		return pwdNoSpaceTag, strings.IndexFunc(pwd, unicode.IsSpace) < 0
	},
	func(pwd string, _ []string) (string, bool) {
		return pwdNotAllNumTag, strings.IndexFunc(pwd, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0
	},
	func(pwd string, _ []string) (string, bool) {
		ok := strings.IndexFunc(pwd, unicode.IsUpper) >= 0 &&
			strings.IndexFunc(pwd, unicode.IsLower) >= 0 &&
			strings.IndexFunc(pwd, unicode.IsDigit) >= 0 &&
			specialRegex.MatchString(pwd)
		return pwdComplexityTag, ok
	},
	func(pwd string, attrs []string) (string, bool) {
		chars := strings.Split(strings.ToLower(pwd), "")
		for _, attr := range attrs {
			if difflib.NewMatcher(chars, strings.Split(attr, "")).QuickRatio() >= pwdMaxSim {
				return pwdAttrSimTag, false
			}
		}
		return pwdAttrSimTag, true
	},
	func(pwd string, _ []string) (string, bool) {
		lpwd := strings.ToLower(pwd)
		idx := sort.SearchStrings(commonPasswords, lpwd)
		return pwdNoCommonTag, idx == len(commonPasswords) || commonPasswords[idx] != lpwd
	},
}

// validatePassword reports the first password rule pwd breaks.
func validatePassword(pwd string, attrs []string, sl validator.StructLevel) {
	for _, rule := range passwordPolicy {
		if tag, ok := rule(pwd, attrs); !ok {
			sl.ReportError(pwd, "password", "Password", tag, "")
			return
		}
	}
}
