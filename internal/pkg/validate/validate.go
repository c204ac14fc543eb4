package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PasswordSymbols is the set of special characters the password policy accepts.
const PasswordSymbols = "@#$%&*!?"

const (
	passwordMinLength = 8
	// bcrypt refuses inputs longer than 72 bytes.
	passwordMaxBytes = 72
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

func init() {
	if err := v.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// Password reports whether p satisfies the password policy: at least 8
// characters and at most 72 bytes, with an ASCII lowercase letter, an ASCII
// uppercase letter, an ASCII digit and one of PasswordSymbols. Other
// characters are allowed but count toward none of the classes.
func Password(p string) bool {
	if len([]rune(p)) < passwordMinLength || len(p) > passwordMaxBytes {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
