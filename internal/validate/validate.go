// Package validate holds the input format policies enforced before any
// storage access: email shape, password complexity, and display names.
package validate

import "regexp"

var (
	emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// DefaultNameRegexp accepts Hangul and Latin letters, 1-20 characters.
	DefaultNameRegexp = regexp.MustCompile(`^[가-힣a-zA-Z]{1,20}$`)

	passwordUpper  = regexp.MustCompile(`[A-Z]`)
	passwordLower  = regexp.MustCompile(`[a-z]`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
	passwordSymbol = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Email reports whether s has the standard local@domain.tld shape.
func Email(s string) bool {
	return emailRegexp.MatchString(s)
}

// Password reports whether s satisfies the password policy: at least
// 8 characters with at least one uppercase letter, one lowercase letter,
// one digit, and one symbol from a fixed punctuation set.
func Password(s string) bool {
	if len(s) < 8 {
		return false
	}
	return passwordUpper.MatchString(s) &&
		passwordLower.MatchString(s) &&
		passwordDigit.MatchString(s) &&
		passwordSymbol.MatchString(s)
}

// Name reports whether s matches the given display-name policy.
// A nil policy falls back to DefaultNameRegexp.
func Name(s string, policy *regexp.Regexp) bool {
	if policy == nil {
		policy = DefaultNameRegexp
	}
	return policy.MatchString(s)
}
