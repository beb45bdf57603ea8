// Package validate holds the pure validation functions of the bank. All
// functions are stateless and return booleans; callers decide which business
// error a failed check maps to.
package validate

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// InRange reports whether min <= value <= max, inclusive on both ends.
func InRange(min, max, value decimal.Decimal) bool {
	return value.GreaterThanOrEqual(min) && value.LessThanOrEqual(max)
}

// InRangeInt is InRange for integer quantities such as lengths and ages.
func InRangeInt(min, max, value int) bool {
	return min <= value && value <= max
}

// MatchesPattern reports whether s matches pattern. When anchored is true the
// whole string must match; otherwise a substring match is enough. An invalid
// pattern never matches.
func MatchesPattern(pattern, s string, anchored bool) bool {
	if anchored {
		pattern = "^(?:" + pattern + ")$"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// StrongPassword reports whether the password carries an upper case letter, a
// lower case letter, a digit, one of the !@#$%^&*()_+ symbols and a length
// between min and max.
func StrongPassword(password string, min, max int) bool {
	upper := MatchesPattern(`[A-Z]`, password, false)
	lower := MatchesPattern(`[a-z]`, password, false)
	digit := MatchesPattern(`\d`, password, false)
	symbol := MatchesPattern(`[!@#\$%\^&\*\(\)_\+]`, password, false)
	length := InRangeInt(min, max, len(password))
	return upper && lower && digit && symbol && length
}
