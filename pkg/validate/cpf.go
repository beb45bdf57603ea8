package validate

import "strings"

// CPF reports whether the given Brazilian CPF number is valid. Punctuation is
// stripped before checking, so both "529.982.247-25" and "52998224725" are
// accepted. A CPF is valid when it has exactly eleven digits, is not a
// repeated-digit sequence, and its two check digits match the weighted mod-11
// checksum of the nine base digits.
func CPF(cpf string) bool {
	digits := stripNonDigits(cpf)
	if len(digits) != 11 || isRepeatedSequence(digits) {
		return false
	}

	first := checksumDigit(digits[:9], 10)
	second := checksumDigit(digits[:9]+string(first), 11)
	return digits[9] == first && digits[10] == second
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isRepeatedSequence catches CPFs like 000.000.000-00, which pass the
// checksum but are not assignable.
func isRepeatedSequence(digits string) bool {
	return strings.Count(digits, digits[:1]) == len(digits)
}

// checksumDigit computes one check digit from the given digits, multiplying
// each by a descending weight starting at startWeight. A result above nine
// collapses to zero.
func checksumDigit(digits string, startWeight int) byte {
	sum := 0
	weight := startWeight
	for _, r := range digits {
		sum += int(r-'0') * weight
		weight--
	}
	digit := 11 - sum%11
	if digit > 9 {
		digit = 0
	}
	return byte('0' + digit)
}
