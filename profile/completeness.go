package profile

import "strings"

// IsComplete reports whether the record carries every required field.
// Username, email, phone and date of birth must be non-empty after
// trimming; the referral code never participates.
func IsComplete(r *Record) bool {
	if r == nil {
		return false
	}
	for _, field := range []string{r.Username, r.Email, r.Phone, r.DOB} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// Classify maps a fetched record (possibly nil for a missing document) to
// complete or incomplete.
func Classify(r *Record) Status {
	if IsComplete(r) {
		return StatusComplete
	}
	return StatusIncomplete
}

// FormatPhone masks a Brazilian phone number as (XX) XXXXX-XXXX, building
// up partial masks for shorter inputs. Non-digits are stripped first.
func FormatPhone(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()
	if len(n) > 11 {
		n = n[:11]
	}

	switch {
	case len(n) == 0:
		return ""
	case len(n) <= 2:
		return "(" + n
	case len(n) <= 7:
		return "(" + n[:2] + ") " + n[2:]
	default:
		return "(" + n[:2] + ") " + n[2:7] + "-" + n[7:]
	}
}

// PhoneDigits counts the digits in a raw or masked phone value.
func PhoneDigits(value string) int {
	count := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}
