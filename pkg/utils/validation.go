package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	emailRegex      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	postalCodeRegex = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z][ -]?\d[A-Za-z]\d$`)
	phoneRegex      = regexp.MustCompile(`^\+?[0-9(][0-9 ()\-]{5,22}$`)
)

const (
	MinPasswordLength = 8
	// bcrypt ignores anything past 72 bytes
	MaxPasswordBytes = 72
)

var provinces = map[string]string{
	"AB": "alberta",
	"BC": "british columbia",
	"MB": "manitoba",
	"NB": "new brunswick",
	"NL": "newfoundland and labrador",
	"NT": "northwest territories",
	"NS": "nova scotia",
	"NU": "nunavut",
	"ON": "ontario",
	"PE": "prince edward island",
	"QC": "quebec",
	"SK": "saskatchewan",
	"YT": "yukon",
}

// ValidateEmail checks the basic address shape: something@something.something, no whitespace.
func ValidateEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// ValidatePassword counts characters, not bytes.
func ValidatePassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// NormalizePostalCode returns the code as "A1A 1A1", or false when it is not a Canadian postal code.
func NormalizePostalCode(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if !postalCodeRegex.MatchString(code) {
		return "", false
	}
	compact := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(code))
	return compact[:3] + " " + compact[3:], true
}

// NormalizeProvince accepts a two-letter code or the full name and returns the code.
func NormalizeProvince(p string) (string, bool) {
	p = strings.TrimSpace(p)
	if code := strings.ToUpper(p); len(code) == 2 {
		if _, ok := provinces[code]; ok {
			return code, true
		}
	}
	name := strings.ToLower(p)
	if name == "québec" {
		name = "quebec"
	}
	for code, full := range provinces {
		if full == name {
			return code, true
		}
	}
	return "", false
}

func IsProvinceCode(code string) bool {
	_, ok := provinces[code]
	return ok
}

func ValidatePhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	if !phoneRegex.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// ParseAmount parses a non-negative money amount such as "4500" or "4500.50".
func ParseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

func ParseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func WithinLength(s string, max int) bool {
	return utf8.RuneCountInString(s) <= max
}

// MaskEmail masks email addresses like a***g@gmail.com
func MaskEmail(email string) string {
	atIdx := strings.Index(email, "@")
	if atIdx < 0 {
		return "***"
	}
	local := email[:atIdx]
	if utf8.RuneCountInString(local) <= 1 {
		return "***"
	}
	_, first := utf8.DecodeRuneInString(local)
	_, last := utf8.DecodeLastRuneInString(local)
	return local[:first] + "***" + local[len(local)-last:] + email[atIdx:]
}
