package validators

import (
	"regexp"
	"strings"
	"time"
)

var (
	passportPattern = regexp.MustCompile(`^A\d{7}$`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	digitPattern    = regexp.MustCompile(`\d`)
	symbolPattern   = regexp.MustCompile(`[¡!@#$%^¿?&*()\-_+./\\]`)
	timePattern     = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// IsValidNationalID validates an Ecuadorian cédula: ten digits, a province
// code from 00 to 24 and a weighted checksum over the first nine digits.
func IsValidNationalID(idNumber string) bool {
	if len(idNumber) != 10 {
		return false
	}
	for _, r := range idNumber {
		if r < '0' || r > '9' {
			return false
		}
	}

	provinceCode := int(idNumber[0]-'0')*10 + int(idNumber[1]-'0')
	if provinceCode > 24 {
		return false
	}

	coefficients := [9]int{2, 1, 2, 1, 2, 1, 2, 1, 2}
	total := 0
	for i := 0; i < 9; i++ {
		product := int(idNumber[i]-'0') * coefficients[i]
		if product >= 10 {
			product -= 9
		}
		total += product
	}

	checkDigit := (10 - total%10) % 10
	return checkDigit == int(idNumber[9]-'0')
}

// IsValidPassportNumber validates an Ecuadorian passport number: an
// uppercase A followed by exactly seven digits.
func IsValidPassportNumber(passportNumber string) bool {
	return passportPattern.MatchString(passportNumber)
}

// IsStrongPassword requires at least 9 characters with at least one
// lowercase letter, one uppercase letter, one digit and one symbol.
func IsStrongPassword(password string) bool {
	return len(password) >= 9 &&
		lowerPattern.MatchString(password) &&
		upperPattern.MatchString(password) &&
		digitPattern.MatchString(password) &&
		symbolPattern.MatchString(password)
}

// IsPastDate reports whether date falls strictly on or before the civil day
// of now.
func IsPastDate(date, now time.Time) bool {
	return !civilDay(date, now.Location()).After(civilDay(now, now.Location()))
}

// IsFutureDate reports whether date falls on or after the civil day of now.
func IsFutureDate(date, now time.Time) bool {
	return !civilDay(date, now.Location()).Before(civilDay(now, now.Location()))
}

func civilDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func IsTenDigitPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func IsAcceptedTerms(acceptedTerms bool) bool {
	return acceptedTerms
}

// IsTimeOfDay validates a 24-hour HH:MM string.
func IsTimeOfDay(s string) bool {
	return timePattern.MatchString(s)
}

func IsGoogleMapsShortLink(url string) bool {
	return strings.HasPrefix(url, "https://maps.app.goo.gl/")
}
