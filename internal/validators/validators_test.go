package validators

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

// buildNationalID assembles a valid cédula from a province code and a
// 7-digit sequence by computing the check digit.
func buildNationalID(province int, sequence string) string {
	body := fmt.Sprintf("%02d%s", province, sequence)
	coefficients := [9]int{2, 1, 2, 1, 2, 1, 2, 1, 2}
	total := 0
	for i := 0; i < 9; i++ {
		product := int(body[i]-'0') * coefficients[i]
		if product >= 10 {
			product -= 9
		}
		total += product
	}
	checkDigit := (10 - total%10) % 10
	return fmt.Sprintf("%s%d", body, checkDigit)
}

func TestIsValidNationalID(t *testing.T) {
	for province := 0; province <= 24; province++ {
		id := buildNationalID(province, "5081234")
		if !IsValidNationalID(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}

	invalid := []string{
		"",
		"123",
		"17050812345",         // 11 digits
		"2550812349",          // province 25
		"17a5081234",          // non-digit
		buildNationalID(9, "5081234") + "x",
	}
	for _, id := range invalid {
		if IsValidNationalID(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestIsValidNationalIDChecksumCatchesSingleDigitFlips(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	caught, total := 0, 0
	for trial := 0; trial < 100; trial++ {
		sequence := fmt.Sprintf("%07d", rng.Intn(10000000))
		id := buildNationalID(rng.Intn(25), sequence)

		pos := 2 + rng.Intn(8) // leave the province code alone
		original := id[pos]
		flipped := byte('0' + (int(original-'0')+1+rng.Intn(9))%10)
		if flipped == original {
			continue
		}
		mutated := id[:pos] + string(flipped) + id[pos+1:]

		total++
		if !IsValidNationalID(mutated) {
			caught++
		}
	}

	if caught*10 < total*9 {
		t.Errorf("checksum caught %d/%d single-digit flips, want at least 9/10", caught, total)
	}
}

func TestIsValidPassportNumber(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"A1234567", true},
		{"A0000000", true},
		{"B1234567", false},
		{"a1234567", false},
		{"A123456", false},
		{"A12345678", false},
		{"AA234567", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsValidPassportNumber(tc.in); got != tc.want {
			t.Errorf("IsValidPassportNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsStrongPassword(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Abcdef1!x", true},
		{"Str0ng¡Pass", true},
		{"short1!A", false},       // 8 chars
		{"abcdefg1!", false},      // no uppercase
		{"ABCDEFG1!", false},      // no lowercase
		{"Abcdefgh!", false},      // no digit
		{"Abcdefgh1", false},      // no symbol
		{"", false},
	}
	for _, tc := range cases {
		if got := IsStrongPassword(tc.in); got != tc.want {
			t.Errorf("IsStrongPassword(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPastAndFutureDates(t *testing.T) {
	quito := time.FixedZone("America/Guayaquil", -5*60*60)
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, quito)

	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	if !IsPastDate(yesterday, now) {
		t.Error("yesterday should be a past date")
	}
	if !IsPastDate(now, now) {
		t.Error("today should count as a past date")
	}
	if IsPastDate(tomorrow, now) {
		t.Error("tomorrow should not be a past date")
	}

	if !IsFutureDate(tomorrow, now) {
		t.Error("tomorrow should be a future date")
	}
	if !IsFutureDate(now, now) {
		t.Error("today should count as a future date")
	}
	if IsFutureDate(yesterday, now) {
		t.Error("yesterday should not be a future date")
	}

	// The day boundary follows the fixed UTC-5 offset, not UTC. 02:00 UTC
	// is still the previous civil day in Quito.
	utcEarly := time.Date(2025, 6, 16, 2, 0, 0, 0, time.UTC)
	if !IsPastDate(utcEarly, now) {
		t.Error("02:00 UTC on the 16th is still the 15th in Quito")
	}
}

func TestIsTenDigitPhone(t *testing.T) {
	if !IsTenDigitPhone("0991234567") {
		t.Error("expected valid phone")
	}
	for _, phone := range []string{"", "099123456", "09912345678", "099123456a", "09-1234567"} {
		if IsTenDigitPhone(phone) {
			t.Errorf("expected %q to be invalid", phone)
		}
	}
}

func TestIsTimeOfDay(t *testing.T) {
	for _, s := range []string{"00:00", "09:30", "23:59"} {
		if !IsTimeOfDay(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "24:00", "9:30", "12:60", "12:3", "noon"} {
		if IsTimeOfDay(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestIsGoogleMapsShortLink(t *testing.T) {
	if !IsGoogleMapsShortLink("https://maps.app.goo.gl/abc123") {
		t.Error("expected valid maps link")
	}
	if IsGoogleMapsShortLink("https://example.com/maps") {
		t.Error("expected invalid maps link")
	}
}

func TestIsAcceptedTerms(t *testing.T) {
	if !IsAcceptedTerms(true) || IsAcceptedTerms(false) {
		t.Error("terms must be accepted")
	}
}
