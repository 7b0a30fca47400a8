package utils

import (
	"testing"
	"unicode/utf8"
)

func TestValidateEmail(t *testing.T) {
	cases := map[string]bool{
		"jane@example.com":  true,
		"a.b+c@mail.co.uk":  true,
		"":                  false,
		"   ":               false,
		"no-at-sign.com":    false,
		"jane@localhost":    false,
		"jane doe@mail.com": false,
	}
	for in, want := range cases {
		if got := ValidateEmail(in); got != want {
			t.Errorf("ValidateEmail(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("1234567") {
		t.Error("7 characters accepted")
	}
	if !ValidatePassword("12345678") {
		t.Error("8 characters rejected")
	}
	if ValidatePassword("éééé") {
		t.Error("4 two-byte characters accepted")
	}
	if !ValidatePassword("éééééééé") {
		t.Error("8 two-byte characters rejected")
	}
}

func TestNormalizePostalCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"v6b 1a1", "V6B 1A1", true},
		{"K1A0B1", "K1A 0B1", true},
		{" m5v-2t6 ", "M5V 2T6", true},
		{"12345", "", false},
		{"V6B 1A", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizePostalCode(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizePostalCode(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeProvince(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"bc", "BC", true},
		{"Nova Scotia", "NS", true},
		{"Québec", "QC", true},
		{"XX", "", false},
		{"Ontari", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeProvince(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeProvince(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"604-555-0101", "+1 (604) 555-0101", "5550101"}
	invalid := []string{"555-01", "phone", "+1 604 555 0101 0101 0101"}
	for _, p := range valid {
		if !ValidatePhone(p) {
			t.Errorf("ValidatePhone(%q) = false", p)
		}
	}
	for _, p := range invalid {
		if ValidatePhone(p) {
			t.Errorf("ValidatePhone(%q) = true", p)
		}
	}
}

func TestParseAmountAndCount(t *testing.T) {
	if d, ok := ParseAmount(" 4500.50 "); !ok || d.String() != "4500.5" {
		t.Errorf("ParseAmount = %s, %v", d, ok)
	}
	if _, ok := ParseAmount("-1"); ok {
		t.Error("negative amount accepted")
	}
	if n, ok := ParseCount("3"); !ok || n != 3 {
		t.Errorf("ParseCount = %d, %v", n, ok)
	}
	if _, ok := ParseCount("1.5"); ok {
		t.Error("fractional count accepted")
	}
}

func TestMaskEmail(t *testing.T) {
	if got := MaskEmail("alice@example.com"); got != "a***e@example.com" {
		t.Errorf("MaskEmail = %q", got)
	}
	if got := MaskEmail("élodie@example.ca"); got != "é***e@example.ca" || !utf8.ValidString(got) {
		t.Errorf("MaskEmail multibyte = %q", got)
	}
	if got := MaskEmail("a@example.com"); got != "***" {
		t.Errorf("MaskEmail short = %q", got)
	}
}
