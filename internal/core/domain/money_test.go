package domain

import "testing"

func TestParseCents(t *testing.T) {
	cases := []struct {
		raw  string
		want Cents
	}{
		{"$10,000", 1_000_000},
		{"$10,500.00", 1_050_000},
		{"10000.50", 1_000_050},
		{"0.01", 1},
		{"-$250.25", -25_025},
		{"$24.5", 2450},
	}
	for _, tc := range cases {
		got, err := ParseCents(tc.raw)
		if err != nil {
			t.Fatalf("ParseCents(%q) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCents(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestParseCentsRejectsSubCent(t *testing.T) {
	if _, err := ParseCents("24.489"); err == nil {
		t.Fatalf("expected sub-cent precision error")
	}
}

func TestParseCentsRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "ten thousand", "$", "12.x"} {
		if _, err := ParseCents(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestCentsString(t *testing.T) {
	cases := []struct {
		in   Cents
		want string
	}{
		{1_000_000, "$10,000.00"},
		{1_050_000, "$10,500.00"},
		{1, "$0.01"},
		{-25_025, "-$250.25"},
		{123_456_789, "$1,234,567.89"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Fatalf("Cents(%d).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDateFormats(t *testing.T) {
	for _, raw := range []string{"2024-01-01", "01/01/2024", "January 1, 2024", "Jan 1, 2024"} {
		got, err := ParseDate(raw)
		if err != nil {
			t.Fatalf("ParseDate(%q) error = %v", raw, err)
		}
		if got.Year() != 2024 || got.Month() != 1 || got.Day() != 1 {
			t.Fatalf("ParseDate(%q) = %v", raw, got)
		}
	}
}

func TestParseSquareFeet(t *testing.T) {
	got, err := ParseSquareFeet("5,000")
	if err != nil {
		t.Fatalf("ParseSquareFeet() error = %v", err)
	}
	if got != 5000 {
		t.Fatalf("expected 5000, got %v", got)
	}
	if _, err := ParseSquareFeet("-12"); err == nil {
		t.Fatalf("expected error for negative footage")
	}
}
