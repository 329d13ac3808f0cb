package core

import (
	"math"
	"testing"
)

func TestSymbolFor(t *testing.T) {
	cases := map[string]string{
		"USD": "$",
		"usd": "$",
		"EUR": "€",
		"GBP": "£",
		"BRL": "R$",
		"UAH": "₴",
		"XYZ": "XYZ",
		"":    "",
		"abc": "abc",
	}
	for code, want := range cases {
		if got := SymbolFor(code); got != want {
			t.Errorf("SymbolFor(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestKnownCurrencies(t *testing.T) {
	codes := KnownCurrencies()
	if len(codes) != 34 {
		t.Fatalf("expected 34 known currencies, got %d", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted at %d: %v", i, codes)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount float64
		code   string
		want   string
	}{
		{100, "USD", "$100.00"},
		{0, "EUR", "€0.00"},
		{1234567.891, "GBP", "£1234567.89"},
		{2.5, "JPY", "¥2.50"},
		{1.0 / 3.0, "USD", "$0.33"},
		{2.0 / 3.0, "USD", "$0.67"},
		{12.345, "CHF", "CHF12.35"},
		{-5, "USD", "$-5.00"},
		{42, "XYZ", "XYZ42.00"},
		{math.Inf(1), "USD", "$+Inf"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.amount, tc.code); got != tc.want {
			t.Errorf("FormatAmount(%v, %q) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}
