package utils

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuantize_RoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"},
		{"10", "10"},
		{"0.125", "0.13"},
		{"1.2349", "1.23"},
	}
	for _, tc := range cases {
		got := Quantize(decimal.RequireFromString(tc.in))
		if !got.Equal(decimal.RequireFromString(tc.expected)) {
			t.Fatalf("Quantize(%s) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}

func TestPercentOf_QuantizesOnce(t *testing.T) {
	got := PercentOf(decimal.RequireFromString("333.33"), decimal.RequireFromString("1.5"))
	// 333.33 * 1.5 / 100 = 4.99995
	if !got.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("expected 5.00, got %s", got)
	}
	if !PercentOf(decimal.NewFromInt(1000), decimal.Zero).IsZero() {
		t.Fatalf("expected zero percent to yield zero")
	}
}

func TestParseMoneyLenient_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"Rs 20,000", "20000"},
		{"Rs -20,000", "-20000"},
		{"-₹ 1,234.50", "-1234.5"},
		{"  12.5  ", "12.5"},
	}
	for _, tc := range cases {
		d := ParseMoneyLenient(tc.in)
		if !d.Equal(decimal.RequireFromString(tc.expected)) {
			t.Fatalf("ParseMoneyLenient(%q) expected %s, got %s", tc.in, tc.expected, d)
		}
	}
}

func TestParseMoneyLenient_MalformedIsZero(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "1.2.3", "12abc", "--5", "Rs"} {
		if d := ParseMoneyLenient(in); !d.IsZero() {
			t.Fatalf("ParseMoneyLenient(%q) expected 0, got %s", in, d)
		}
	}
}

func TestParseMoneyStrict_ReportsMalformed(t *testing.T) {
	if _, err := ParseMoneyStrict(""); err == nil {
		t.Fatalf("expected error for empty amount")
	}
	if _, err := ParseMoneyStrict("ten"); err == nil {
		t.Fatalf("expected error for malformed amount")
	}
	d, err := ParseMoneyStrict("1,500.25")
	if err != nil {
		t.Fatalf("ParseMoneyStrict: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("1500.25")) {
		t.Fatalf("expected 1500.25, got %s", d)
	}
}

func TestLenientDecimal_UnmarshalJSON(t *testing.T) {
	var payload struct {
		A LenientDecimal `json:"a"`
		B LenientDecimal `json:"b"`
		C LenientDecimal `json:"c"`
		D LenientDecimal `json:"d"`
		E LenientDecimal `json:"e"`
		F LenientDecimal `json:"f"`
	}
	raw := `{"a": 12.5, "b": "1,000", "c": "", "d": null, "e": "oops", "f": {"x": 1}}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	expect := map[string]LenientDecimal{"a": payload.A, "b": payload.B, "c": payload.C, "d": payload.D, "e": payload.E, "f": payload.F}
	want := map[string]string{"a": "12.5", "b": "1000", "c": "0", "d": "0", "e": "0", "f": "0"}
	for k, v := range expect {
		if !v.Equal(decimal.RequireFromString(want[k])) {
			t.Fatalf("field %s expected %s, got %s", k, want[k], v.Decimal)
		}
	}
}
