package utils

import (
	"testing"
	"time"
)

func TestNormalizeDate_DropsClockAndZone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2024, 3, 9, 23, 45, 0, 0, loc)
	got := NormalizeDate(in)
	want := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if NormalizeDatePtr(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-31", "31-01-2024", "31/01/2024", " 2024-01-31 "} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q) expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseDate("31.01.2024"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
	d, err := ParseOptionalDate("")
	if err != nil || d != nil {
		t.Fatalf("expected nil bound for blank date, got %v %v", d, err)
	}
}

func TestValidateStruct_ReportsJsonFieldNames(t *testing.T) {
	type input struct {
		Name  string `json:"party_name" validate:"required,max=5"`
		Email string `json:"email" validate:"omitempty,email"`
	}
	errs := ValidateStruct(input{Name: "", Email: "nope"})
	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", errs)
	}
	if errs[0].Field != "party_name" || errs[0].Message != "is required" {
		t.Fatalf("unexpected first error %+v", errs[0])
	}
	if errs[1].Field != "email" {
		t.Fatalf("unexpected second error %+v", errs[1])
	}
	if errs := ValidateStruct(input{Name: "ok"}); len(errs) != 0 {
		t.Fatalf("expected no errors, got %+v", errs)
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	if err := ValidatePhoneNumber("9876543210", "IN"); err != nil {
		t.Fatalf("expected valid number, got %v", err)
	}
	if err := ValidatePhoneNumber("12345", "IN"); err == nil {
		t.Fatalf("expected invalid number to fail")
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("unexpected %v", got)
	}
}

func TestResourceName(t *testing.T) {
	type JamaEntry struct{}
	if got := ResourceName[JamaEntry](); got != "jama entry" {
		t.Fatalf("expected \"jama entry\", got %q", got)
	}
}
