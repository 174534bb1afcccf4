package core

import "testing"

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2025 || int(d.Month()) != 3 || d.Day() != 9 {
		t.Fatalf("unexpected date %v", d)
	}

	for _, bad := range []string{"", "09/03/2025", "2025-13-01", "not a date"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDateMonthStart(t *testing.T) {
	d := NewDate(2025, 3, 17)
	if got := d.MonthStart(); got != NewDate(2025, 3, 1) {
		t.Fatalf("got %v", got)
	}
}

func TestDateAddDays(t *testing.T) {
	d := NewDate(2025, 3, 1)
	if got := d.AddDays(-1); got != NewDate(2025, 2, 28) {
		t.Fatalf("got %v", got)
	}
	if got := d.AddDays(31); got != NewDate(2025, 4, 1) {
		t.Fatalf("got %v", got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, 7, 4)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-07-04"` {
		t.Fatalf("got %s", b)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}
}
