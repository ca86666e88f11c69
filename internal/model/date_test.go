package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateScan(t *testing.T) {
	want := NewDate(2025, time.January, 1)
	tests := []struct {
		name string
		src  any
	}{
		{"time", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"string", "2025-01-01"},
		{"bytes", []byte("2025-01-01")},
		{"timestamp text", "2025-01-01 00:00:00+00:00"},
		{"rfc3339", "2025-01-01T00:00:00Z"},
	}

	for _, tt := range tests {
		var d Date
		if err := d.Scan(tt.src); err != nil {
			t.Errorf("%s: Scan: %v", tt.name, err)
			continue
		}
		if d != want {
			t.Errorf("%s: got %v, want %v", tt.name, d, want)
		}
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"2024-02-29"` {
		t.Errorf("got %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("got %v, want %v", back, d)
	}

	if err := json.Unmarshal([]byte(`"29.2.2024"`), &back); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2024, time.December, 31)
	b := a.AddDays(1)
	if b != NewDate(2025, time.January, 1) {
		t.Errorf("AddDays: got %v", b)
	}
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Error("Before ordering broken")
	}
}
