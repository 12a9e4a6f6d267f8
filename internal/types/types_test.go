package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp(t *testing.T) {
	// Midnight UTC is 21:00 of the previous day at UTC-3.
	ts := Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 999, time.UTC))
	if ts != "2023-12-31 21:00:00" {
		t.Errorf("got %q, want %q", ts, "2023-12-31 21:00:00")
	}
}

func TestCourse_IsFull(t *testing.T) {
	tests := []struct {
		enrolled, max int
		full          bool
	}{
		{0, 1, false},
		{1, 1, true},
		{0, 0, true},
		{3, 2, true},
	}
	for _, tt := range tests {
		c := Course{EnrolledStudents: tt.enrolled, MaxStudents: tt.max}
		if c.IsFull() != tt.full {
			t.Errorf("enrolled=%d max=%d: IsFull=%v, want %v", tt.enrolled, tt.max, c.IsFull(), tt.full)
		}
	}
}

func TestNullableString_Unmarshal(t *testing.T) {
	var v struct {
		Course NullableString `json:"course"`
	}

	if err := json.Unmarshal([]byte(`{"course":123}`), &v); err == nil {
		t.Error("expected an error for a non-string value")
	}

	v.Course = NullableString{}
	if err := json.Unmarshal([]byte(`{"course":"c1"}`), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !v.Course.Set || v.Course.Value == nil || *v.Course.Value != "c1" {
		t.Errorf("unexpected value: %+v", v.Course)
	}
}
