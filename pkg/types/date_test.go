package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDateAcceptsDayAndTimestamp(t *testing.T) {
	day, err := ParseDate("2026-03-05")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	stamp, err := ParseDate("2026-03-05T22:30:00+02:00")
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	if !day.Equal(stamp.Time) {
		t.Fatalf("expected %s, got %s", day, stamp)
	}
	if day.Location() != time.UTC || day.Hour() != 0 {
		t.Fatalf("expected midnight utc, got %v", day.Time)
	}
	if _, err := ParseDate("05/03/2026"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Day Date `json:"day"`
	}
	if err := json.Unmarshal([]byte(`{"day":"2026-12-31"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := payload.Day.NextDay().Format(DateLayout); got != "2027-01-01" {
		t.Fatalf("unexpected next day %s", got)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"day":"2026-12-31"}` {
		t.Fatalf("unexpected json %s", out)
	}
	if err := json.Unmarshal([]byte(`{"day":12}`), &payload); err == nil {
		t.Fatalf("expected error for numeric date")
	}
}
