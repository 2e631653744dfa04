package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

type managerPatch struct {
	LineManagerID NullableUUID `json:"lmId"`
}

func TestNullableUUIDUnmarshal(t *testing.T) {
	var got managerPatch
	if err := json.Unmarshal([]byte(`{"lmId": "00000000-0000-0000-0000-000000000001"}`), &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if !got.LineManagerID.Valid || got.LineManagerID.Value == nil {
		t.Fatalf("expected valid uuid, got %v", got.LineManagerID)
	}
	if got.LineManagerID.Value.String() != "00000000-0000-0000-0000-000000000001" {
		t.Fatalf("unexpected uuid %s", got.LineManagerID.Value)
	}

	for _, raw := range []string{`{"lmId": null}`, `{"lmId": ""}`} {
		got = managerPatch{}
		if err := json.Unmarshal([]byte(raw), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if !got.LineManagerID.Valid || got.LineManagerID.Value != nil {
			t.Fatalf("%s: expected a present clear, got %+v", raw, got.LineManagerID)
		}
	}

	got = managerPatch{}
	if err := json.Unmarshal([]byte(`{}`), &got); err != nil {
		t.Fatalf("unmarshal missing: %v", err)
	}
	if got.LineManagerID.Valid {
		t.Fatalf("expected invalid flag for missing field, got %+v", got.LineManagerID)
	}

	if err := json.Unmarshal([]byte(`{"lmId": "not-an-id"}`), &got); err == nil {
		t.Fatalf("expected malformed id to fail")
	}
}

func TestNullableUUIDApply(t *testing.T) {
	current := uuid.New()
	next := uuid.New()

	if got := (NullableUUID{}).Apply(&current); got == nil || *got != current {
		t.Fatalf("absent key should keep current, got %v", got)
	}
	if got := (NullableUUID{Valid: true}).Apply(&current); got != nil {
		t.Fatalf("null should clear, got %v", got)
	}
	if got := SetUUID(next).Apply(&current); got == nil || *got != next {
		t.Fatalf("value should replace current, got %v", got)
	}
}

func TestNullableUUIDMarshal(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	raw, err := json.Marshal(managerPatch{LineManagerID: SetUUID(id)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"lmId":"00000000-0000-0000-0000-000000000002"}` {
		t.Fatalf("unexpected json %s", raw)
	}
	raw, _ = json.Marshal(managerPatch{})
	if string(raw) != `{"lmId":null}` {
		t.Fatalf("unexpected json %s", raw)
	}
}
