package users

import (
	"testing"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
)

func ref(id uuid.UUID) *uuid.UUID { return &id }

func TestHierarchySubordinatesFollowsAllEdges(t *testing.T) {
	area := uuid.New()
	dm := uuid.New()
	lm := uuid.New()
	rep1 := uuid.New()
	rep2 := uuid.New()
	outsider := uuid.New()

	h := NewHierarchy([]models.User{
		{ID: area},
		{ID: dm, AreaManagerID: ref(area)},
		{ID: lm, DistrictManagerID: ref(dm)},
		{ID: rep1, LineManagerID: ref(lm)},
		{ID: rep2, LineManagerID: ref(lm), DistrictManagerID: ref(dm)},
		{ID: outsider},
	})

	got := h.Subordinates(area)
	if len(got) != 4 {
		t.Fatalf("expected 4 subordinates, got %d (%v)", len(got), got)
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range got {
		if seen[id] {
			t.Fatalf("duplicate subordinate %s", id)
		}
		seen[id] = true
	}
	if seen[outsider] || seen[area] {
		t.Fatalf("unexpected member in %v", got)
	}
	if len(h.Subordinates(rep1)) != 0 {
		t.Fatalf("representative should have no subordinates")
	}
	if !h.IsAbove(area, rep2) || h.IsAbove(rep2, area) || h.IsAbove(lm, lm) {
		t.Fatalf("IsAbove returned wrong result")
	}
}

func TestHierarchyWithManagersDetectsCycle(t *testing.T) {
	lm := uuid.New()
	dm := uuid.New()
	h := NewHierarchy([]models.User{
		{ID: lm, DistrictManagerID: ref(dm)},
		{ID: dm},
	})

	proposed := h.WithManagers(dm, []uuid.UUID{lm})
	if !proposed.Reaches(lm, dm) {
		t.Fatalf("expected cycle lm -> dm -> lm to be detected")
	}
	if h.Reaches(lm, lm) != true {
		t.Fatalf("a node always reaches itself")
	}
	if len(h.Subordinates(lm)) != 0 {
		t.Fatalf("original index must be unchanged")
	}
}

func TestHierarchyToleratesExistingCycles(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	h := NewHierarchy([]models.User{
		{ID: a, LineManagerID: ref(b)},
		{ID: b, LineManagerID: ref(a)},
	})
	if got := h.Subordinates(a); len(got) != 1 || got[0] != b {
		t.Fatalf("unexpected subordinates %v", got)
	}
}
